package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onsale/marketplace/internal/domain"
)

// PurchaseRepository owns the allocation primitives and the purchase
// audit table.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Reserve allocates qty tickets in one conditional UPDATE. The guard
// and the increment execute under the row lock for the statement's
// duration, so concurrent reservations can never exceed capacity.
func (r *PurchaseRepository) Reserve(ctx context.Context, id, qty uint64) (domain.Event, error) {
	const stmt = `
UPDATE events SET sold_count = sold_count + $2
WHERE id = $1 AND sold_count + $2 <= capacity
RETURNING ` + eventColumns

	var ev domain.Event
	err := r.queryRow(ctx, stmt, id, qty).
		Scan(&ev.ID, &ev.SoldCount, &ev.Capacity, &ev.PriceNative, &ev.PriceToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			var exists bool
			if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
				return domain.Event{}, fmt.Errorf("check event: %w", err)
			}
			if !exists {
				return domain.Event{}, domain.ErrEventNotFound
			}
			return domain.Event{}, domain.ErrSoldOut
		}
		if isCheckViolation(err) {
			return domain.Event{}, domain.ErrSoldOut
		}
		return domain.Event{}, fmt.Errorf("reserve tickets: %w", err)
	}
	return ev, nil
}

// Release rolls back a provisional reservation. The guard keeps the
// sold count from going negative if a rollback is retried.
func (r *PurchaseRepository) Release(ctx context.Context, id, qty uint64) error {
	const stmt = `
UPDATE events SET sold_count = sold_count - $2
WHERE id = $1 AND sold_count >= $2`

	tag, err := r.exec(ctx, stmt, id, qty)
	if err != nil {
		return fmt.Errorf("release tickets: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release %d tickets for event %d: nothing to release", qty, id)
	}
	return nil
}

func (r *PurchaseRepository) CreatePurchase(ctx context.Context, rec domain.PurchaseRecord) error {
	const stmt = `
INSERT INTO purchases (id, event_id, quantity, payer, denomination, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		rec.ID,
		rec.EventID,
		rec.Quantity,
		rec.Payer,
		string(rec.Denomination),
		rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("purchase %s already recorded", rec.ID)
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error) {
	const query = `
SELECT id, event_id, quantity, payer, denomination, created_at
FROM purchases
WHERE event_id = $1
ORDER BY created_at, id`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PurchaseRecord, 0)
	for rows.Next() {
		var rec domain.PurchaseRecord
		var denom string
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Quantity, &rec.Payer, &denom, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		rec.Denomination = domain.Denomination(denom)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return out, nil
}

func (r *PurchaseRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PurchaseRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *PurchaseRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onsale/marketplace/internal/domain"
)

const eventColumns = `id, sold_count, capacity, price_native, price_token`

// CatalogRepository owns the events table, the dense event-id counter
// and the catalog-wide settings.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// CreateEvent assigns the next dense event id. The counter row is
// locked FOR UPDATE so concurrent creates serialize and ids stay dense.
func (r *CatalogRepository) CreateEvent(ctx context.Context, capacity, priceNative, priceToken uint64) (domain.Event, error) {
	var ev domain.Event
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		var id uint64
		if err := r.queryRow(txCtx, `SELECT next_event_id FROM catalog_counter FOR UPDATE`).Scan(&id); err != nil {
			return fmt.Errorf("lock event counter: %w", err)
		}

		const stmt = `
INSERT INTO events (id, sold_count, capacity, price_native, price_token)
VALUES ($1, 0, $2, $3, $4)`
		if _, err := r.exec(txCtx, stmt, id, capacity, priceNative, priceToken); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		if _, err := r.exec(txCtx, `UPDATE catalog_counter SET next_event_id = $1`, id+1); err != nil {
			return fmt.Errorf("advance event counter: %w", err)
		}

		ev = domain.Event{
			ID:          id,
			Capacity:    capacity,
			PriceNative: priceNative,
			PriceToken:  priceToken,
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return ev, nil
}

func (r *CatalogRepository) GetEvent(ctx context.Context, id uint64) (domain.Event, error) {
	var ev domain.Event
	err := r.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id).
		Scan(&ev.ID, &ev.SoldCount, &ev.Capacity, &ev.PriceNative, &ev.PriceToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.SoldCount, &ev.Capacity, &ev.PriceNative, &ev.PriceToken); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// SetCapacity applies the monotonic-increase rule in a single
// conditional UPDATE, so a concurrent purchase and a capacity change
// on the same event serialize on the row.
func (r *CatalogRepository) SetCapacity(ctx context.Context, id, newCapacity uint64) (domain.Event, error) {
	const stmt = `
UPDATE events SET capacity = $2
WHERE id = $1 AND capacity <= $2
RETURNING ` + eventColumns

	var ev domain.Event
	err := r.queryRow(ctx, stmt, id, newCapacity).
		Scan(&ev.ID, &ev.SoldCount, &ev.Capacity, &ev.PriceNative, &ev.PriceToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			if _, getErr := r.GetEvent(ctx, id); getErr != nil {
				return domain.Event{}, getErr
			}
			return domain.Event{}, domain.ErrCapacityDecrease
		}
		return domain.Event{}, fmt.Errorf("set capacity: %w", err)
	}
	return ev, nil
}

func (r *CatalogRepository) SetPrice(ctx context.Context, id uint64, denom domain.Denomination, price uint64) (domain.Event, error) {
	column := "price_native"
	if denom == domain.DenominationToken {
		column = "price_token"
	}
	stmt := `UPDATE events SET ` + column + ` = $2 WHERE id = $1 RETURNING ` + eventColumns

	var ev domain.Event
	err := r.queryRow(ctx, stmt, id, price).
		Scan(&ev.ID, &ev.SoldCount, &ev.Capacity, &ev.PriceNative, &ev.PriceToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("set price: %w", err)
	}
	return ev, nil
}

func (r *CatalogRepository) SaveTokenAddress(ctx context.Context, addr string) error {
	const stmt = `
INSERT INTO settings (key, value, updated_at) VALUES ('settlement_token_address', $1, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.exec(ctx, stmt, addr); err != nil {
		return fmt.Errorf("save token address: %w", err)
	}
	return nil
}

func (r *CatalogRepository) LoadTokenAddress(ctx context.Context) (string, error) {
	var addr string
	err := r.queryRow(ctx, `SELECT value FROM settings WHERE key = 'settlement_token_address'`).Scan(&addr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("load token address: %w", err)
	}
	return addr, nil
}

func (r *CatalogRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CatalogRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *CatalogRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

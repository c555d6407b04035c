package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/onsale/marketplace/internal/domain"
)

// AllocationStore is the allocation surface the decorator sits in
// front of.
type AllocationStore interface {
	Reserve(ctx context.Context, id, qty uint64) (domain.Event, error)
	Release(ctx context.Context, id, qty uint64) error
	CreatePurchase(ctx context.Context, rec domain.PurchaseRecord) error
	ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error)
}

// Allocation invalidates cached event reads when reservations change
// the sold count. Reservations themselves always hit the store: the
// allocation path must never act on a stale snapshot.
type Allocation struct {
	store  AllocationStore
	cache  *Redis
	logger logrus.FieldLogger
}

func NewAllocation(store AllocationStore, cache *Redis, logger logrus.FieldLogger) *Allocation {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Allocation{store: store, cache: cache, logger: logger}
}

func (a *Allocation) Reserve(ctx context.Context, id, qty uint64) (domain.Event, error) {
	ev, err := a.store.Reserve(ctx, id, qty)
	if err != nil {
		return domain.Event{}, err
	}
	a.invalidate(ctx, id)
	return ev, nil
}

func (a *Allocation) Release(ctx context.Context, id, qty uint64) error {
	if err := a.store.Release(ctx, id, qty); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

func (a *Allocation) CreatePurchase(ctx context.Context, rec domain.PurchaseRecord) error {
	return a.store.CreatePurchase(ctx, rec)
}

func (a *Allocation) ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error) {
	return a.store.ListPurchases(ctx, eventID)
}

func (a *Allocation) invalidate(ctx context.Context, id uint64) {
	if err := a.cache.Delete(ctx, eventKey(id), eventListKey); err != nil {
		a.logger.WithError(err).Warn("cache invalidation")
	}
}

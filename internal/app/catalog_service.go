package app

import (
	"context"

	"github.com/onsale/marketplace/internal/domain"
)

// CatalogReader is the read-only catalog surface.
type CatalogReader interface {
	GetEvent(ctx context.Context, id uint64) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// PurchaseReader lists the audit trail for an event.
type PurchaseReader interface {
	ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error)
}

// CatalogService is the public read facade.
type CatalogService struct {
	events    CatalogReader
	purchases PurchaseReader
}

func NewCatalogService(events CatalogReader, purchases PurchaseReader) *CatalogService {
	return &CatalogService{
		events:    events,
		purchases: purchases,
	}
}

func (s *CatalogService) GetEvent(ctx context.Context, id uint64) (domain.Event, error) {
	return s.events.GetEvent(ctx, id)
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.events.ListEvents(ctx)
}

func (s *CatalogService) ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.purchases.ListPurchases(ctx, eventID)
}

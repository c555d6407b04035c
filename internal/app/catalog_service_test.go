package app

import (
	"context"
	"testing"

	"github.com/onsale/marketplace/internal/domain"
	"github.com/onsale/marketplace/internal/storage/memory"
)

func TestCatalogService_Reads(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()
	ev, err := store.CreateEvent(ctx, 100, 10, 5)
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	if err := store.CreatePurchase(ctx, domain.PurchaseRecord{ID: "p1", EventID: ev.ID, Quantity: 2, Payer: "alice", Denomination: domain.DenominationNative}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	svc := NewCatalogService(store, store)

	got, err := svc.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got != ev {
		t.Fatalf("unexpected event: %+v", got)
	}

	events, err := svc.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	recs, err := svc.ListPurchases(ctx, ev.ID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "p1" {
		t.Fatalf("unexpected purchases: %+v", recs)
	}

	if _, err := svc.GetEvent(ctx, 42); err != domain.ErrEventNotFound {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := svc.ListPurchases(ctx, 42); err != domain.ErrEventNotFound {
		t.Fatalf("expected ErrEventNotFound for purchases of unknown event, got %v", err)
	}
}

package observe

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestLogPublisher_Publish(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	publisher := NewLogPublisher(logger)

	err := publisher.Publish(context.Background(), TicketsBought{
		EventID:      3,
		Quantity:     2,
		Denomination: "native",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(hook.Entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(hook.Entries))
	}
	entry := hook.LastEntry()
	if entry.Level != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", entry.Level)
	}
	if entry.Data["type"] != "tickets_bought" {
		t.Fatalf("expected type tickets_bought, got %v", entry.Data["type"])
	}
}

func TestObservationKinds(t *testing.T) {
	t.Parallel()

	kinds := map[string]Observation{
		"event_created":           EventCreated{},
		"max_tickets_update":      MaxTicketsUpdate{},
		"price_update":            PriceUpdate{},
		"tickets_bought":          TicketsBought{},
		"settlement_token_update": SettlementTokenUpdate{},
	}
	for want, o := range kinds {
		if got := o.Kind(); got != want {
			t.Fatalf("expected kind %s, got %s", want, got)
		}
	}
}

package observe

import (
	"context"

	"github.com/onsale/marketplace/internal/domain"
)

// Observation is a fact about a committed catalog or allocation change,
// emitted for external consumers such as indexers.
type Observation interface {
	Kind() string
}

// Publisher delivers observations. Delivery failures are reported to
// the caller, which logs and continues: observations never gate an
// operation's outcome.
type Publisher interface {
	Publish(ctx context.Context, o Observation) error
}

type EventCreated struct {
	EventID     uint64 `json:"event_id"`
	Capacity    uint64 `json:"capacity"`
	PriceNative uint64 `json:"price_native"`
	PriceToken  uint64 `json:"price_token"`
}

func (EventCreated) Kind() string { return "event_created" }

type MaxTicketsUpdate struct {
	EventID     uint64 `json:"event_id"`
	NewCapacity uint64 `json:"new_capacity"`
}

func (MaxTicketsUpdate) Kind() string { return "max_tickets_update" }

type PriceUpdate struct {
	EventID      uint64              `json:"event_id"`
	NewPrice     uint64              `json:"new_price"`
	Denomination domain.Denomination `json:"denomination"`
}

func (PriceUpdate) Kind() string { return "price_update" }

type TicketsBought struct {
	EventID      uint64              `json:"event_id"`
	Quantity     uint64              `json:"quantity"`
	Denomination domain.Denomination `json:"denomination"`
}

func (TicketsBought) Kind() string { return "tickets_bought" }

type SettlementTokenUpdate struct {
	NewAddress string `json:"new_address"`
}

func (SettlementTokenUpdate) Kind() string { return "settlement_token_update" }

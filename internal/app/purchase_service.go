package app

import (
	"context"
	"math/bits"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/onsale/marketplace/internal/clock"
	"github.com/onsale/marketplace/internal/credential"
	"github.com/onsale/marketplace/internal/domain"
	"github.com/onsale/marketplace/internal/observe"
	"github.com/onsale/marketplace/internal/settlement"
)

// AllocationStore provides the atomic reservation primitives the
// purchase path builds on.
type AllocationStore interface {
	Reserve(ctx context.Context, eventID, qty uint64) (domain.Event, error)
	Release(ctx context.Context, eventID, qty uint64) error
	CreatePurchase(ctx context.Context, rec domain.PurchaseRecord) error
}

// PurchaseService is the allocation engine. It reserves inventory
// before any external call and rolls the reservation back if
// settlement or issuance fails, so capacity can never be oversold and
// is never lost to a failed purchase.
type PurchaseService struct {
	store  AllocationStore
	tokens settlement.TokenChannel
	issuer credential.Issuer
	obs    observe.Publisher
	clock  clock.Clock
	logger logrus.FieldLogger

	beneficiary      string
	issuePerPurchase bool
	refundSurplus    bool
}

type PurchaseServiceOption func(*PurchaseService)

// WithBeneficiary sets the identity token payments are pulled to.
func WithBeneficiary(identity string) PurchaseServiceOption {
	return func(s *PurchaseService) {
		s.beneficiary = identity
	}
}

// WithPerPurchaseIssuance mints a single credential per purchase
// instead of one per ticket.
func WithPerPurchaseIssuance() PurchaseServiceOption {
	return func(s *PurchaseService) {
		s.issuePerPurchase = true
	}
}

// WithOverpaymentRefund reports the native-denomination surplus in the
// purchase result so the caller can return it. The default keeps the
// surplus.
func WithOverpaymentRefund() PurchaseServiceOption {
	return func(s *PurchaseService) {
		s.refundSurplus = true
	}
}

func WithPurchaseLogger(logger logrus.FieldLogger) PurchaseServiceOption {
	return func(s *PurchaseService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewPurchaseService(store AllocationStore, tokens settlement.TokenChannel, issuer credential.Issuer, obs observe.Publisher, clk clock.Clock, opts ...PurchaseServiceOption) *PurchaseService {
	svc := &PurchaseService{
		store:       store,
		tokens:      tokens,
		issuer:      issuer,
		obs:         obs,
		clock:       clk,
		logger:      logrus.StandardLogger(),
		beneficiary: "marketplace",
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PurchaseInput struct {
	EventID      uint64
	Quantity     uint64
	Denomination domain.Denomination
	Payer        string
	// Attached is the native-denomination amount the caller supplied
	// with the request. Ignored for token purchases.
	Attached uint64
}

type PurchaseResult struct {
	Record domain.PurchaseRecord
	Event  domain.Event
	// Surplus is the overpaid native amount owed back to the payer.
	// Always zero unless overpayment refunds are enabled.
	Surplus uint64
}

func (s *PurchaseService) Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	if in.Quantity == 0 {
		return PurchaseResult{}, domain.ErrInvalidQuantity
	}
	if in.Payer == "" {
		return PurchaseResult{}, domain.ErrPayerRequired
	}
	denom, ok := domain.ParseDenomination(string(in.Denomination))
	if !ok {
		return PurchaseResult{}, domain.ErrInvalidDenomination
	}

	// Provisional commit: the sold count moves before settlement and
	// issuance, so a concurrent purchase observes the depleted
	// inventory immediately. Every failure path below releases it.
	ev, err := s.store.Reserve(ctx, in.EventID, in.Quantity)
	if err != nil {
		return PurchaseResult{}, err
	}

	required, overflow := mulUint64(ev.PriceFor(denom), in.Quantity)
	if overflow {
		s.release(ctx, in.EventID, in.Quantity)
		return PurchaseResult{}, domain.ErrAmountOverflow
	}

	var surplus uint64
	switch denom {
	case domain.DenominationNative:
		if in.Attached < required {
			s.release(ctx, in.EventID, in.Quantity)
			return PurchaseResult{}, domain.ErrInsufficientPayment
		}
		if s.refundSurplus {
			surplus = in.Attached - required
		}
	case domain.DenominationToken:
		if err := s.tokens.TransferFrom(ctx, in.Payer, s.beneficiary, required); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": in.EventID,
				"payer":    in.Payer,
			}).Warn("token transfer failed")
			s.release(ctx, in.EventID, in.Quantity)
			return PurchaseResult{}, domain.ErrPaymentTransferFailed
		}
	}

	issueCount := in.Quantity
	if s.issuePerPurchase {
		issueCount = 1
	}
	for i := uint64(0); i < issueCount; i++ {
		if err := s.issuer.Issue(ctx, in.Payer, in.EventID); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": in.EventID,
				"payer":    in.Payer,
			}).Warn("credential issuance failed")
			s.release(ctx, in.EventID, in.Quantity)
			return PurchaseResult{}, domain.ErrIssuanceFailed
		}
	}

	rec := domain.PurchaseRecord{
		ID:           uuid.NewString(),
		EventID:      in.EventID,
		Quantity:     in.Quantity,
		Payer:        in.Payer,
		Denomination: denom,
		CreatedAt:    s.clock.Now(),
	}
	// The audit record is observational; a write failure must not fail
	// a purchase that already settled and issued.
	if err := s.store.CreatePurchase(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("event_id", in.EventID).Warn("record purchase")
	}

	s.publish(ctx, observe.TicketsBought{
		EventID:      in.EventID,
		Quantity:     in.Quantity,
		Denomination: denom,
	})

	return PurchaseResult{Record: rec, Event: ev, Surplus: surplus}, nil
}

func (s *PurchaseService) release(ctx context.Context, eventID, qty uint64) {
	if err := s.store.Release(ctx, eventID, qty); err != nil {
		s.logger.WithError(err).WithField("event_id", eventID).Error("release reserved tickets")
	}
}

func (s *PurchaseService) publish(ctx context.Context, o observe.Observation) {
	if err := s.obs.Publish(ctx, o); err != nil {
		s.logger.WithError(err).WithField("type", o.Kind()).Warn("publish observation")
	}
}

func mulUint64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi != 0
}

package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/onsale/marketplace/internal/auth"
	"github.com/onsale/marketplace/internal/domain"
	"github.com/onsale/marketplace/internal/observe"
)

// AdminStore is the catalog surface the administration service mutates.
type AdminStore interface {
	CreateEvent(ctx context.Context, capacity, priceNative, priceToken uint64) (domain.Event, error)
	SetCapacity(ctx context.Context, eventID, newCapacity uint64) (domain.Event, error)
	SetPrice(ctx context.Context, eventID uint64, denom domain.Denomination, price uint64) (domain.Event, error)
	SaveTokenAddress(ctx context.Context, addr string) error
}

// SettlementRepointer swaps the live token settlement target when the
// administrator updates the settlement token address.
type SettlementRepointer interface {
	Repoint(addr string)
}

// AdminService gates every catalog mutation behind the administrator
// capability. Authorization failures never reach the store.
type AdminService struct {
	store   AdminStore
	policy  auth.Policy
	obs     observe.Publisher
	repoint SettlementRepointer
	logger  logrus.FieldLogger
}

type AdminServiceOption func(*AdminService)

// WithSettlementRepointer wires the live token channel so address
// updates take effect without a restart.
func WithSettlementRepointer(r SettlementRepointer) AdminServiceOption {
	return func(s *AdminService) {
		s.repoint = r
	}
}

func WithAdminLogger(logger logrus.FieldLogger) AdminServiceOption {
	return func(s *AdminService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewAdminService(store AdminStore, policy auth.Policy, obs observe.Publisher, opts ...AdminServiceOption) *AdminService {
	svc := &AdminService{
		store:  store,
		policy: policy,
		obs:    obs,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateEventInput struct {
	Capacity    uint64
	PriceNative uint64
	PriceToken  uint64
}

func (s *AdminService) CreateEvent(ctx context.Context, caller string, in CreateEventInput) (domain.Event, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return domain.Event{}, err
	}
	if in.Capacity == 0 {
		return domain.Event{}, domain.ErrInvalidCapacity
	}

	ev, err := s.store.CreateEvent(ctx, in.Capacity, in.PriceNative, in.PriceToken)
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, observe.EventCreated{
		EventID:     ev.ID,
		Capacity:    ev.Capacity,
		PriceNative: ev.PriceNative,
		PriceToken:  ev.PriceToken,
	})
	return ev, nil
}

func (s *AdminService) SetCapacity(ctx context.Context, caller string, eventID, newCapacity uint64) (domain.Event, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return domain.Event{}, err
	}

	ev, err := s.store.SetCapacity(ctx, eventID, newCapacity)
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, observe.MaxTicketsUpdate{
		EventID:     ev.ID,
		NewCapacity: ev.Capacity,
	})
	return ev, nil
}

func (s *AdminService) SetPrice(ctx context.Context, caller string, eventID uint64, denom domain.Denomination, price uint64) (domain.Event, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return domain.Event{}, err
	}
	if _, ok := domain.ParseDenomination(string(denom)); !ok {
		return domain.Event{}, domain.ErrInvalidDenomination
	}

	ev, err := s.store.SetPrice(ctx, eventID, denom, price)
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, observe.PriceUpdate{
		EventID:      ev.ID,
		NewPrice:     price,
		Denomination: denom,
	})
	return ev, nil
}

// SetSettlementToken persists the new token settlement address and
// repoints the live channel.
func (s *AdminService) SetSettlementToken(ctx context.Context, caller, addr string) error {
	if err := s.policy.Authorize(caller); err != nil {
		return err
	}
	if addr == "" {
		return domain.ErrAddressRequired
	}

	if err := s.store.SaveTokenAddress(ctx, addr); err != nil {
		return err
	}
	if s.repoint != nil {
		s.repoint.Repoint(addr)
	}

	s.publish(ctx, observe.SettlementTokenUpdate{NewAddress: addr})
	return nil
}

func (s *AdminService) publish(ctx context.Context, o observe.Observation) {
	if err := s.obs.Publish(ctx, o); err != nil {
		s.logger.WithError(err).WithField("type", o.Kind()).Warn("publish observation")
	}
}

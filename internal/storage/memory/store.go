// Package memory is an in-process store used in tests and single-node
// development deployments. Each event carries its own mutex so
// reservations on one event never block another.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/onsale/marketplace/internal/domain"
)

type eventSlot struct {
	mu sync.Mutex
	ev domain.Event
}

type Store struct {
	mu     sync.RWMutex
	nextID uint64
	events map[uint64]*eventSlot

	pmu       sync.Mutex
	purchases []domain.PurchaseRecord

	smu       sync.RWMutex
	tokenAddr string
}

func NewStore() *Store {
	return &Store{
		events: make(map[uint64]*eventSlot),
	}
}

// CreateEvent allocates the next dense event id, starting at 0.
func (s *Store) CreateEvent(_ context.Context, capacity, priceNative, priceToken uint64) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := domain.Event{
		ID:          s.nextID,
		Capacity:    capacity,
		PriceNative: priceNative,
		PriceToken:  priceToken,
	}
	s.events[ev.ID] = &eventSlot{ev: ev}
	s.nextID++
	return ev, nil
}

func (s *Store) slot(id uint64) (*eventSlot, error) {
	s.mu.RLock()
	slot, ok := s.events[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return slot, nil
}

func (s *Store) GetEvent(_ context.Context, id uint64) (domain.Event, error) {
	slot, err := s.slot(id)
	if err != nil {
		return domain.Event{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.ev, nil
}

func (s *Store) ListEvents(_ context.Context) ([]domain.Event, error) {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := s.GetEvent(context.Background(), id)
		if err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Store) SetCapacity(_ context.Context, id, newCapacity uint64) (domain.Event, error) {
	slot, err := s.slot(id)
	if err != nil {
		return domain.Event{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if newCapacity < slot.ev.Capacity {
		return domain.Event{}, domain.ErrCapacityDecrease
	}
	slot.ev.Capacity = newCapacity
	return slot.ev, nil
}

func (s *Store) SetPrice(_ context.Context, id uint64, denom domain.Denomination, price uint64) (domain.Event, error) {
	slot, err := s.slot(id)
	if err != nil {
		return domain.Event{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if denom == domain.DenominationToken {
		slot.ev.PriceToken = price
	} else {
		slot.ev.PriceNative = price
	}
	return slot.ev, nil
}

// Reserve atomically allocates qty tickets. The slot mutex makes the
// read-check-write a single step, so concurrent reservations on the
// same event serialize and can never exceed capacity.
func (s *Store) Reserve(_ context.Context, id, qty uint64) (domain.Event, error) {
	slot, err := s.slot(id)
	if err != nil {
		return domain.Event{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if qty > slot.ev.Capacity-slot.ev.SoldCount {
		return domain.Event{}, domain.ErrSoldOut
	}
	slot.ev.SoldCount += qty
	return slot.ev, nil
}

// Release undoes a provisional reservation. It never drives the sold
// count below zero.
func (s *Store) Release(_ context.Context, id, qty uint64) error {
	slot, err := s.slot(id)
	if err != nil {
		return err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if qty > slot.ev.SoldCount {
		return fmt.Errorf("release %d tickets for event %d: only %d sold", qty, id, slot.ev.SoldCount)
	}
	slot.ev.SoldCount -= qty
	return nil
}

func (s *Store) CreatePurchase(_ context.Context, rec domain.PurchaseRecord) error {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	s.purchases = append(s.purchases, rec)
	return nil
}

func (s *Store) ListPurchases(_ context.Context, eventID uint64) ([]domain.PurchaseRecord, error) {
	s.pmu.Lock()
	defer s.pmu.Unlock()

	out := make([]domain.PurchaseRecord, 0)
	for _, rec := range s.purchases {
		if rec.EventID == eventID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) SaveTokenAddress(_ context.Context, addr string) error {
	s.smu.Lock()
	defer s.smu.Unlock()
	s.tokenAddr = addr
	return nil
}

func (s *Store) LoadTokenAddress(_ context.Context) (string, error) {
	s.smu.RLock()
	defer s.smu.RUnlock()
	return s.tokenAddr, nil
}

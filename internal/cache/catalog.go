package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/onsale/marketplace/internal/domain"
)

// CatalogStore is the catalog surface the decorator sits in front of.
type CatalogStore interface {
	CreateEvent(ctx context.Context, capacity, priceNative, priceToken uint64) (domain.Event, error)
	GetEvent(ctx context.Context, id uint64) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	SetCapacity(ctx context.Context, id, newCapacity uint64) (domain.Event, error)
	SetPrice(ctx context.Context, id uint64, denom domain.Denomination, price uint64) (domain.Event, error)
	SaveTokenAddress(ctx context.Context, addr string) error
	LoadTokenAddress(ctx context.Context) (string, error)
}

func eventKey(id uint64) string {
	return fmt.Sprintf("event:%d", id)
}

const eventListKey = "events:all"

// Catalog is a read-through catalog decorator. Reads try redis first;
// every mutation delegates and then invalidates the touched keys.
type Catalog struct {
	store  CatalogStore
	cache  *Redis
	logger logrus.FieldLogger
}

func NewCatalog(store CatalogStore, cache *Redis, logger logrus.FieldLogger) *Catalog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Catalog{store: store, cache: cache, logger: logger}
}

func (c *Catalog) GetEvent(ctx context.Context, id uint64) (domain.Event, error) {
	var ev domain.Event
	err := c.cache.Get(ctx, eventKey(id), &ev)
	if err == nil {
		return ev, nil
	}
	if err != redis.Nil {
		c.logger.WithError(err).Warn("event cache read")
	}

	ev, err = c.store.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if err := c.cache.Set(ctx, eventKey(id), ev); err != nil {
		c.logger.WithError(err).Warn("event cache write")
	}
	return ev, nil
}

func (c *Catalog) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := c.cache.Get(ctx, eventListKey, &events)
	if err == nil {
		return events, nil
	}
	if err != redis.Nil {
		c.logger.WithError(err).Warn("event list cache read")
	}

	events, err = c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, eventListKey, events); err != nil {
		c.logger.WithError(err).Warn("event list cache write")
	}
	return events, nil
}

func (c *Catalog) CreateEvent(ctx context.Context, capacity, priceNative, priceToken uint64) (domain.Event, error) {
	ev, err := c.store.CreateEvent(ctx, capacity, priceNative, priceToken)
	if err != nil {
		return domain.Event{}, err
	}
	c.invalidate(ctx, eventListKey)
	return ev, nil
}

func (c *Catalog) SetCapacity(ctx context.Context, id, newCapacity uint64) (domain.Event, error) {
	ev, err := c.store.SetCapacity(ctx, id, newCapacity)
	if err != nil {
		return domain.Event{}, err
	}
	c.invalidate(ctx, eventKey(id), eventListKey)
	return ev, nil
}

func (c *Catalog) SetPrice(ctx context.Context, id uint64, denom domain.Denomination, price uint64) (domain.Event, error) {
	ev, err := c.store.SetPrice(ctx, id, denom, price)
	if err != nil {
		return domain.Event{}, err
	}
	c.invalidate(ctx, eventKey(id), eventListKey)
	return ev, nil
}

func (c *Catalog) SaveTokenAddress(ctx context.Context, addr string) error {
	return c.store.SaveTokenAddress(ctx, addr)
}

func (c *Catalog) LoadTokenAddress(ctx context.Context) (string, error) {
	return c.store.LoadTokenAddress(ctx)
}

func (c *Catalog) invalidate(ctx context.Context, keys ...string) {
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.WithError(err).Warn("cache invalidation")
	}
}

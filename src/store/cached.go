package store

import (
	"context"
	"slices"

	"fintrack-server/src/cache"
	"fintrack-server/src/events"
	"fintrack-server/src/models"
)

// Cached serves list reads from the query cache. Every successful mutation is
// published on the broker, and every event the broker sees, local or remote,
// invalidates the matching cache key.
type Cached struct {
	inner        Store
	cache        *cache.QueryCache
	broker       *events.Broker
	users        *cachedUsers
	transactions *cachedCollection[models.Transaction]
	categories   *cachedCollection[models.Category]
	budgets      *cachedCollection[models.Budget]
	unsubscribe  func()
}

func NewCached(inner Store, qc *cache.QueryCache, broker *events.Broker) *Cached {
	c := &Cached{
		inner:  inner,
		cache:  qc,
		broker: broker,
		users:  &cachedUsers{inner: inner.Users(), cache: qc, broker: broker},
		transactions: &cachedCollection[models.Transaction]{
			inner: inner.Transactions(), entity: models.EntityTransactions, cache: qc, broker: broker,
		},
		categories: &cachedCollection[models.Category]{
			inner: inner.Categories(), entity: models.EntityCategories, cache: qc, broker: broker,
		},
		budgets: &cachedCollection[models.Budget]{
			inner: inner.Budgets(), entity: models.EntityBudgets, cache: qc, broker: broker,
		},
	}
	c.unsubscribe = broker.SubscribeAll(func(e events.Event) {
		if e.Entity == models.EntityUsers && e.Op == events.OpDeleted {
			qc.InvalidateUser(e.UserID)
			return
		}
		qc.Invalidate(e.Key())
	})
	return c
}

func (c *Cached) Users() Users                                 { return c.users }
func (c *Cached) Transactions() Collection[models.Transaction] { return c.transactions }
func (c *Cached) Categories() Collection[models.Category]     { return c.categories }
func (c *Cached) Budgets() Collection[models.Budget]           { return c.budgets }
func (c *Cached) Ping(ctx context.Context) error               { return c.inner.Ping(ctx) }

func (c *Cached) Close() error {
	c.unsubscribe()
	return c.inner.Close()
}

type cachedCollection[T models.Owned] struct {
	inner  Collection[T]
	entity models.Entity
	cache  *cache.QueryCache
	broker *events.Broker
}

func (c *cachedCollection[T]) key(userID string) models.EntityKey {
	return models.EntityKey{Entity: c.entity, UserID: userID}
}

func (c *cachedCollection[T]) List(ctx context.Context, userID string) ([]T, error) {
	items, err := cache.Fetch(ctx, c.cache, c.key(userID), func(ctx context.Context) ([]T, error) {
		return c.inner.List(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (c *cachedCollection[T]) Create(ctx context.Context, item T) (T, error) {
	created, err := c.inner.Create(ctx, item)
	if err != nil {
		return created, err
	}
	c.publish(ctx, events.OpCreated, created)
	return created, nil
}

func (c *cachedCollection[T]) Update(ctx context.Context, item T) (T, error) {
	updated, err := c.inner.Update(ctx, item)
	if err != nil {
		return updated, err
	}
	c.publish(ctx, events.OpUpdated, updated)
	return updated, nil
}

func (c *cachedCollection[T]) Delete(ctx context.Context, userID, id string) error {
	if err := c.inner.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.broker.Publish(ctx, events.Event{Entity: c.entity, UserID: userID, Op: events.OpDeleted, RecordID: id})
	return nil
}

func (c *cachedCollection[T]) publish(ctx context.Context, op events.Op, item T) {
	c.broker.Publish(ctx, events.Event{Entity: c.entity, UserID: item.OwnerID(), Op: op, RecordID: item.RecordID()})
}

// cachedUsers does not cache reads; it only announces changes.
type cachedUsers struct {
	inner  Users
	cache  *cache.QueryCache
	broker *events.Broker
}

func (u *cachedUsers) Create(ctx context.Context, rec models.UserRecord) (models.UserRecord, error) {
	return u.inner.Create(ctx, rec)
}

func (u *cachedUsers) Get(ctx context.Context, id string) (models.UserRecord, error) {
	return u.inner.Get(ctx, id)
}

func (u *cachedUsers) GetByEmail(ctx context.Context, email string) (models.UserRecord, error) {
	return u.inner.GetByEmail(ctx, email)
}

func (u *cachedUsers) Update(ctx context.Context, user models.User) (models.UserRecord, error) {
	rec, err := u.inner.Update(ctx, user)
	if err != nil {
		return rec, err
	}
	u.broker.Publish(ctx, events.Event{Entity: models.EntityUsers, UserID: rec.ID, Op: events.OpUpdated, RecordID: rec.ID})
	return rec, nil
}

func (u *cachedUsers) Delete(ctx context.Context, id string) error {
	if err := u.inner.Delete(ctx, id); err != nil {
		return err
	}
	u.broker.Publish(ctx, events.Event{Entity: models.EntityUsers, UserID: id, Op: events.OpDeleted, RecordID: id})
	return nil
}

package client

import (
	"context"
	"slices"
	"sync"

	"fintrack-server/src/cache"
	"fintrack-server/src/events"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
)

type LoadState int

const (
	// Idle means the query is disabled: no user id, so nothing was requested.
	Idle LoadState = iota
	Loading
	Error
	Ready
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

// Query is one read result. Exactly one of Err and Data is meaningful,
// according to State.
type Query[T any] struct {
	State LoadState
	Data  T
	Err   error
}

type record interface {
	models.Owned
	Validate() error
}

// Store is the client-side query store. Reads are cached per (entity, user)
// and de-duplicated; mutations invalidate the key and notify subscribers.
type Store struct {
	Transactions *Collection[models.Transaction]
	Categories   *Collection[models.Category]
	Budgets      *Collection[models.Budget]

	cache       *cache.QueryCache
	broker      *events.Broker
	unsubscribe func()
}

// NewStore wraps three remote collections. Pass a *REST's collections in
// production; any store.Collection works.
func NewStore(
	transactions store.Collection[models.Transaction],
	categories store.Collection[models.Category],
	budgets store.Collection[models.Budget],
	qc *cache.QueryCache,
	broker *events.Broker,
) *Store {
	s := &Store{
		Transactions: newCollection(models.EntityTransactions, transactions, qc, broker),
		Categories:   newCollection(models.EntityCategories, categories, qc, broker),
		Budgets:      newCollection(models.EntityBudgets, budgets, qc, broker),
		cache:        qc,
		broker:       broker,
	}
	s.unsubscribe = broker.SubscribeAll(func(e events.Event) {
		qc.Invalidate(e.Key())
	})
	return s
}

func NewRESTStore(api *REST, qc *cache.QueryCache, broker *events.Broker) *Store {
	return NewStore(api.Transactions(), api.Categories(), api.Budgets(), qc, broker)
}

// Reset forgets every cached read, as on logout.
func (s *Store) Reset() {
	s.cache.Clear()
	s.Transactions.reset()
	s.Categories.reset()
	s.Budgets.reset()
}

func (s *Store) Close() {
	s.unsubscribe()
}

// Collection is one cached entity.
type Collection[T record] struct {
	entity models.Entity
	remote store.Collection[T]
	cache  *cache.QueryCache
	broker *events.Broker

	mu       sync.Mutex
	inflight map[string]int
	last     map[string]LoadState
}

func newCollection[T record](entity models.Entity, remote store.Collection[T], qc *cache.QueryCache, broker *events.Broker) *Collection[T] {
	return &Collection[T]{
		entity:   entity,
		remote:   remote,
		cache:    qc,
		broker:   broker,
		inflight: make(map[string]int),
		last:     make(map[string]LoadState),
	}
}

func (c *Collection[T]) key(userID string) models.EntityKey {
	return models.EntityKey{Entity: c.entity, UserID: userID}
}

// Fetch lists userID's records. An empty userID disables the query.
func (c *Collection[T]) Fetch(ctx context.Context, userID string) Query[[]T] {
	if userID == "" {
		return Query[[]T]{State: Idle}
	}

	c.begin(userID)
	items, err := cache.Fetch(ctx, c.cache, c.key(userID), func(ctx context.Context) ([]T, error) {
		return c.remote.List(ctx, userID)
	})
	if err != nil {
		c.end(userID, Error)
		return Query[[]T]{State: Error, Err: err}
	}
	c.end(userID, Ready)
	return Query[[]T]{State: Ready, Data: slices.Clone(items)}
}

// State reports Loading while a fetch for userID is running, otherwise the
// outcome of the last one.
func (c *Collection[T]) State(userID string) LoadState {
	if userID == "" {
		return Idle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[userID] > 0 {
		return Loading
	}
	return c.last[userID]
}

func (c *Collection[T]) begin(userID string) {
	c.mu.Lock()
	c.inflight[userID]++
	c.mu.Unlock()
}

func (c *Collection[T]) end(userID string, state LoadState) {
	c.mu.Lock()
	c.inflight[userID]--
	c.last[userID] = state
	c.mu.Unlock()
}

func (c *Collection[T]) reset() {
	c.mu.Lock()
	c.last = make(map[string]LoadState)
	c.mu.Unlock()
}

// Create validates locally before any request is made.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	if err := item.Validate(); err != nil {
		return item, err
	}
	created, err := c.remote.Create(ctx, item)
	if err != nil {
		return created, err
	}
	c.changed(ctx, events.OpCreated, created.OwnerID(), created.RecordID())
	return created, nil
}

func (c *Collection[T]) Update(ctx context.Context, item T) (T, error) {
	if err := item.Validate(); err != nil {
		return item, err
	}
	updated, err := c.remote.Update(ctx, item)
	if err != nil {
		return updated, err
	}
	c.changed(ctx, events.OpUpdated, updated.OwnerID(), updated.RecordID())
	return updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	if err := c.remote.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.changed(ctx, events.OpDeleted, userID, id)
	return nil
}

// Subscribe calls fn after every change to userID's records.
func (c *Collection[T]) Subscribe(userID string, fn func(events.Event)) (unsubscribe func()) {
	return c.broker.Subscribe(c.key(userID), fn)
}

func (c *Collection[T]) changed(ctx context.Context, op events.Op, userID, id string) {
	c.broker.Publish(ctx, events.Event{Entity: c.entity, UserID: userID, Op: op, RecordID: id})
}

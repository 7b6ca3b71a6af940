package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fintrack-server/src/models"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	MaxItems int64
	TTL      time.Duration
}

// QueryCache holds list reads keyed by (entity, user id).
//
// Keys are tracked per entity so a whole kind can be cleared at once, and each
// key carries a generation that Invalidate bumps. A load that started before an
// invalidation is returned to its callers but never stored.
type QueryCache struct {
	store *ristretto.Cache
	ttl   time.Duration
	group singleflight.Group

	mu    sync.Mutex
	epoch uint64
	gens  map[models.EntityKey]uint64
	keys  map[models.Entity]map[models.EntityKey]struct{}
}

func New(cfg Config) (*QueryCache, error) {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10000
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.MaxItems * 10, // number of keys to track frequency of
		MaxCost:            cfg.MaxItems,
		BufferItems:        64, // number of keys per Get buffer
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &QueryCache{
		store: store,
		ttl:   cfg.TTL,
		gens:  make(map[models.EntityKey]uint64),
		keys:  make(map[models.Entity]map[models.EntityKey]struct{}),
	}, nil
}

// Fetch returns the cached value for key, or runs load once for all
// concurrent callers of the same key and generation. The shared load is
// detached from any single caller's cancellation; a caller whose ctx ends
// first gets ctx.Err() while the load carries on for the rest.
func Fetch[T any](ctx context.Context, c *QueryCache, key models.EntityKey, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.store.Get(key.String()); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.currentGen(key)
	flight := key.String() + "#" + strconv.FormatUint(gen.epoch, 10) + "." + strconv.FormatUint(gen.key, 10)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		val, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.set(key, gen, val)
		return val, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

type generation struct {
	epoch uint64
	key   uint64
}

func (c *QueryCache) currentGen(key models.EntityKey) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{epoch: c.epoch, key: c.gens[key]}
}

func (c *QueryCache) set(key models.EntityKey, gen generation, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != gen.epoch || c.gens[key] != gen.key {
		return
	}
	kind, ok := c.keys[key.Entity]
	if !ok {
		kind = make(map[models.EntityKey]struct{})
		c.keys[key.Entity] = kind
	}
	kind[key] = struct{}{}
	c.store.SetWithTTL(key.String(), value, 1, c.ttl)
	c.store.Wait()
}

func (c *QueryCache) Invalidate(key models.EntityKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.del(key)
}

func (c *QueryCache) del(key models.EntityKey) {
	c.gens[key]++
	delete(c.keys[key.Entity], key)
	c.store.Del(key.String())
}

// InvalidateUser drops every cached collection belonging to userID.
func (c *QueryCache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entity := range []models.Entity{models.EntityUsers, models.EntityTransactions, models.EntityCategories, models.EntityBudgets} {
		c.del(models.EntityKey{Entity: entity, UserID: userID})
	}
}

// ClearEntity drops every cached collection of one kind.
func (c *QueryCache) ClearEntity(entity models.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.keys[entity] {
		c.del(key)
	}
	c.keys[entity] = make(map[models.EntityKey]struct{})
}

func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.keys = make(map[models.Entity]map[models.EntityKey]struct{})
	c.store.Clear()
}

func (c *QueryCache) Close() {
	c.store.Close()
}

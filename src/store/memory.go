package store

import (
	"context"
	"sync"
	"time"

	"fintrack-server/src/models"

	"github.com/google/uuid"
)

// Memory keeps everything in process. Records list in insertion order.
type Memory struct {
	users        *memoryUsers
	transactions *memoryCollection[models.Transaction]
	categories   *memoryCollection[models.Category]
	budgets      *memoryCollection[models.Budget]
}

func NewMemory() *Memory {
	m := &Memory{
		transactions: newMemoryCollection(func(t *models.Transaction, id string) { t.ID = id }),
		categories: newMemoryCollection(func(c *models.Category, id string) {
			c.ID = id
			c.Normalize()
		}),
		budgets: newMemoryCollection(func(b *models.Budget, id string) { b.ID = id }),
	}
	m.users = &memoryUsers{records: make(map[string]models.UserRecord), owner: m}
	return m
}

func (m *Memory) Users() Users                                 { return m.users }
func (m *Memory) Transactions() Collection[models.Transaction] { return m.transactions }
func (m *Memory) Categories() Collection[models.Category]     { return m.categories }
func (m *Memory) Budgets() Collection[models.Budget]           { return m.budgets }
func (m *Memory) Ping(context.Context) error                   { return nil }
func (m *Memory) Close() error                                 { return nil }

type memoryCollection[T models.Owned] struct {
	mu     sync.RWMutex
	items  map[string]T
	order  []string
	assign func(*T, string)
}

func newMemoryCollection[T models.Owned](assign func(*T, string)) *memoryCollection[T] {
	return &memoryCollection[T]{items: make(map[string]T), assign: assign}
}

func (c *memoryCollection[T]) List(_ context.Context, userID string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []T{}
	for _, id := range c.order {
		if item := c.items[id]; item.OwnerID() == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *memoryCollection[T]) Create(_ context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.assign(&item, id)
	c.items[id] = item
	c.order = append(c.order, id)
	return item, nil
}

func (c *memoryCollection[T]) Update(_ context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.items[item.RecordID()]
	if !ok || existing.OwnerID() != item.OwnerID() {
		var zero T
		return zero, ErrNotFound
	}
	c.assign(&item, item.RecordID())
	c.items[item.RecordID()] = item
	return item, nil
}

func (c *memoryCollection[T]) Delete(_ context.Context, userID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.items[id]
	if !ok || existing.OwnerID() != userID {
		return ErrNotFound
	}
	delete(c.items, id)
	c.order = removeID(c.order, id)
	return nil
}

func (c *memoryCollection[T]) deleteOwner(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	for _, id := range c.order {
		if c.items[id].OwnerID() == userID {
			delete(c.items, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

type memoryUsers struct {
	mu      sync.RWMutex
	records map[string]models.UserRecord
	owner   *Memory
}

func (u *memoryUsers) Create(_ context.Context, rec models.UserRecord) (models.UserRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec.Email = models.NormalizeEmail(rec.Email)
	if u.emailTaken(rec.Email, "") {
		return models.UserRecord{}, ErrConflict
	}
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	u.records[rec.ID] = rec
	return rec, nil
}

func (u *memoryUsers) Get(_ context.Context, id string) (models.UserRecord, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	rec, ok := u.records[id]
	if !ok {
		return models.UserRecord{}, ErrNotFound
	}
	return rec, nil
}

func (u *memoryUsers) GetByEmail(_ context.Context, email string) (models.UserRecord, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	email = models.NormalizeEmail(email)
	for _, rec := range u.records {
		if rec.Email == email {
			return rec, nil
		}
	}
	return models.UserRecord{}, ErrNotFound
}

func (u *memoryUsers) Update(_ context.Context, user models.User) (models.UserRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec, ok := u.records[user.ID]
	if !ok {
		return models.UserRecord{}, ErrNotFound
	}
	user.Email = models.NormalizeEmail(user.Email)
	if u.emailTaken(user.Email, user.ID) {
		return models.UserRecord{}, ErrConflict
	}
	rec.User = user
	u.records[user.ID] = rec
	return rec, nil
}

func (u *memoryUsers) Delete(_ context.Context, id string) error {
	u.mu.Lock()
	if _, ok := u.records[id]; !ok {
		u.mu.Unlock()
		return ErrNotFound
	}
	delete(u.records, id)
	u.mu.Unlock()

	u.owner.transactions.deleteOwner(id)
	u.owner.categories.deleteOwner(id)
	u.owner.budgets.deleteOwner(id)
	return nil
}

func (u *memoryUsers) emailTaken(email, exceptID string) bool {
	for id, rec := range u.records {
		if rec.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

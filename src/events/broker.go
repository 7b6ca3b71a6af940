package events

import (
	"context"
	"sync"
	"time"

	"fintrack-server/src/models"

	"github.com/google/uuid"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event announces that one user's collection changed.
type Event struct {
	Entity   models.Entity `json:"entity"`
	UserID   string        `json:"userId"`
	Op       Op            `json:"op"`
	RecordID string        `json:"recordId,omitempty"`
	Origin   string        `json:"origin"`
	At       time.Time     `json:"at"`
}

func (e Event) Key() models.EntityKey {
	return models.EntityKey{Entity: e.Entity, UserID: e.UserID}
}

type Handler func(Event)

// Forwarder ships locally published events to other processes.
type Forwarder interface {
	Forward(ctx context.Context, e Event) error
}

// Broker fans change events out to subscribers keyed by (entity, user id).
// Handlers run synchronously on the publishing goroutine, outside the lock.
type Broker struct {
	origin string

	mu        sync.RWMutex
	nextID    int
	byKey     map[models.EntityKey]map[int]Handler
	all       map[int]Handler
	forwarder Forwarder
	onForward func(error)
}

func NewBroker() *Broker {
	return &Broker{
		origin: uuid.NewString(),
		byKey:  make(map[models.EntityKey]map[int]Handler),
		all:    make(map[int]Handler),
	}
}

// Origin identifies this broker on events it publishes.
func (b *Broker) Origin() string {
	return b.origin
}

// SetForwarder installs f for events published locally; onErr, if set,
// receives forwarding failures.
func (b *Broker) SetForwarder(f Forwarder, onErr func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarder = f
	b.onForward = onErr
}

func (b *Broker) Subscribe(key models.EntityKey, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	subs, ok := b.byKey[key]
	if !ok {
		subs = make(map[int]Handler)
		b.byKey[key] = subs
	}
	subs[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.byKey[key], id)
		if len(b.byKey[key]) == 0 {
			delete(b.byKey, key)
		}
	}
}

// SubscribeAll receives every event regardless of key.
func (b *Broker) SubscribeAll(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.all[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers e locally and forwards it when a forwarder is installed.
func (b *Broker) Publish(ctx context.Context, e Event) {
	if e.Origin == "" {
		e.Origin = b.origin
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.Deliver(e)

	b.mu.RLock()
	f, onErr := b.forwarder, b.onForward
	b.mu.RUnlock()
	if f == nil || e.Origin != b.origin {
		return
	}
	if err := f.Forward(ctx, e); err != nil && onErr != nil {
		onErr(err)
	}
}

// Deliver runs local handlers only. Remote events enter through here.
func (b *Broker) Deliver(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.byKey[e.Key()]))
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	for _, h := range b.byKey[e.Key()] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

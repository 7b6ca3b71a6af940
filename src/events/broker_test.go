package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack-server/src/models"
)

type recordingForwarder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *recordingForwarder) Forward(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func TestSubscribeIsScopedByKey(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	u1 := models.EntityKey{Entity: models.EntityTransactions, UserID: "u1"}
	u2 := models.EntityKey{Entity: models.EntityTransactions, UserID: "u2"}

	var got []string
	b.Subscribe(u1, func(e Event) { got = append(got, "u1:"+e.RecordID) })
	b.Subscribe(u2, func(e Event) { got = append(got, "u2:"+e.RecordID) })

	b.Publish(context.Background(), Event{Entity: models.EntityTransactions, UserID: "u1", Op: OpCreated, RecordID: "t1"})
	b.Publish(context.Background(), Event{Entity: models.EntityCategories, UserID: "u1", Op: OpCreated, RecordID: "c1"})

	if len(got) != 1 || got[0] != "u1:t1" {
		t.Errorf("delivered = %v, want [u1:t1]", got)
	}
}

func TestCatchAllRunsBeforeKeyedHandlers(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	key := models.EntityKey{Entity: models.EntityBudgets, UserID: "u1"}
	var order []string
	b.Subscribe(key, func(Event) { order = append(order, "keyed") })
	b.SubscribeAll(func(Event) { order = append(order, "all") })

	b.Publish(context.Background(), Event{Entity: models.EntityBudgets, UserID: "u1", Op: OpDeleted})
	if len(order) != 2 || order[0] != "all" || order[1] != "keyed" {
		t.Errorf("order = %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	key := models.EntityKey{Entity: models.EntityCategories, UserID: "u1"}
	calls := 0
	unsubscribe := b.Subscribe(key, func(Event) { calls++ })
	unsubscribeAll := b.SubscribeAll(func(Event) { calls++ })

	b.Publish(context.Background(), Event{Entity: models.EntityCategories, UserID: "u1"})
	unsubscribe()
	unsubscribeAll()
	b.Publish(context.Background(), Event{Entity: models.EntityCategories, UserID: "u1"})

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestPublishForwardsOnlyLocalEvents(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	f := &recordingForwarder{err: errors.New("broker offline")}
	var forwardErr error
	b.SetForwarder(f, func(err error) { forwardErr = err })

	b.Publish(context.Background(), Event{Entity: models.EntityTransactions, UserID: "u1"})
	b.Publish(context.Background(), Event{Entity: models.EntityTransactions, UserID: "u1", Origin: "another-instance"})

	if len(f.events) != 1 {
		t.Fatalf("forwarded %d events, want 1", len(f.events))
	}
	if f.events[0].Origin != b.Origin() || f.events[0].At.IsZero() {
		t.Errorf("forwarded event not stamped: %+v", f.events[0])
	}
	if forwardErr == nil {
		t.Error("forwarding error not reported")
	}
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack-server/src/models"
)

func newTestCache(t *testing.T) *QueryCache {
	t.Helper()
	c, err := New(Config{MaxItems: 100, TTL: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

var txKey = models.EntityKey{Entity: models.EntityTransactions, UserID: "u1"}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	var calls int32
	load := func(context.Context) ([]string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return []string{"a"}, nil
		}
		return []string{"a", "b"}, nil
	}

	ctx := context.Background()
	first, err := Fetch(ctx, c, txKey, load)
	if err != nil || len(first) != 1 {
		t.Fatalf("first fetch = %v, %v", first, err)
	}
	if _, err := Fetch(ctx, c, txKey, load); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("load called %d times before invalidation, want 1", got)
	}

	c.Invalidate(txKey)
	after, err := Fetch(ctx, c, txKey, load)
	if err != nil || len(after) != 2 {
		t.Fatalf("fetch after invalidate = %v, %v", after, err)
	}
}

func TestFetchKeysAreScopedByUser(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()
	other := models.EntityKey{Entity: models.EntityTransactions, UserID: "u2"}

	if _, err := Fetch(ctx, c, txKey, func(context.Context) (string, error) { return "u1 data", nil }); err != nil {
		t.Fatal(err)
	}
	got, err := Fetch(ctx, c, other, func(context.Context) (string, error) { return "u2 data", nil })
	if err != nil || got != "u2 data" {
		t.Errorf("other user fetch = %q, %v", got, err)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("backend down")
	if _, err := Fetch(ctx, c, txKey, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	got, err := Fetch(ctx, c, txKey, func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("retry fetch = %d, %v", got, err)
	}
}

func TestFetchDeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := Fetch(context.Background(), c, txKey, load); err != nil || v != 42 {
				t.Errorf("Fetch = %d, %v", v, err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("load called %d times, want 1", got)
	}
}

func TestCanceledCallerDoesNotAbortSharedLoad(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "fresh", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, txKey, load)
		firstErr <- err
	}()

	<-started
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller err = %v, want context.Canceled", err)
	}
	close(release)

	got, err := Fetch(context.Background(), c, txKey, func(context.Context) (string, error) {
		return "", errors.New("load should have been shared or cached")
	})
	if err != nil || got != "fresh" {
		t.Fatalf("fetch after cancel = %q, %v; want fresh", got, err)
	}
}

func TestInvalidateDuringLoadDropsStaleResult(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Fetch(ctx, c, txKey, func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started
	c.Invalidate(txKey)
	close(release)
	<-done

	got, err := Fetch(ctx, c, txKey, func(context.Context) (string, error) { return "fresh", nil })
	if err != nil || got != "fresh" {
		t.Errorf("Fetch after invalidation = %q, %v", got, err)
	}
}

func TestClearEntityAndUser(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()
	catKey := models.EntityKey{Entity: models.EntityCategories, UserID: "u1"}
	for _, k := range []models.EntityKey{txKey, catKey} {
		if _, err := Fetch(ctx, c, k, func(context.Context) (string, error) { return "old", nil }); err != nil {
			t.Fatal(err)
		}
	}

	c.ClearEntity(models.EntityTransactions)
	if got, _ := Fetch(ctx, c, txKey, func(context.Context) (string, error) { return "new", nil }); got != "new" {
		t.Errorf("transactions after ClearEntity = %q", got)
	}
	if got, _ := Fetch(ctx, c, catKey, func(context.Context) (string, error) { return "new", nil }); got != "old" {
		t.Errorf("categories after ClearEntity = %q, want cached", got)
	}

	c.InvalidateUser("u1")
	if got, _ := Fetch(ctx, c, catKey, func(context.Context) (string, error) { return "newer", nil }); got != "newer" {
		t.Errorf("categories after InvalidateUser = %q", got)
	}
}

package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/store/storetest"
)

func TestDocstoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := New(filepath.Join(t.TempDir(), "data", "fintrack.db"))
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestUnconfiguredStoreIsUnavailable(t *testing.T) {
	t.Parallel()

	s := New("")
	ctx := context.Background()
	if _, err := s.Transactions().List(ctx, "u1"); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("List err = %v, want ErrUnavailable", err)
	}
	if _, err := s.Users().GetByEmail(ctx, "a@example.com"); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("GetByEmail err = %v, want ErrUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("Ping err = %v, want ErrUnavailable", err)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fintrack.db")
	ctx := context.Background()

	first := New(path)
	rec, err := first.Users().Create(ctx, models.UserRecord{User: models.User{Email: "a@example.com", Name: "A"}, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := first.Categories().Create(ctx, models.Category{Name: "Food", UserID: rec.ID}); err != nil {
		t.Fatalf("Create category: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := New(path)
	defer second.Close()
	got, err := second.Users().GetByEmail(ctx, "a@example.com")
	if err != nil || got.ID != rec.ID || got.PasswordHash != "h" {
		t.Fatalf("GetByEmail after reopen = %+v, %v", got, err)
	}
	cats, err := second.Categories().List(ctx, rec.ID)
	if err != nil || len(cats) != 1 || cats[0].Name != "Food" {
		t.Errorf("categories after reopen = %v, %v", cats, err)
	}
}

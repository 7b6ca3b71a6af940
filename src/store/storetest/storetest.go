// Package storetest checks a store.Store against the collection contract.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack-server/src/models"
	"fintrack-server/src/store"

	"github.com/shopspring/decimal"
)

// Run exercises every collection of the store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, open(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, open(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, open(t)) })
	t.Run("delete user removes owned records", func(t *testing.T) { testDeleteUser(t, open(t)) })
}

func mustUser(t *testing.T, s store.Store, email string) models.UserRecord {
	t.Helper()
	rec, err := s.Users().Create(context.Background(), models.UserRecord{
		User:         models.User{Email: email, Name: "Test User"},
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return rec
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec := mustUser(t, s, "Ada@Example.com")
	if rec.ID == "" {
		t.Fatal("user id not assigned")
	}
	if rec.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", rec.Email)
	}

	if _, err := s.Users().Create(ctx, models.UserRecord{User: models.User{Email: "ada@example.com"}}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email err = %v, want ErrConflict", err)
	}

	byEmail, err := s.Users().GetByEmail(ctx, "ADA@example.com")
	if err != nil || byEmail.ID != rec.ID || byEmail.PasswordHash != "hash" {
		t.Fatalf("GetByEmail = %+v, %v", byEmail, err)
	}
	if _, err := s.Users().GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing email err = %v", err)
	}

	other := mustUser(t, s, "grace@example.com")
	if _, err := s.Users().Update(ctx, models.User{ID: rec.ID, Email: other.Email, Name: "Ada"}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("update to taken email err = %v, want ErrConflict", err)
	}
	updated, err := s.Users().Update(ctx, models.User{ID: rec.ID, Email: "ada@example.com", Name: "Ada L."})
	if err != nil || updated.Name != "Ada L." || updated.PasswordHash != "hash" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}
	got, err := s.Users().Get(ctx, rec.ID)
	if err != nil || got.Name != "Ada L." {
		t.Errorf("Get after update = %+v, %v", got, err)
	}
	if _, err := s.Users().Update(ctx, models.User{ID: "missing", Email: "x@example.com"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "owner@example.com")
	stranger := mustUser(t, s, "stranger@example.com")
	txs := s.Transactions()

	empty, err := txs.List(ctx, owner.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("List empty = %v, %v; want empty non-nil", empty, err)
	}

	in := models.Transaction{
		Description: "Coffee",
		Amount:      decimal.RequireFromString("4.50"),
		Date:        models.NewDate(2024, time.July, 3),
		Type:        models.Expense,
		CategoryID:  models.KnownCategory("cat1"),
		UserID:      owner.ID,
	}
	created, err := txs.Create(ctx, in)
	if err != nil || created.ID == "" {
		t.Fatalf("Create = %+v, %v", created, err)
	}
	second, err := txs.Create(ctx, models.Transaction{
		Description: "Salary", Amount: decimal.NewFromInt(1500), Date: models.NewDate(2024, time.July, 1),
		Type: models.Income, UserID: owner.ID,
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	list, err := txs.List(ctx, owner.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %v, %v", list, err)
	}
	var found models.Transaction
	for _, tx := range list {
		if tx.ID == created.ID {
			found = tx
		}
	}
	if !found.Amount.Equal(in.Amount) || !found.Date.Equal(in.Date.Time) || found.Description != "Coffee" {
		t.Errorf("round trip = %+v", found)
	}
	if id, ok := found.CategoryID.ID(); !ok || id != "cat1" {
		t.Errorf("category ref = %v", found.CategoryID)
	}
	for _, tx := range list {
		if tx.ID == second.ID && tx.CategoryID.IsKnown() {
			t.Errorf("unresolved ref stored as %v", tx.CategoryID)
		}
	}

	if others, _ := txs.List(ctx, stranger.ID); len(others) != 0 {
		t.Errorf("stranger sees %d transactions", len(others))
	}

	created.Description = "Espresso"
	created.CategoryID = models.Unresolved()
	updated, err := txs.Update(ctx, created)
	if err != nil || updated.Description != "Espresso" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	hijack := created
	hijack.UserID = stranger.ID
	if _, err := txs.Update(ctx, hijack); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user update err = %v, want ErrNotFound", err)
	}
	if err := txs.Delete(ctx, stranger.ID, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user delete err = %v, want ErrNotFound", err)
	}
	if err := txs.Delete(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := txs.Delete(ctx, owner.ID, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	list, _ = txs.List(ctx, owner.ID)
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("List after delete = %v", list)
	}
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "cats@example.com")
	cats := s.Categories()

	created, err := cats.Create(ctx, models.Category{Name: "Food", UserID: owner.ID, SpendingCurrentMonth: decimal.NewFromInt(99)})
	if err != nil || created.ID == "" {
		t.Fatalf("Create = %+v, %v", created, err)
	}
	list, err := cats.List(ctx, owner.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if !list[0].SpendingCurrentMonth.IsZero() {
		t.Errorf("derived spending was stored: %s", list[0].SpendingCurrentMonth)
	}

	created.Name = "Groceries"
	if _, err := cats.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	list, _ = cats.List(ctx, owner.ID)
	if list[0].Name != "Groceries" {
		t.Errorf("name after update = %q", list[0].Name)
	}
	if _, err := cats.Update(ctx, models.Category{ID: "missing", Name: "x", UserID: owner.ID}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	if err := cats.Delete(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func testBudgets(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "budgets@example.com")
	budgets := s.Budgets()

	created, err := budgets.Create(ctx, models.Budget{CategoryID: "cat1", Limit: decimal.NewFromInt(200), UserID: owner.ID})
	if err != nil || created.ID == "" {
		t.Fatalf("Create = %+v, %v", created, err)
	}
	created.Limit = decimal.RequireFromString("250.75")
	if _, err := budgets.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	list, err := budgets.List(ctx, owner.ID)
	if err != nil || len(list) != 1 || !list[0].Limit.Equal(decimal.RequireFromString("250.75")) {
		t.Fatalf("List = %v, %v", list, err)
	}
	if err := budgets.Delete(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func testDeleteUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "leaving@example.com")
	keeper := mustUser(t, s, "staying@example.com")

	for _, u := range []models.UserRecord{owner, keeper} {
		if _, err := s.Categories().Create(ctx, models.Category{Name: "Food", UserID: u.ID}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Budgets().Create(ctx, models.Budget{CategoryID: "c", Limit: decimal.NewFromInt(1), UserID: u.ID}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Transactions().Create(ctx, models.Transaction{
			Description: "x", Amount: decimal.NewFromInt(1), Date: models.NewDate(2024, time.July, 1), Type: models.Expense, UserID: u.ID,
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Users().Delete(ctx, owner.ID); err != nil {
		t.Fatalf("Delete user: %v", err)
	}
	if _, err := s.Users().Get(ctx, owner.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get deleted user err = %v", err)
	}
	if list, _ := s.Transactions().List(ctx, owner.ID); len(list) != 0 {
		t.Errorf("deleted user still has %d transactions", len(list))
	}
	if list, _ := s.Categories().List(ctx, keeper.ID); len(list) != 1 {
		t.Errorf("other user lost categories: %d", len(list))
	}
	if err := s.Users().Delete(ctx, owner.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

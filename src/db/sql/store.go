package db

import (
	"context"
	"errors"
	"fmt"

	"fintrack-server/src/models"
	"fintrack-server/src/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

func errNotFound(what string) error {
	return fmt.Errorf("%s: %w", what, store.ErrNotFound)
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Store adapts the SQL functions in this package to store.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Users() store.Users { return pgUsers{s.pool} }

func (s *Store) Transactions() store.Collection[models.Transaction] {
	return pgCollection[models.Transaction]{
		pool:   s.pool,
		list:   GetTransactionsForUser,
		create: CreateTransaction,
		update: UpdateTransaction,
		remove: DeleteTransaction,
	}
}

func (s *Store) Categories() store.Collection[models.Category] {
	return pgCollection[models.Category]{
		pool:   s.pool,
		list:   GetCategoriesForUser,
		create: CreateCategory,
		update: UpdateCategory,
		remove: DeleteCategory,
	}
}

func (s *Store) Budgets() store.Collection[models.Budget] {
	return pgCollection[models.Budget]{
		pool:   s.pool,
		list:   GetAllBudgetsForUser,
		create: CreateBudget,
		update: UpdateBudget,
		remove: DeleteBudget,
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type pgCollection[T models.Owned] struct {
	pool   *pgxpool.Pool
	list   func(context.Context, *pgxpool.Pool, string) ([]T, error)
	create func(context.Context, *pgxpool.Pool, *T) (*T, error)
	update func(context.Context, *pgxpool.Pool, *T) (*T, error)
	remove func(context.Context, *pgxpool.Pool, string, string) error
}

func (c pgCollection[T]) List(ctx context.Context, userID string) ([]T, error) {
	return c.list(ctx, c.pool, userID)
}

func (c pgCollection[T]) Create(ctx context.Context, item T) (T, error) {
	out, err := c.create(ctx, c.pool, &item)
	if err != nil {
		var zero T
		return zero, err
	}
	return *out, nil
}

func (c pgCollection[T]) Update(ctx context.Context, item T) (T, error) {
	out, err := c.update(ctx, c.pool, &item)
	if err != nil {
		var zero T
		return zero, err
	}
	return *out, nil
}

func (c pgCollection[T]) Delete(ctx context.Context, userID, id string) error {
	return c.remove(ctx, c.pool, userID, id)
}

type pgUsers struct {
	pool *pgxpool.Pool
}

func (u pgUsers) Create(ctx context.Context, rec models.UserRecord) (models.UserRecord, error) {
	out, err := CreateUser(ctx, u.pool, &rec)
	if err != nil {
		return models.UserRecord{}, err
	}
	return *out, nil
}

func (u pgUsers) Get(ctx context.Context, id string) (models.UserRecord, error) {
	out, err := GetUserByID(ctx, u.pool, id)
	if err != nil {
		return models.UserRecord{}, err
	}
	return *out, nil
}

func (u pgUsers) GetByEmail(ctx context.Context, email string) (models.UserRecord, error) {
	out, err := GetUserByEmail(ctx, u.pool, email)
	if err != nil {
		return models.UserRecord{}, err
	}
	return *out, nil
}

func (u pgUsers) Update(ctx context.Context, user models.User) (models.UserRecord, error) {
	out, err := UpdateUser(ctx, u.pool, &user)
	if err != nil {
		return models.UserRecord{}, err
	}
	return *out, nil
}

func (u pgUsers) Delete(ctx context.Context, id string) error {
	return DeleteUser(ctx, u.pool, id)
}

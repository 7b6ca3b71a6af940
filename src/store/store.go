// Package store defines the four-verb collection contract every backend honors.
package store

import (
	"context"
	"errors"

	"fintrack-server/src/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("record already exists")
	ErrUnavailable = errors.New("missing backend configuration")
)

// Collection is a user-scoped list of records. List returns a non-nil slice.
// Update and Delete report ErrNotFound when the id does not exist for userID.
type Collection[T models.Owned] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, userID, id string) error
}

// Users holds auth records. Emails are unique; Create and Update report
// ErrConflict on a clash. Delete removes the user's records in every collection.
type Users interface {
	Create(ctx context.Context, rec models.UserRecord) (models.UserRecord, error)
	Get(ctx context.Context, id string) (models.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (models.UserRecord, error)
	Update(ctx context.Context, u models.User) (models.UserRecord, error)
	Delete(ctx context.Context, id string) error
}

type Store interface {
	Users() Users
	Transactions() Collection[models.Transaction]
	Categories() Collection[models.Category]
	Budgets() Collection[models.Budget]
	Ping(ctx context.Context) error
	Close() error
}

// Package docstore keeps every collection as JSON documents in one SQLite table.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fintrack-server/src/models"
	"fintrack-server/src/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store opens its database on first use. Until that succeeds every operation
// fails with store.ErrUnavailable; the next call tries again.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB

	users        *users
	transactions *collection[models.Transaction]
	categories   *collection[models.Category]
	budgets      *collection[models.Budget]
}

func New(path string) *Store {
	s := &Store{path: strings.TrimSpace(path)}
	s.users = &users{s: s}
	s.transactions = &collection[models.Transaction]{s: s, name: models.EntityTransactions,
		assign: func(t *models.Transaction, id string) { t.ID = id }}
	s.categories = &collection[models.Category]{s: s, name: models.EntityCategories,
		assign: func(c *models.Category, id string) {
			c.ID = id
			c.Normalize()
		}}
	s.budgets = &collection[models.Budget]{s: s, name: models.EntityBudgets,
		assign: func(b *models.Budget, id string) { b.ID = id }}
	return s
}

func (s *Store) ready(ctx context.Context) (*sql.DB, error) {
	if s.path == "" {
		return nil, store.ErrUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %v", store.ErrUnavailable, err)
		}
	}
	if err := runMigrations(s.path); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", store.ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", store.ErrUnavailable, err)
	}
	s.db = db
	return db, nil
}

func (s *Store) Users() store.Users                                 { return s.users }
func (s *Store) Transactions() store.Collection[models.Transaction] { return s.transactions }
func (s *Store) Categories() store.Collection[models.Category]     { return s.categories }
func (s *Store) Budgets() store.Collection[models.Budget]           { return s.budgets }

func (s *Store) Ping(ctx context.Context) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type collection[T models.Owned] struct {
	s      *Store
	name   models.Entity
	assign func(*T, string)
}

func (c *collection[T]) List(ctx context.Context, userID string) ([]T, error) {
	db, err := c.s.ready(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND owner_id = ? ORDER BY rowid`,
		string(c.name), userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		var item T
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.name, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (c *collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	db, err := c.s.ready(ctx)
	if err != nil {
		return zero, err
	}
	c.assign(&item, uuid.NewString())
	body, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner_id, body, updated_at) VALUES (?, ?, ?, ?, ?)`,
		string(c.name), item.RecordID(), item.OwnerID(), string(body), now())
	if err != nil {
		return zero, fmt.Errorf("insert %s: %w", c.name, err)
	}
	return item, nil
}

func (c *collection[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	db, err := c.s.ready(ctx)
	if err != nil {
		return zero, err
	}
	c.assign(&item, item.RecordID())
	body, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ? AND owner_id = ?`,
		string(body), now(), string(c.name), item.RecordID(), item.OwnerID())
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", c.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return zero, store.ErrNotFound
	}
	return item, nil
}

func (c *collection[T]) Delete(ctx context.Context, userID, id string) error {
	db, err := c.s.ready(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? AND owner_id = ?`,
		string(c.name), id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// userDoc is the stored shape of a user; unlike models.User it keeps the hash.
type userDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toDoc(r models.UserRecord) userDoc {
	return userDoc{ID: r.ID, Email: r.Email, Name: r.Name, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func (d userDoc) record() models.UserRecord {
	return models.UserRecord{
		User:         models.User{ID: d.ID, Email: d.Email, Name: d.Name},
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type users struct {
	s *Store
}

const usersCollection = string(models.EntityUsers)

func (u *users) Create(ctx context.Context, rec models.UserRecord) (models.UserRecord, error) {
	db, err := u.s.ready(ctx)
	if err != nil {
		return models.UserRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.Email = models.NormalizeEmail(rec.Email)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(toDoc(rec))
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("encode user document: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner_id, body, updated_at) VALUES (?, ?, ?, ?, ?)`,
		usersCollection, rec.ID, rec.ID, string(body), now())
	if isUniqueViolation(err) {
		return models.UserRecord{}, store.ErrConflict
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}
	return rec, nil
}

func (u *users) get(ctx context.Context, where string, arg string) (models.UserRecord, error) {
	db, err := u.s.ready(ctx)
	if err != nil {
		return models.UserRecord{}, err
	}
	var body string
	err = db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND `+where, usersCollection, arg).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	var doc userDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return models.UserRecord{}, fmt.Errorf("decode user document: %w", err)
	}
	return doc.record(), nil
}

func (u *users) Get(ctx context.Context, id string) (models.UserRecord, error) {
	return u.get(ctx, `id = ?`, id)
}

func (u *users) GetByEmail(ctx context.Context, email string) (models.UserRecord, error) {
	return u.get(ctx, `json_extract(body, '$.email') = ?`, models.NormalizeEmail(email))
}

func (u *users) Update(ctx context.Context, user models.User) (models.UserRecord, error) {
	rec, err := u.Get(ctx, user.ID)
	if err != nil {
		return models.UserRecord{}, err
	}
	db, err := u.s.ready(ctx)
	if err != nil {
		return models.UserRecord{}, err
	}
	user.Email = models.NormalizeEmail(user.Email)
	rec.User = user
	body, err := json.Marshal(toDoc(rec))
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("encode user document: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(body), now(), usersCollection, user.ID)
	if isUniqueViolation(err) {
		return models.UserRecord{}, store.ErrConflict
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.UserRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (u *users) Delete(ctx context.Context, id string) error {
	db, err := u.s.ready(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, usersCollection, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE owner_id = ?`, id); err != nil {
		return fmt.Errorf("delete user documents: %w", err)
	}
	return tx.Commit()
}

package db

import (
	"context"
	"fmt"

	"fintrack-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.UserRecord, error) {
	var u models.UserRecord
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func CreateUser(ctx context.Context, pool *pgxpool.Pool, rec *models.UserRecord) (*models.UserRecord, error) {
	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	u, err := scanUser(pool.QueryRow(ctx, query, uuid.NewString(), models.NormalizeEmail(rec.Email), rec.Name, rec.PasswordHash))
	if err != nil {
		return nil, mapError("create user", err)
	}
	return u, nil
}

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, id string) (*models.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get user", err)
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(pool.QueryRow(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return u, nil
}

func UpdateUser(ctx context.Context, pool *pgxpool.Pool, user *models.User) (*models.UserRecord, error) {
	query := `
		UPDATE users SET email = $2, name = $3
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(pool.QueryRow(ctx, query, user.ID, models.NormalizeEmail(user.Email), user.Name))
	if err != nil {
		return nil, mapError("update user", err)
	}
	return u, nil
}

// DeleteUser removes the user; owned rows go with it through ON DELETE CASCADE.
func DeleteUser(ctx context.Context, pool *pgxpool.Pool, id string) error {
	tag, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound("user")
	}
	return nil
}

package db

import (
	"context"
	"fmt"

	"fintrack-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateCategory(ctx context.Context, pool *pgxpool.Pool, c *models.Category) (*models.Category, error) {
	query := `
		INSERT INTO categories (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name
	`
	var out models.Category
	err := pool.QueryRow(ctx, query, uuid.NewString(), c.UserID, c.Name).Scan(&out.ID, &out.UserID, &out.Name)
	if err != nil {
		return nil, mapError("create category", err)
	}
	return &out, nil
}

func GetCategoriesForUser(ctx context.Context, pool *pgxpool.Pool, userID string) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name
		FROM categories WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func UpdateCategory(ctx context.Context, pool *pgxpool.Pool, c *models.Category) (*models.Category, error) {
	query := `
		UPDATE categories SET name = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name
	`
	var out models.Category
	err := pool.QueryRow(ctx, query, c.ID, c.UserID, c.Name).Scan(&out.ID, &out.UserID, &out.Name)
	if err != nil {
		return nil, mapError("update category", err)
	}
	return &out, nil
}

func DeleteCategory(ctx context.Context, pool *pgxpool.Pool, userID, id string) error {
	tag, err := pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound("category")
	}
	return nil
}

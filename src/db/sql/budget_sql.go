package db

import (
	"context"
	"fmt"

	"fintrack-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func scanBudget(row interface{ Scan(...any) error }) (*models.Budget, error) {
	var (
		b     models.Budget
		limit string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &limit); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(limit)
	if err != nil {
		return nil, fmt.Errorf("parse limit %q: %w", limit, err)
	}
	b.Limit = d
	return &b, nil
}

func CreateBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (id, user_id, category_id, limit_amount)
		VALUES ($1, $2, $3, $4::numeric)
		RETURNING id, user_id, category_id, limit_amount::text
	`
	b, err := scanBudget(pool.QueryRow(ctx, query, uuid.NewString(), budget.UserID, budget.CategoryID, budget.Limit.String()))
	if err != nil {
		return nil, mapError("create budget", err)
	}
	return b, nil
}

func GetAllBudgetsForUser(ctx context.Context, pool *pgxpool.Pool, userID string) ([]models.Budget, error) {
	query := `
		SELECT id, user_id, category_id, limit_amount::text
		FROM budgets WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func UpdateBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	query := `
		UPDATE budgets
		SET category_id = $3, limit_amount = $4::numeric
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, category_id, limit_amount::text
	`
	b, err := scanBudget(pool.QueryRow(ctx, query, budget.ID, budget.UserID, budget.CategoryID, budget.Limit.String()))
	if err != nil {
		return nil, mapError("update budget", err)
	}
	return b, nil
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, userID, budgetID string) error {
	tag, err := pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound("budget")
	}
	return nil
}

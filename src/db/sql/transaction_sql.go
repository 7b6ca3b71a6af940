package db

import (
	"context"
	"fmt"
	"time"

	"fintrack-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, description, amount::text, date, type, category_id`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var (
		t          models.Transaction
		amount     string
		date       time.Time
		typ        string
		categoryID *string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &amount, &date, &typ, &categoryID); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Amount = d
	t.Date = models.DateOf(date)
	t.Type = models.TransactionType(typ)
	if categoryID != nil {
		t.CategoryID = models.KnownCategory(*categoryID)
	}
	return &t, nil
}

func categoryParam(ref models.CategoryRef) *string {
	if id, ok := ref.ID(); ok {
		return &id
	}
	return nil
}

func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, description, amount, date, type, category_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING ` + transactionColumns
	created, err := scanTransaction(pool.QueryRow(ctx, query,
		uuid.NewString(), t.UserID, t.Description, t.Amount.String(), t.Date.Time, string(t.Type), categoryParam(t.CategoryID)))
	if err != nil {
		return nil, mapError("create transaction", err)
	}
	return created, nil
}

func GetTransactionsForUser(ctx context.Context, pool *pgxpool.Pool, userID string) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func UpdateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET description = $3, amount = $4::numeric, date = $5, type = $6, category_id = $7
		WHERE id = $1 AND user_id = $2
		RETURNING ` + transactionColumns
	updated, err := scanTransaction(pool.QueryRow(ctx, query,
		t.ID, t.UserID, t.Description, t.Amount.String(), t.Date.Time, string(t.Type), categoryParam(t.CategoryID)))
	if err != nil {
		return nil, mapError("update transaction", err)
	}
	return updated, nil
}

func DeleteTransaction(ctx context.Context, pool *pgxpool.Pool, userID, id string) error {
	tag, err := pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound("transaction")
	}
	return nil
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Type        TransactionType `json:"type"`
	CategoryID  CategoryRef     `json:"categoryId"`
	UserID      string          `json:"userId"`
}

func (t Transaction) RecordID() string { return t.ID }
func (t Transaction) OwnerID() string  { return t.UserID }

func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.Type = TransactionType(strings.ToLower(strings.TrimSpace(string(t.Type))))
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", "description is required")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", "amount must be greater than 0")
	}
	if !wholeCents(t.Amount) {
		return invalid("amount", "amount must have at most 2 decimal places")
	}
	if t.Date.IsZero() {
		return invalid("date", "date is required")
	}
	if !t.Type.Valid() {
		return invalid("type", "type must be income or expense")
	}
	return nil
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"categoryId"`
	Limit      decimal.Decimal `json:"limit"`
	UserID     string          `json:"userId"`
}

func (b Budget) RecordID() string { return b.ID }
func (b Budget) OwnerID() string  { return b.UserID }

func (b *Budget) Normalize() {
	b.CategoryID = strings.TrimSpace(b.CategoryID)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return invalid("categoryId", "category is required")
	}
	if !b.Limit.IsPositive() {
		return invalid("limit", "budget limit must be greater than 0")
	}
	if !wholeCents(b.Limit) {
		return invalid("limit", "budget limit must have at most 2 decimal places")
	}
	return nil
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
	// SpendingCurrentMonth is derived on read and never stored.
	SpendingCurrentMonth decimal.Decimal `json:"spendingCurrentMonth"`
}

func (c Category) RecordID() string { return c.ID }
func (c Category) OwnerID() string  { return c.UserID }

func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.SpendingCurrentMonth = decimal.Zero
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "category name is required")
	}
	return nil
}

// SameName reports whether two category names collide for a single user.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

package models

import "github.com/shopspring/decimal"

// ValidationError reports a record that must not be saved.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// wholeCents reports whether d has no more than two decimal places.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

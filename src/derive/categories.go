package derive

import (
	"time"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

// CategoriesWithSpending copies categories with SpendingCurrentMonth set to the
// sum of this month's expenses filed under each one. A nil input means the data
// has not been loaded yet and yields an empty list.
func CategoriesWithSpending(now time.Time, categories []models.Category, transactions []models.Transaction) []models.Category {
	out := []models.Category{}
	if categories == nil || transactions == nil {
		return out
	}
	spent := monthExpensesByCategory(MonthWindow(now), transactions)
	for _, c := range categories {
		c.SpendingCurrentMonth = sumOrZero(spent, c.ID)
		out = append(out, c)
	}
	return out
}

func monthExpensesByCategory(w Window, transactions []models.Transaction) map[string]decimal.Decimal {
	spent := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if !t.IsExpense() || !w.Contains(t.Date.Time) {
			continue
		}
		id, ok := t.CategoryID.ID()
		if !ok {
			continue
		}
		spent[id] = sumOrZero(spent, id).Add(t.Amount)
	}
	return spent
}

func sumOrZero(m map[string]decimal.Decimal, key string) decimal.Decimal {
	if v, ok := m[key]; ok {
		return v
	}
	return decimal.Zero
}

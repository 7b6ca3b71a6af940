package derive

import (
	"time"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type BudgetProgress struct {
	models.Budget
	CategoryName string          `json:"categoryName"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	// Ratio is spent/limit and may exceed 1.
	Ratio decimal.Decimal `json:"ratio"`
	// Percent is the progress bar fill, capped at 100.
	Percent    decimal.Decimal `json:"percent"`
	OverBudget bool            `json:"overBudget"`
	Period     string          `json:"period"`
}

func BudgetsWithProgress(now time.Time, budgets []models.Budget, categories []models.Category, transactions []models.Transaction) []BudgetProgress {
	out := []BudgetProgress{}
	if budgets == nil || categories == nil || transactions == nil {
		return out
	}
	w := MonthWindow(now)
	spent := monthExpensesByCategory(w, transactions)
	names := models.CategoryNames(categories)
	for _, b := range budgets {
		out = append(out, progress(b, sumOrZero(spent, b.CategoryID), models.KnownCategory(b.CategoryID).Resolve(names), w.Label()))
	}
	return out
}

func progress(b models.Budget, spent decimal.Decimal, name, period string) BudgetProgress {
	p := BudgetProgress{
		Budget:       b,
		CategoryName: name,
		Spent:        spent,
		Remaining:    b.Limit.Sub(spent),
		OverBudget:   spent.GreaterThan(b.Limit),
		Period:       period,
		Ratio:        decimal.Zero,
		Percent:      decimal.Zero,
	}
	switch {
	case b.Limit.IsPositive():
		p.Ratio = spent.Div(b.Limit)
		p.Percent = decimal.Min(p.Ratio.Mul(hundred), hundred).Round(2)
	case spent.IsPositive():
		p.Percent = hundred
	}
	return p
}

// AvailableCategories lists the categories that do not have a budget yet.
func AvailableCategories(categories []models.Category, budgets []models.Budget) []models.Category {
	budgeted := make(map[string]struct{}, len(budgets))
	for _, b := range budgets {
		budgeted[b.CategoryID] = struct{}{}
	}
	out := []models.Category{}
	for _, c := range categories {
		if _, ok := budgeted[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// HasBudget reports whether a budget other than exceptID already covers categoryID.
func HasBudget(budgets []models.Budget, categoryID, exceptID string) bool {
	for _, b := range budgets {
		if b.CategoryID == categoryID && b.ID != exceptID {
			return true
		}
	}
	return false
}

package derive

import (
	"sort"
	"time"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

const RecentTransactionsLimit = 5

type Dashboard struct {
	Period             string               `json:"period"`
	TotalIncome        decimal.Decimal      `json:"totalIncome"`
	TotalExpenses      decimal.Decimal      `json:"totalExpenses"`
	Savings            decimal.Decimal      `json:"savings"`
	SpendingByCategory []CategoryTotal      `json:"spendingByCategory"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

// BuildDashboard summarizes the current month and lists the latest transactions overall.
func BuildDashboard(now time.Time, transactions []models.Transaction, categories []models.Category) Dashboard {
	w := MonthWindow(now)
	d := Dashboard{
		Period:        w.Start.Format(monthLabelLayout),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	var monthExpenses []models.Transaction
	for _, t := range transactions {
		if !w.Contains(t.Date.Time) {
			continue
		}
		if t.IsExpense() {
			d.TotalExpenses = d.TotalExpenses.Add(t.Amount)
			monthExpenses = append(monthExpenses, t)
		} else {
			d.TotalIncome = d.TotalIncome.Add(t.Amount)
		}
	}
	d.Savings = d.TotalIncome.Sub(d.TotalExpenses)
	d.SpendingByCategory = breakdown(monthExpenses, models.CategoryNames(categories), d.TotalExpenses)
	d.RecentTransactions = recent(transactions, RecentTransactionsLimit)
	return d
}

func recent(transactions []models.Transaction, n int) []models.Transaction {
	sorted := make([]models.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package derive

import (
	"fmt"
	"time"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

// DateRange filters by date with inclusive bounds. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange reads optional start/end query values. A bare end date
// covers that whole day.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if start != "" {
		d, err := models.ParseDate(start)
		if err != nil {
			return r, fmt.Errorf("start: %w", err)
		}
		r.Start = &d.Time
	}
	if end != "" {
		d, err := models.ParseDate(end)
		if err != nil {
			return r, fmt.Errorf("end: %w", err)
		}
		t := d.Time
		if len(end) == len(models.DateLayout) {
			t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return r, fmt.Errorf("end date is before start date")
	}
	return r, nil
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type CategoryTotal struct {
	CategoryID string          `json:"categoryId,omitempty"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type Report struct {
	MonthlySpending        []MonthTotal         `json:"monthlySpending"`
	Breakdown              []CategoryTotal      `json:"breakdown"`
	FilteredBreakdown      []CategoryTotal      `json:"filteredBreakdown"`
	FilteredTransactions   []models.Transaction `json:"filteredTransactions"`
	TotalExpenses          decimal.Decimal      `json:"totalExpenses"`
	FilteredTotalExpenses  decimal.Decimal      `json:"filteredTotalExpenses"`
	AverageMonthlySpending decimal.Decimal      `json:"averageMonthlySpending"`
	HighestCategory        *CategoryTotal       `json:"highestCategory"`
}

// BuildReport aggregates expense transactions by month and by category, and
// repeats the category grouping over the transactions inside r.
func BuildReport(transactions []models.Transaction, categories []models.Category, r DateRange) Report {
	names := models.CategoryNames(categories)

	expenses := []models.Transaction{}
	filtered := []models.Transaction{}
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		expenses = append(expenses, t)
		if r.Contains(t.Date.Time) {
			filtered = append(filtered, t)
		}
	}

	rep := Report{
		MonthlySpending:        monthlyTotals(expenses),
		FilteredTransactions:   filtered,
		TotalExpenses:          total(expenses),
		FilteredTotalExpenses:  total(filtered),
		AverageMonthlySpending: decimal.Zero,
	}
	rep.Breakdown = breakdown(expenses, names, rep.TotalExpenses)
	rep.FilteredBreakdown = breakdown(filtered, names, rep.FilteredTotalExpenses)
	rep.HighestCategory = highest(rep.Breakdown)
	if n := len(rep.MonthlySpending); n > 0 {
		rep.AverageMonthlySpending = rep.TotalExpenses.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return rep
}

func total(transactions []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		sum = sum.Add(t.Amount)
	}
	return sum
}

func monthlyTotals(transactions []models.Transaction) []MonthTotal {
	out := []MonthTotal{}
	index := make(map[string]int)
	for _, t := range transactions {
		label := t.Date.Format(monthLabelLayout)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, MonthTotal{Month: label, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(t.Amount)
	}
	return out
}

// groupByCategory sums amounts per resolved category in first-seen order.
// References that do not resolve share the Uncategorized bucket.
func groupByCategory(transactions []models.Transaction, names map[string]string) []CategoryTotal {
	out := []CategoryTotal{}
	index := make(map[string]int)
	for _, t := range transactions {
		key, _ := t.CategoryID.ID()
		if _, ok := names[key]; !ok {
			key = ""
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CategoryTotal{
				CategoryID: key,
				Name:       t.CategoryID.Resolve(names),
				Amount:     decimal.Zero,
				Percentage: decimal.Zero,
			})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

func breakdown(transactions []models.Transaction, names map[string]string, sum decimal.Decimal) []CategoryTotal {
	out := groupByCategory(transactions, names)
	if !sum.IsPositive() {
		return out
	}
	for i := range out {
		out[i].Percentage = out[i].Amount.Div(sum).Mul(hundred).Round(2)
	}
	return out
}

// highest keeps the first category on ties.
func highest(totals []CategoryTotal) *CategoryTotal {
	if len(totals) == 0 {
		return nil
	}
	best := totals[0]
	for _, c := range totals[1:] {
		if c.Amount.GreaterThan(best.Amount) {
			best = c
		}
	}
	return &best
}

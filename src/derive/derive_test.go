package derive

import (
	"reflect"
	"testing"
	"time"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

var now = time.Date(2024, time.July, 15, 12, 0, 0, 0, models.Location)

func on(y int, m time.Month, d int) models.Date {
	return models.NewDate(y, m, d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(id, cat string, amount string, typ models.TransactionType, date models.Date) models.Transaction {
	ref := models.Unresolved()
	if cat != "" {
		ref = models.KnownCategory(cat)
	}
	return models.Transaction{
		ID:          id,
		Description: id,
		Amount:      dec(amount),
		Date:        date,
		Type:        typ,
		CategoryID:  ref,
		UserID:      "u1",
	}
}

func sampleCategories() []models.Category {
	return []models.Category{
		{ID: "food", Name: "Food", UserID: "u1"},
		{ID: "fun", Name: "Entertainment", UserID: "u1"},
		{ID: "rent", Name: "Rent", UserID: "u1"},
	}
}

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		tx("t1", "food", "50", models.Expense, on(2024, time.July, 3)),
		tx("t2", "food", "75", models.Expense, on(2024, time.July, 10)),
		tx("t3", "fun", "25", models.Expense, on(2024, time.July, 12)),
		tx("t4", "food", "100", models.Expense, on(2024, time.June, 20)),
		tx("t5", "", "1500", models.Income, on(2024, time.July, 1)),
	}
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

func TestMonthWindow(t *testing.T) {
	t.Parallel()

	w := MonthWindow(now)
	if !w.Start.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, models.Location)) {
		t.Errorf("Start = %v", w.Start)
	}
	if !w.End.Equal(time.Date(2024, time.July, 31, 23, 59, 59, int(999*time.Millisecond), models.Location)) {
		t.Errorf("End = %v", w.End)
	}
	if got := w.Label(); got != "Jul 2024 - Current" {
		t.Errorf("Label() = %q", got)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"first instant", w.Start, true},
		{"last instant", w.End, true},
		{"before first", w.Start.Add(-time.Nanosecond), false},
		{"after last", w.End.Add(time.Millisecond), false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.at); got != tt.want {
			t.Errorf("%s: Contains = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMonthWindowUsesConfiguredZone(t *testing.T) {
	t.Parallel()

	lastEvening := time.Date(2024, time.July, 31, 23, 30, 0, 0, models.Location)
	firstMorning := time.Date(2024, time.July, 1, 0, 30, 0, 0, models.Location)
	ahead := time.FixedZone("UTC+14", 14*60*60)
	behind := time.FixedZone("UTC-12", -12*60*60)
	wantStart := time.Date(2024, time.July, 1, 0, 0, 0, 0, models.Location)

	for _, clock := range []time.Time{lastEvening.In(ahead), lastEvening.In(behind), firstMorning.In(ahead), firstMorning.In(behind)} {
		w := MonthWindow(clock)
		if !w.Start.Equal(wantStart) {
			t.Errorf("MonthWindow(%v).Start = %v, want %v", clock, w.Start, wantStart)
		}
		if w.Start.Location() != models.Location {
			t.Errorf("MonthWindow(%v) in %v, want %v", clock, w.Start.Location(), models.Location)
		}
	}

	firstDay := []models.Transaction{tx("t1", "food", "40", models.Expense, on(2024, time.July, 1))}
	cats := CategoriesWithSpending(firstMorning.In(behind), sampleCategories(), firstDay)
	for _, c := range cats {
		if c.ID == "food" {
			assertDecimal(t, "food", c.SpendingCurrentMonth, "40")
		}
	}
}

func TestCategoriesWithSpending(t *testing.T) {
	t.Parallel()

	got := CategoriesWithSpending(now, sampleCategories(), sampleTransactions())
	want := map[string]string{"food": "125", "fun": "25", "rent": "0"}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for _, c := range got {
		assertDecimal(t, c.ID, c.SpendingCurrentMonth, want[c.ID])
	}
}

func TestCategoriesWithSpendingBoundaries(t *testing.T) {
	t.Parallel()

	w := MonthWindow(now)
	txs := []models.Transaction{
		tx("first", "food", "1", models.Expense, models.Date{Time: w.Start}),
		tx("last", "food", "2", models.Expense, models.Date{Time: w.End}),
		tx("next", "food", "4", models.Expense, models.Date{Time: w.End.Add(time.Millisecond)}),
	}
	got := CategoriesWithSpending(now, sampleCategories()[:1], txs)
	assertDecimal(t, "food", got[0].SpendingCurrentMonth, "3")
}

func TestCategoriesWithSpendingNotLoaded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		categories []models.Category
		txs        []models.Transaction
	}{
		{"no categories", nil, sampleTransactions()},
		{"no transactions", sampleCategories(), nil},
		{"neither", nil, nil},
	}
	for _, tt := range tests {
		got := CategoriesWithSpending(now, tt.categories, tt.txs)
		if got == nil || len(got) != 0 {
			t.Errorf("%s: got %v, want empty non-nil list", tt.name, got)
		}
	}
}

func TestDerivationsArePure(t *testing.T) {
	t.Parallel()

	cats := sampleCategories()
	txs := sampleTransactions()
	before := append([]models.Transaction(nil), txs...)

	first := CategoriesWithSpending(now, cats, txs)
	second := CategoriesWithSpending(now, cats, txs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("CategoriesWithSpending not idempotent")
	}
	if !reflect.DeepEqual(BuildReport(txs, cats, DateRange{}), BuildReport(txs, cats, DateRange{})) {
		t.Errorf("BuildReport not idempotent")
	}
	if !reflect.DeepEqual(txs, before) {
		t.Errorf("inputs were modified")
	}
	for _, c := range cats {
		if !c.SpendingCurrentMonth.IsZero() {
			t.Errorf("input category %s was modified", c.ID)
		}
	}
}

func TestBudgetsWithProgress(t *testing.T) {
	t.Parallel()

	budgets := []models.Budget{
		{ID: "b1", CategoryID: "food", Limit: dec("100"), UserID: "u1"},
		{ID: "b2", CategoryID: "fun", Limit: dec("200"), UserID: "u1"},
		{ID: "b3", CategoryID: "deleted", Limit: dec("50"), UserID: "u1"},
	}
	got := BudgetsWithProgress(now, budgets, sampleCategories(), sampleTransactions())
	if len(got) != 3 {
		t.Fatalf("got %d budgets", len(got))
	}

	food := got[0]
	assertDecimal(t, "food spent", food.Spent, "125")
	assertDecimal(t, "food remaining", food.Remaining, "-25")
	assertDecimal(t, "food ratio", food.Ratio, "1.25")
	assertDecimal(t, "food percent", food.Percent, "100")
	if !food.OverBudget {
		t.Error("food should be over budget")
	}
	if food.CategoryName != "Food" || food.Period != "Jul 2024 - Current" {
		t.Errorf("food name/period = %q/%q", food.CategoryName, food.Period)
	}

	fun := got[1]
	assertDecimal(t, "fun remaining", fun.Remaining, "175")
	assertDecimal(t, "fun percent", fun.Percent, "12.5")
	if fun.OverBudget {
		t.Error("fun should not be over budget")
	}

	if got[2].CategoryName != models.UncategorizedName {
		t.Errorf("dangling budget name = %q", got[2].CategoryName)
	}
	assertDecimal(t, "dangling spent", got[2].Spent, "0")
}

func TestAvailableCategories(t *testing.T) {
	t.Parallel()

	budgets := []models.Budget{{ID: "b1", CategoryID: "food"}}
	got := AvailableCategories(sampleCategories(), budgets)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if !reflect.DeepEqual(ids, []string{"fun", "rent"}) {
		t.Errorf("available = %v", ids)
	}
	if !HasBudget(budgets, "food", "") || HasBudget(budgets, "food", "b1") {
		t.Error("HasBudget mismatch")
	}
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	txs := append(sampleTransactions(), tx("t6", "ghost", "50", models.Expense, on(2024, time.June, 2)))
	rep := BuildReport(txs, sampleCategories(), DateRange{})

	assertDecimal(t, "total", rep.TotalExpenses, "300")
	if len(rep.MonthlySpending) != 2 {
		t.Fatalf("monthly = %+v", rep.MonthlySpending)
	}
	if rep.MonthlySpending[0].Month != "Jul 2024" || rep.MonthlySpending[1].Month != "Jun 2024" {
		t.Errorf("month order = %+v", rep.MonthlySpending)
	}
	assertDecimal(t, "jul", rep.MonthlySpending[0].Total, "150")
	assertDecimal(t, "jun", rep.MonthlySpending[1].Total, "150")
	assertDecimal(t, "average", rep.AverageMonthlySpending, "150")

	wantNames := []string{"Food", "Entertainment", models.UncategorizedName}
	if len(rep.Breakdown) != len(wantNames) {
		t.Fatalf("breakdown = %+v", rep.Breakdown)
	}
	sum := decimal.Zero
	for i, c := range rep.Breakdown {
		if c.Name != wantNames[i] {
			t.Errorf("breakdown[%d] = %q, want %q", i, c.Name, wantNames[i])
		}
		sum = sum.Add(c.Percentage)
	}
	if sum.Sub(hundred).Abs().GreaterThan(dec("0.05")) {
		t.Errorf("percentages sum to %s", sum)
	}
	assertDecimal(t, "food amount", rep.Breakdown[0].Amount, "225")
	assertDecimal(t, "food pct", rep.Breakdown[0].Percentage, "75")

	if rep.HighestCategory == nil || rep.HighestCategory.Name != "Food" {
		t.Errorf("highest = %+v", rep.HighestCategory)
	}
}

func TestBuildReportFilter(t *testing.T) {
	t.Parallel()

	r, err := ParseDateRange("2024-07-03", "2024-07-10")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	rep := BuildReport(sampleTransactions(), sampleCategories(), r)
	if len(rep.FilteredTransactions) != 2 {
		t.Fatalf("filtered = %+v", rep.FilteredTransactions)
	}
	assertDecimal(t, "filtered total", rep.FilteredTotalExpenses, "125")
	if len(rep.FilteredBreakdown) != 1 || rep.FilteredBreakdown[0].Name != "Food" {
		t.Errorf("filtered breakdown = %+v", rep.FilteredBreakdown)
	}
	assertDecimal(t, "filtered pct", rep.FilteredBreakdown[0].Percentage, "100")
	assertDecimal(t, "unfiltered total", rep.TotalExpenses, "250")

	open, err := ParseDateRange("", "2024-06-30")
	if err != nil {
		t.Fatalf("ParseDateRange open start: %v", err)
	}
	rep = BuildReport(sampleTransactions(), sampleCategories(), open)
	assertDecimal(t, "open start total", rep.FilteredTotalExpenses, "100")

	if _, err := ParseDateRange("2024-07-10", "2024-07-01"); err == nil {
		t.Error("inverted range accepted")
	}
}

func TestBuildReportZeroTotal(t *testing.T) {
	t.Parallel()

	txs := []models.Transaction{tx("t1", "food", "10", models.Expense, on(2024, time.July, 1))}
	r := DateRange{}
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Start = &future
	rep := BuildReport(txs, sampleCategories(), r)
	assertDecimal(t, "filtered total", rep.FilteredTotalExpenses, "0")
	if len(rep.FilteredBreakdown) != 0 {
		t.Errorf("filtered breakdown = %+v", rep.FilteredBreakdown)
	}

	empty := BuildReport(nil, nil, DateRange{})
	if empty.HighestCategory != nil || !empty.AverageMonthlySpending.IsZero() {
		t.Errorf("empty report = %+v", empty)
	}
	for _, c := range breakdown(txs, nil, decimal.Zero) {
		if !c.Percentage.IsZero() {
			t.Errorf("percentage with zero total = %s", c.Percentage)
		}
	}
}

func TestHighestKeepsFirstOnTie(t *testing.T) {
	t.Parallel()

	totals := []CategoryTotal{
		{Name: "A", Amount: dec("10")},
		{Name: "B", Amount: dec("30")},
		{Name: "C", Amount: dec("30")},
	}
	if got := highest(totals); got.Name != "B" {
		t.Errorf("highest = %q, want B", got.Name)
	}
}

func TestBuildDashboard(t *testing.T) {
	t.Parallel()

	txs := append(sampleTransactions(),
		tx("t6", "food", "5", models.Expense, on(2024, time.July, 14)),
		tx("t7", "fun", "8", models.Expense, on(2024, time.May, 1)),
	)
	d := BuildDashboard(now, txs, sampleCategories())

	assertDecimal(t, "income", d.TotalIncome, "1500")
	assertDecimal(t, "expenses", d.TotalExpenses, "155")
	assertDecimal(t, "savings", d.Savings, "1345")
	if d.Period != "Jul 2024" {
		t.Errorf("period = %q", d.Period)
	}
	if len(d.SpendingByCategory) != 2 {
		t.Errorf("spending by category = %+v", d.SpendingByCategory)
	}

	var ids []string
	for _, r := range d.RecentTransactions {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"t6", "t3", "t2", "t1", "t5"}) {
		t.Errorf("recent = %v", ids)
	}
}

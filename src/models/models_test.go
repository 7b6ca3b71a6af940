package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCategoryRefResolve(t *testing.T) {
	t.Parallel()

	names := map[string]string{"cat1": "Food"}
	tests := []struct {
		name string
		ref  CategoryRef
		want string
	}{
		{"known", KnownCategory("cat1"), "Food"},
		{"dangling", KnownCategory("gone"), UncategorizedName},
		{"unresolved", Unresolved(), UncategorizedName},
		{"blank id", KnownCategory("  "), UncategorizedName},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.ref.Resolve(names); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryRefJSON(t *testing.T) {
	t.Parallel()

	var tx Transaction
	if err := json.Unmarshal([]byte(`{"categoryId":null}`), &tx); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if tx.CategoryID.IsKnown() {
		t.Errorf("null categoryId decoded as known %q", tx.CategoryID)
	}

	if err := json.Unmarshal([]byte(`{"categoryId":"cat1"}`), &tx); err != nil {
		t.Fatalf("unmarshal id: %v", err)
	}
	if id, ok := tx.CategoryID.ID(); !ok || id != "cat1" {
		t.Errorf("CategoryID = %q/%v, want cat1/true", id, ok)
	}

	out, err := json.Marshal(struct {
		Ref CategoryRef `json:"ref"`
	}{Unresolved()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"ref":null}` {
		t.Errorf("marshal unresolved = %s", out)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-07-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.July || d.Day() != 15 {
		t.Errorf("ParseDate = %v", d)
	}
	if d.String() != "2024-07-15" {
		t.Errorf("String() = %q, want bare date", d.String())
	}

	ts, err := ParseDate("2024-07-15T10:30:00Z")
	if err != nil {
		t.Fatalf("ParseDate timestamp: %v", err)
	}
	if !ts.Equal(time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("ParseDate timestamp = %v", ts)
	}

	for _, bad := range []string{"", "15/07/2024", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	t.Parallel()

	valid := Transaction{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(5),
		Date:        NewDate(2024, time.July, 1),
		Type:        Expense,
		UserID:      "u1",
	}
	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
	}{
		{"valid", func(*Transaction) {}, ""},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, "description"},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, "amount"},
		{"cents", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("12.34") }, ""},
		{"trailing zeros", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("12.500") }, ""},
		{"sub-cent amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("0.001") }, "amount"},
		{"fraction of a cent", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("10.005") }, "amount"},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, "date"},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestBudgetAndCategoryValidate(t *testing.T) {
	t.Parallel()

	if err := (Budget{CategoryID: "cat1", Limit: decimal.NewFromInt(100)}).Validate(); err != nil {
		t.Errorf("valid budget: %v", err)
	}
	if err := (Budget{CategoryID: "cat1"}).Validate(); err == nil {
		t.Error("zero limit accepted")
	}
	if err := (Budget{CategoryID: "cat1", Limit: decimal.RequireFromString("99.99")}).Validate(); err != nil {
		t.Errorf("limit with cents: %v", err)
	}
	if err := (Budget{CategoryID: "cat1", Limit: decimal.RequireFromString("99.999")}).Validate(); err == nil {
		t.Error("sub-cent limit accepted")
	}
	if err := (Budget{Limit: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Error("missing category accepted")
	}
	if err := (Category{Name: ""}).Validate(); err == nil {
		t.Error("empty category name accepted")
	}
	if !SameName("Food ", "food") {
		t.Error("SameName should ignore case and surrounding space")
	}
}

func TestAmountMarshalsAsNumber(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Budget{ID: "b1", CategoryID: "c1", Limit: decimal.RequireFromString("99.50"), UserID: "u1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"limit":99.5`) {
		t.Errorf("limit not encoded as number: %s", out)
	}
}

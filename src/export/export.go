// Package export renders a filtered transaction table as CSV, PDF or XLSX.
package export

import (
	"fmt"

	"fintrack-server/src/models"

	"github.com/shopspring/decimal"
)

const (
	CSVFilename  = "transactions_report.csv"
	XLSXFilename = "transactions_report.xlsx"
)

var header = []string{"Date", "Category", "Description", "Amount", "Type"}

// Row is one transaction with its category reference resolved for display.
type Row struct {
	Date        string
	Category    string
	Description string
	Amount      decimal.Decimal
	Type        string
}

func (r Row) values() []string {
	return []string{r.Date, r.Category, r.Description, r.Amount.String(), r.Type}
}

func Rows(transactions []models.Transaction, categories []models.Category) []Row {
	names := models.CategoryNames(categories)
	rows := make([]Row, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, Row{
			Date:        t.Date.String(),
			Category:    t.CategoryID.Resolve(names),
			Description: t.Description,
			Amount:      t.Amount,
			Type:        string(t.Type),
		})
	}
	return rows
}

// PDFFilename names a report for the given bounds; an empty bound reads "all".
func PDFFilename(start, end string) string {
	if start == "" {
		start = "all"
	}
	if end == "" {
		end = "all"
	}
	return fmt.Sprintf("Transactions_Report_%s_to_%s.pdf", start, end)
}

func total(rows []Row) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Amount)
	}
	return sum
}

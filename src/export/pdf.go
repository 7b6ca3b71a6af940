package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"
)

// Title and Period head the printed report; Period may be empty.
type PDFOptions struct {
	Title  string
	Period string
}

var pdfColumns = []float64{28, 40, 62, 30, 20}

func WritePDF(w io.Writer, rows []Row, opts PDFOptions) error {
	if opts.Title == "" {
		opts.Title = "Transactions Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.Title, false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(opts.Title))
	pdf.Ln(10)
	if opts.Period != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, tr("Period: "+opts.Period))
		pdf.Ln(9)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(pdfColumns[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		for i, v := range r.values() {
			align := "L"
			if i == 3 {
				align = "R"
				v = r.Amount.StringFixed(2)
			}
			pdf.CellFormat(pdfColumns[i], 7, tr(truncate(v, 34)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s (%d transactions)", total(rows).StringFixed(2), len(rows)))

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

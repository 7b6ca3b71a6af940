package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack-server/src/derive"
	"fintrack-server/src/export"
	"fintrack-server/src/logger"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"
)

func GetReport(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		dr, ok := dateRange(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, false)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpList, "transaction")
			return
		}
		util.WriteJSON(w, http.StatusOK, derive.BuildReport(snap.transactions, snap.categories, dr))
	}
}

func GetDashboard(st store.Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, false)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpList, "transaction")
			return
		}
		util.WriteJSON(w, http.StatusOK, derive.BuildDashboard(now(), snap.transactions, snap.categories))
	}
}

type renderer struct {
	contentType string
	filename    func(start, end string) string
	write       func(w io.Writer, rows []export.Row, period string) error
}

var (
	csvRenderer = renderer{
		contentType: "text/csv; charset=utf-8",
		filename:    func(string, string) string { return export.CSVFilename },
		write: func(w io.Writer, rows []export.Row, _ string) error {
			return export.WriteCSV(w, rows)
		},
	}
	pdfRenderer = renderer{
		contentType: "application/pdf",
		filename:    export.PDFFilename,
		write: func(w io.Writer, rows []export.Row, period string) error {
			return export.WritePDF(w, rows, export.PDFOptions{Period: period})
		},
	}
	xlsxRenderer = renderer{
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		filename:    func(string, string) string { return export.XLSXFilename },
		write: func(w io.Writer, rows []export.Row, _ string) error {
			return export.WriteXLSX(w, rows)
		},
	}
)

func ExportCSV(st store.Store) http.HandlerFunc  { return exportReport(st, csvRenderer) }
func ExportPDF(st store.Store) http.HandlerFunc  { return exportReport(st, pdfRenderer) }
func ExportXLSX(st store.Store) http.HandlerFunc { return exportReport(st, xlsxRenderer) }

// exportReport writes the report's filtered expense table as a file
// download. The body is rendered into memory first so a failure can still
// produce a JSON error.
func exportReport(st store.Store, rd renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		dr, ok := dateRange(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, false)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpExport, "transaction")
			return
		}

		selected := derive.BuildReport(snap.transactions, snap.categories, dr).FilteredTransactions

		start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
		var buf bytes.Buffer
		if err := rd.write(&buf, export.Rows(selected, snap.categories), period(start, end)); err != nil {
			logger.FromContext(r.Context()).Error("failed to render export",
				logger.FieldOperation, logger.OpExport, logger.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.FromContext(r.Context()).Info("report exported",
			logger.FieldOperation, logger.OpExport, logger.FieldCount, len(selected))
		w.Header().Set("Content-Type", rd.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rd.filename(start, end)))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func dateRange(w http.ResponseWriter, r *http.Request) (derive.DateRange, bool) {
	dr, err := derive.ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		util.WriteError(w, http.StatusBadRequest, err.Error())
		return dr, false
	}
	return dr, true
}

func period(start, end string) string {
	switch {
	case start == "" && end == "":
		return "All transactions"
	case start == "":
		return "Through " + end
	case end == "":
		return "From " + start
	default:
		return start + " to " + end
	}
}

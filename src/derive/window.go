// Package derive computes read-time view-models from stored records.
// Every function here is pure: results depend only on the arguments,
// inputs are never modified, and nothing is cached.
package derive

import (
	"time"

	"fintrack-server/src/models"
)

const monthLabelLayout = "Jan 2006"

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the calendar month containing now, from the first
// day at midnight to the last day at 23:59:59.999, in models.Location
// whatever zone the clock reports in.
func MonthWindow(now time.Time) Window {
	y, m, _ := now.In(models.Location).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, models.Location)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return Window{Start: start, End: end}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Label renders the window as a budget period, e.g. "Jul 2024 - Current".
func (w Window) Label() string {
	return w.Start.Format(monthLabelLayout) + " - Current"
}

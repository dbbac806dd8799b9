// Package dates computes the stay windows probed on every polling cycle.
package dates

import (
	"encoding/json"
	"time"
)

// Layout is the ISO date format used in keys, URLs and JSON.
const Layout = "2006-01-02"

// Window is a candidate stay, Start and End being calendar dates at midnight UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window starting on start and lasting nights nights.
func NewWindow(start time.Time, nights int) Window {
	start = Day(start)
	return Window{Start: start, End: start.AddDate(0, 0, nights)}
}

func (w Window) Nights() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

func (w Window) StartDate() string { return w.Start.Format(Layout) }
func (w Window) EndDate() string { return w.End.Format(Layout) }

func (w Window) String() string {
	return w.StartDate() + ".." + w.EndDate()
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Nights    int    `json:"nights"`
	}{w.StartDate(), w.EndDate(), w.Nights()})
}

// Day truncates t to its calendar date, keeping the date t has in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

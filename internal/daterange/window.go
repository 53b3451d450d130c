// Package daterange resolves free-form date-range descriptors into
// day-aligned windows in a fixed reporting timezone.
package daterange

import (
	"fmt"
	"time"

	"github.com/theakshaypant/caldigest/internal/core"
)

// Window is an inclusive [Start, End] reporting period. Start is midnight of
// its date and End is 23:59:59.999999 of its date, both in the reporting zone.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window covering first..last in loc.
func NewWindow(first, last core.Date, loc *time.Location) Window {
	return Window{
		Start: startOfDay(first, loc),
		End:   endOfDay(last, loc),
	}
}

// StartDate returns the calendar date of Start.
func (w Window) StartDate() core.Date { return core.DateOf(w.Start) }

// EndDate returns the calendar date of End.
func (w Window) EndDate() core.Date { return core.DateOf(w.End) }

// Days returns the number of calendar dates covered.
func (w Window) Days() int {
	n := 0
	for d := w.StartDate(); !d.After(w.EndDate()); d = d.AddDays(1) {
		n++
	}
	return n
}

// ContainsDate reports whether d falls inside the window.
func (w Window) ContainsDate(d core.Date) bool {
	return !d.Before(w.StartDate()) && !d.After(w.EndDate())
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.StartDate(), w.EndDate())
}

func startOfDay(d core.Date, loc *time.Location) time.Time {
	return d.In(loc)
}

func endOfDay(d core.Date, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999000, loc)
}

// weekdayIndex numbers weekdays Monday=0 through Sunday=6.
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// lastDayOfMonth uses day 0 of the following month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

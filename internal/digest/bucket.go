package digest

import (
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/daterange"
)

// Bucket folds events into a snapshot keyed by date. Single-day events land
// on their own date; multi-day events are repeated on every date they cover
// inside w. Per-date lists keep the input order.
func Bucket(events []core.Event, w daterange.Window) core.Snapshot {
	snap := core.Snapshot{}
	first, last := w.StartDate(), w.EndDate()

	for _, e := range events {
		if !e.IsMultiDay() {
			if !w.ContainsDate(e.StartDate) {
				continue
			}
			b := snap.Bucket(e.StartDate)
			b.SingleDayEvents = append(b.SingleDayEvents, e)
			continue
		}

		from, to := e.StartDate, e.EndDate
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			b := snap.Bucket(d)
			b.MultiDayEvents = append(b.MultiDayEvents, e)
		}
	}

	return snap
}

package core

import (
	"sort"
)

// DailyBucket holds the events touching one calendar date, in source order.
type DailyBucket struct {
	SingleDayEvents []Event `json:"one_time_events"`
	MultiDayEvents  []Event `json:"ongoing_events"`
}

// NewDailyBucket returns a bucket whose lists serialize as [] rather than null.
func NewDailyBucket() *DailyBucket {
	return &DailyBucket{
		SingleDayEvents: []Event{},
		MultiDayEvents:  []Event{},
	}
}

// Len returns the number of entries in the bucket.
func (b *DailyBucket) Len() int {
	return len(b.SingleDayEvents) + len(b.MultiDayEvents)
}

// Snapshot maps YYYY-MM-DD keys to buckets. Only dates that received at
// least one event are present.
type Snapshot map[string]*DailyBucket

// Bucket returns the bucket for d, creating it on first reference.
func (s Snapshot) Bucket(d Date) *DailyBucket {
	key := d.String()
	b, ok := s[key]
	if !ok {
		b = NewDailyBucket()
		s[key] = b
	}
	return b
}

// Dates returns the snapshot keys in ascending order.
func (s Snapshot) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// EntryCount sums bucket entries across all dates. A multi-day event is
// counted once per date it appears on.
func (s Snapshot) EntryCount() int {
	n := 0
	for _, b := range s {
		n += b.Len()
	}
	return n
}

// Package digest turns raw provider events into a per-day snapshot for a
// reporting window.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/daterange"
	"github.com/theakshaypant/caldigest/internal/links"
	"github.com/theakshaypant/caldigest/internal/util"
)

// SkipReason says why an event was left out of a snapshot.
type SkipReason string

const (
	SkipInvalidStart   SkipReason = "invalid start"
	SkipInvalidEnd     SkipReason = "invalid end"
	SkipEndBeforeStart SkipReason = "end before start"
	SkipOutsideWindow  SkipReason = "outside window"
)

// Skip describes a dropped event. Dates are zero when they could not be
// parsed.
type Skip struct {
	Event     core.RawEvent
	Reason    SkipReason
	StartDate core.Date
	EndDate   core.Date
	Err       error
}

func (s *Skip) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", s.Event.Summary, s.Reason, s.Err)
	}
	return fmt.Sprintf("%s: %s", s.Event.Summary, s.Reason)
}

// Date-time forms without an offset, read as reporting-zone wall time.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalizer converts raw events into core.Event values.
type Normalizer struct {
	settings config.Settings
	loc      *time.Location
}

// NewNormalizer builds a normalizer for the given settings.
func NewNormalizer(s config.Settings) *Normalizer {
	return &Normalizer{
		settings: s,
		loc:      s.Location(),
	}
}

// Normalize converts raw and checks it against w. A non-nil Skip means the
// event must be dropped; the returned Event is then meaningless.
func (n *Normalizer) Normalize(raw core.RawEvent, w daterange.Window) (core.Event, *Skip) {
	start, err := n.parseInstant(raw.Start.String())
	if err != nil {
		return core.Event{}, &Skip{Event: raw, Reason: SkipInvalidStart, Err: err}
	}
	end, err := n.parseInstant(raw.End.String())
	if err != nil {
		return core.Event{}, &Skip{Event: raw, Reason: SkipInvalidEnd, StartDate: core.DateOf(start), Err: err}
	}

	startDate := core.DateOf(start)
	endDate := core.DateOf(end)

	if endDate.Before(startDate) {
		return core.Event{}, &Skip{Event: raw, Reason: SkipEndBeforeStart, StartDate: startDate, EndDate: endDate}
	}
	if endDate.Before(w.StartDate()) || startDate.After(w.EndDate()) {
		return core.Event{}, &Skip{Event: raw, Reason: SkipOutsideWindow, StartDate: startDate, EndDate: endDate}
	}

	description := raw.Description
	if n.settings.EnableHTMLCleaning {
		description = util.Clean(description)
	}

	return core.Event{
		Summary:     raw.Summary,
		Location:    raw.Location,
		Description: description,
		// Links come from the uncleaned text; anchors need their markup.
		BookingLinks: links.Extract(raw.Description),
		Start:        raw.Start.String(),
		End:          raw.End.String(),
		StartDate:    startDate,
		EndDate:      endDate,
	}, nil
}

// parseInstant reads a bare date as midnight in the reporting zone, or a
// date-time (RFC 3339, Z allowed) converted into the reporting zone.
func (n *Normalizer) parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}

	if !strings.Contains(s, "T") {
		t, err := time.ParseInLocation(core.DateLayout, s, n.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		return t, nil
	}

	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.In(n.loc), nil
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, s, n.loc); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date-time %q: %w", s, err)
}

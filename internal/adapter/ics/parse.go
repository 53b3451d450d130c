package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/theakshaypant/caldigest/internal/core"
)

// occurrence is one concrete instance of a VEVENT.
type occurrence struct {
	uid         string
	summary     string
	location    string
	description string
	start       time.Time
	end         time.Time
	allDay      bool
}

func (o occurrence) raw() core.RawEvent {
	ev := core.RawEvent{
		ID:          o.uid,
		Summary:     o.summary,
		Location:    o.location,
		Description: o.description,
	}
	if o.allDay {
		ev.Start = core.EventTime{Date: o.start.Format(core.DateLayout)}
		ev.End = core.EventTime{Date: o.end.Format(core.DateLayout)}
	} else {
		ev.Start = core.EventTime{DateTime: o.start.Format(time.RFC3339)}
		ev.End = core.EventTime{DateTime: o.end.Format(time.RFC3339)}
	}
	return ev
}

// overlaps reports whether o intersects [from, to]. Zero-length events
// count when they start inside the range.
func (o occurrence) overlaps(from, to time.Time) bool {
	if o.start.After(to) {
		return false
	}
	if o.end.Equal(o.start) {
		return !o.start.Before(from)
	}
	return o.end.After(from)
}

// overrideKey identifies a modified instance of a recurring event.
type overrideKey struct {
	uid string
	at  int64
}

// parseFeed decodes every calendar in r and returns the occurrences that
// overlap [from, to]. Malformed events are skipped.
func parseFeed(r io.Reader, loc *time.Location, from, to time.Time) ([]occurrence, error) {
	dec := ical.NewDecoder(r)

	var comps []*ical.Component
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}
		for _, comp := range cal.Children {
			if comp.Name == ical.CompEvent {
				comps = append(comps, comp)
			}
		}
	}

	// RECURRENCE-ID instances replace the generated occurrence they name.
	overridden := make(map[overrideKey]bool)
	for _, comp := range comps {
		prop := comp.Props.Get(ical.PropRecurrenceID)
		if prop == nil {
			continue
		}
		rid, err := prop.DateTime(loc)
		if err != nil {
			continue
		}
		overridden[overrideKey{uid: text(comp, ical.PropUID), at: rid.Unix()}] = true
	}

	var out []occurrence
	for _, comp := range comps {
		base, err := parseEvent(comp, loc)
		if err != nil {
			continue
		}

		if comp.Props.Get(ical.PropRecurrenceID) != nil {
			if base.overlaps(from, to) {
				out = append(out, base)
			}
			continue
		}

		set, err := comp.RecurrenceSet(loc)
		if err != nil {
			continue
		}
		if set == nil {
			if base.overlaps(from, to) {
				out = append(out, base)
			}
			continue
		}

		for _, occ := range expand(base, set, from, to) {
			if overridden[overrideKey{uid: occ.uid, at: occ.start.Unix()}] {
				continue
			}
			out = append(out, occ)
		}
	}

	return out, nil
}

// expand generates the occurrences of a recurring event overlapping
// [from, to], keeping the base event's duration.
func expand(base occurrence, set *rrule.Set, from, to time.Time) []occurrence {
	duration := base.end.Sub(base.start)

	// Look back by the duration to catch instances already in progress.
	starts := set.Between(from.Add(-duration), to, true)

	out := make([]occurrence, 0, len(starts))
	for _, start := range starts {
		occ := base
		occ.start = start
		occ.end = start.Add(duration)
		if occ.allDay {
			days := int(duration.Hours()+12) / 24
			occ.end = start.AddDate(0, 0, days)
		}
		if occ.overlaps(from, to) {
			out = append(out, occ)
		}
	}
	return out
}

func parseEvent(comp *ical.Component, loc *time.Location) (occurrence, error) {
	occ := occurrence{
		uid:         text(comp, ical.PropUID),
		summary:     text(comp, ical.PropSummary),
		location:    text(comp, ical.PropLocation),
		description: text(comp, ical.PropDescription),
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return occ, fmt.Errorf("event %q has no DTSTART", occ.uid)
	}
	start, err := startProp.DateTime(loc)
	if err != nil {
		return occ, fmt.Errorf("parse start: %w", err)
	}
	occ.start = start
	occ.allDay = isDate(startProp)

	switch {
	case comp.Props.Get(ical.PropDateTimeEnd) != nil:
		end, err := comp.Props.Get(ical.PropDateTimeEnd).DateTime(loc)
		if err != nil {
			return occ, fmt.Errorf("parse end: %w", err)
		}
		occ.end = end
	case comp.Props.Get(ical.PropDuration) != nil:
		d, err := comp.Props.Get(ical.PropDuration).Duration()
		if err != nil {
			return occ, fmt.Errorf("parse duration: %w", err)
		}
		occ.end = start.Add(d)
	case occ.allDay:
		occ.end = start.AddDate(0, 0, 1)
	default:
		occ.end = start
	}

	return occ, nil
}

func isDate(prop *ical.Prop) bool {
	return prop.ValueType() == ical.ValueDate || len(prop.Value) == len("20060102")
}

func text(comp *ical.Component, name string) string {
	s, err := comp.Props.Text(name)
	if err != nil {
		return ""
	}
	return s
}

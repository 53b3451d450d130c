package core

// Calendar represents the calendar events are read from.
type Calendar struct {
	// Provider-specific ID (e.g., "primary", "abc123@group.calendar.google.com")
	ID string
	// Human-readable name as shown by the provider (e.g., "Library Events")
	Name string
}

// EventTime is one end of a raw event. Exactly one of Date or DateTime is
// expected to be set; providers copy the value they received verbatim.
type EventTime struct {
	// Bare calendar date, YYYY-MM-DD (all-day events)
	Date string
	// ISO-8601 date-time with offset or a trailing Z
	DateTime string
}

// String returns the value as received, preferring the date-time form.
func (t EventTime) String() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// IsDateOnly reports whether the value carries no time of day.
func (t EventTime) IsDateOnly() bool {
	return t.DateTime == "" && t.Date != ""
}

// RawEvent is an event exactly as a provider delivered it.
// All adapters (Google, Outlook, ICS) convert their data to this format.
type RawEvent struct {
	// Unique ID (provided by the source)
	ID          string
	Summary     string
	Location    string
	Description string
	Start       EventTime
	End         EventTime
}

// Event is a normalized event ready to be bucketed and rendered.
// The JSON shape is consumed as-is by the snapshot file and the mailer.
type Event struct {
	Summary      string   `json:"summary"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	BookingLinks []string `json:"booking_links"`
	// Start/end strings as received from the provider
	Start string `json:"start"`
	End   string `json:"end"`

	// Calendar dates in the reporting timezone
	StartDate Date `json:"-"`
	EndDate   Date `json:"-"`
}

// IsMultiDay reports whether the event touches more than one calendar date.
func (e Event) IsMultiDay() bool {
	return !e.StartDate.Equal(e.EndDate)
}

package core

import (
	"context"
	"time"
)

// FetchOptions configures which events to retrieve.
type FetchOptions struct {
	Start time.Time
	End   time.Time

	// Calendar to read, matched against the provider's calendar names.
	// Empty means the provider's default calendar.
	CalendarName string

	// Upper bound on returned events. Zero means no limit.
	MaxResults int
}

// Provider represents a calendar source (Google, Outlook, ICS feed).
type Provider interface {
	// ID returns the unique identifier from the config (e.g. "google")
	ID() string
	// Name returns a human-readable label (e.g. "Google Calendar")
	Name() string
	// FetchEvents retrieves raw events overlapping the given range, in
	// the order the source returned them.
	// This should block until done or context is cancelled.
	FetchEvents(ctx context.Context, opts FetchOptions) ([]RawEvent, error)
}

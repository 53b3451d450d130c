// Package ics reads events from an iCalendar feed, either a URL or a local
// file.
package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/theakshaypant/caldigest/internal/core"
)

// ICSAdapter serves a single iCalendar feed as a provider.
type ICSAdapter struct {
	id     string
	name   string
	source string
	loc    *time.Location
	client *http.Client
}

// NewICSAdapter reads from source, an http(s) URL or a file path. Floating
// times in the feed are read in loc.
func NewICSAdapter(id, name, source string, loc *time.Location) *ICSAdapter {
	if loc == nil {
		loc = time.UTC
	}
	return &ICSAdapter{
		id:     id,
		name:   name,
		source: source,
		loc:    loc,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *ICSAdapter) ID() string   { return a.id }
func (a *ICSAdapter) Name() string { return a.name }

// Calendars reports the feed itself; a feed is exactly one calendar.
func (a *ICSAdapter) Calendars(_ context.Context) ([]core.Calendar, error) {
	return []core.Calendar{{ID: a.source, Name: a.name}}, nil
}

// FetchEvents downloads and parses the feed, expands recurrences and
// returns occurrences overlapping the range ordered by start time.
// opts.CalendarName is ignored.
func (a *ICSAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.RawEvent, error) {
	if a.source == "" {
		return nil, fmt.Errorf("ics: no feed configured (set ics_url)")
	}

	body, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	occs, err := parseFeed(body, a.loc, opts.Start, opts.End)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].start.Before(occs[j].start)
	})

	results := make([]core.RawEvent, 0, len(occs))
	for _, o := range occs {
		if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
			break
		}
		results = append(results, o.raw())
	}
	return results, nil
}

func (a *ICSAdapter) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(a.source, "http://") && !strings.HasPrefix(a.source, "https://") {
		f, err := os.Open(strings.TrimPrefix(a.source, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open ICS file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/caldigest/internal/core"
)

var pacific = time.FixedZone("-07:00", -7*3600)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//caldigest//test//EN
X-WR-CALNAME:Kids Events
BEGIN:VEVENT
UID:story@test
DTSTAMP:20240801T000000Z
SUMMARY:Story Time
LOCATION:Main Library\, Room 2
DESCRIPTION:Songs and stories.\nBook now: https://lib.test/book
DTSTART:20240806T173000Z
DTEND:20240806T181500Z
END:VEVENT
BEGIN:VEVENT
UID:camp@test
DTSTAMP:20240801T000000Z
SUMMARY:Art Camp
DTSTART;VALUE=DATE:20240805
DTEND;VALUE=DATE:20240808
END:VEVENT
BEGIN:VEVENT
UID:yoga@test
DTSTAMP:20240801T000000Z
SUMMARY:Kids Yoga
DTSTART:20240701T160000Z
DURATION:PT45M
RRULE:FREQ=WEEKLY;BYDAY=MO,TH
END:VEVENT
BEGIN:VEVENT
UID:yoga@test
DTSTAMP:20240801T000000Z
RECURRENCE-ID:20240808T160000Z
SUMMARY:Kids Yoga (moved)
DTSTART:20240809T160000Z
DTEND:20240809T164500Z
END:VEVENT
BEGIN:VEVENT
UID:old@test
DTSTAMP:20240801T000000Z
SUMMARY:Last month
DTSTART;VALUE=DATE:20240701
END:VEVENT
END:VCALENDAR
`

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func week() core.FetchOptions {
	return core.FetchOptions{
		Start: time.Date(2024, 8, 5, 0, 0, 0, 0, pacific),
		End:   time.Date(2024, 8, 11, 23, 59, 59, 999999000, pacific),
	}
}

func summaries(events []core.RawEvent) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Summary)
	}
	return out
}

func TestFetchEventsFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(crlf(feed)))
	}))
	defer srv.Close()

	a := NewICSAdapter("ics", "Kids Events", srv.URL, pacific)
	events, err := a.FetchEvents(context.Background(), week())
	require.NoError(t, err)

	assert.Equal(t, []string{"Art Camp", "Kids Yoga", "Story Time", "Kids Yoga (moved)"}, summaries(events))

	camp := events[0]
	assert.Equal(t, core.EventTime{Date: "2024-08-05"}, camp.Start)
	assert.Equal(t, core.EventTime{Date: "2024-08-08"}, camp.End)

	yoga := events[1]
	assert.Equal(t, "2024-08-05T16:00:00Z", yoga.Start.DateTime)
	assert.Equal(t, "2024-08-05T16:45:00Z", yoga.End.DateTime)

	story := events[2]
	assert.Equal(t, "story@test", story.ID)
	assert.Equal(t, "Main Library, Room 2", story.Location)
	assert.Equal(t, "Songs and stories.\nBook now: https://lib.test/book", story.Description)
	assert.Equal(t, "2024-08-06T17:30:00Z", story.Start.DateTime)
}

func TestFetchEventsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.ics")
	require.NoError(t, os.WriteFile(path, []byte(crlf(feed)), 0o644))

	opts := week()
	opts.MaxResults = 2
	events, err := NewICSAdapter("ics", "Kids Events", "file://"+path, pacific).FetchEvents(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Art Camp", "Kids Yoga"}, summaries(events))
}

func TestFetchEventsErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewICSAdapter("ics", "x", srv.URL, pacific).FetchEvents(context.Background(), week())
	assert.ErrorContains(t, err, "status 404")

	_, err = NewICSAdapter("ics", "x", "", pacific).FetchEvents(context.Background(), week())
	assert.Error(t, err)

	_, err = NewICSAdapter("ics", "x", filepath.Join(t.TempDir(), "missing.ics"), pacific).FetchEvents(context.Background(), week())
	assert.Error(t, err)
}

func TestOccurrenceOverlaps(t *testing.T) {
	from := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 8, 11, 23, 59, 59, 0, time.UTC)
	at := func(d, h int) time.Time { return time.Date(2024, 8, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		occ  occurrence
		want bool
	}{
		{name: "inside", occ: occurrence{start: at(6, 9), end: at(6, 10)}, want: true},
		{name: "ends at range start", occ: occurrence{start: at(4, 0), end: at(5, 0)}, want: false},
		{name: "straddles start", occ: occurrence{start: at(4, 0), end: at(5, 1)}, want: true},
		{name: "after", occ: occurrence{start: at(12, 0), end: at(12, 1)}, want: false},
		{name: "instant inside", occ: occurrence{start: at(7, 9), end: at(7, 9)}, want: true},
		{name: "instant before", occ: occurrence{start: at(4, 9), end: at(4, 9)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.occ.overlaps(from, to))
		})
	}
}

func TestCalendars(t *testing.T) {
	cals, err := NewICSAdapter("ics", "Kids Events", "https://feeds.test/kids.ics", nil).Calendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Calendar{{ID: "https://feeds.test/kids.ics", Name: "Kids Events"}}, cals)
}

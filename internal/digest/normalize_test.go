package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/daterange"
)

func window(t *testing.T, first, last string) daterange.Window {
	t.Helper()
	a, err := core.ParseDate(first)
	require.NoError(t, err)
	b, err := core.ParseDate(last)
	require.NoError(t, err)
	return daterange.NewWindow(a, b, config.DefaultSettings().Location())
}

func allDay(summary, start, end string) core.RawEvent {
	return core.RawEvent{
		Summary: summary,
		Start:   core.EventTime{Date: start},
		End:     core.EventTime{Date: end},
	}
}

func timed(summary, start, end string) core.RawEvent {
	return core.RawEvent{
		Summary: summary,
		Start:   core.EventTime{DateTime: start},
		End:     core.EventTime{DateTime: end},
	}
}

func TestNormalizeDates(t *testing.T) {
	n := NewNormalizer(config.DefaultSettings())
	w := window(t, "2024-08-05", "2024-08-11")

	tests := []struct {
		name      string
		raw       core.RawEvent
		startDate string
		endDate   string
		multiDay  bool
	}{
		{
			name:      "date only",
			raw:       allDay("Fair", "2024-08-06", "2024-08-06"),
			startDate: "2024-08-06",
			endDate:   "2024-08-06",
		},
		{
			name:      "local offset",
			raw:       timed("Story Time", "2024-08-06T10:00:00-07:00", "2024-08-06T11:00:00-07:00"),
			startDate: "2024-08-06",
			endDate:   "2024-08-06",
		},
		{
			name:      "utc suffix converted to reporting zone",
			raw:       timed("Late", "2024-08-07T02:00:00Z", "2024-08-07T03:00:00Z"),
			startDate: "2024-08-06",
			endDate:   "2024-08-06",
		},
		{
			name:      "foreign offset",
			raw:       timed("Call", "2024-08-08T09:00:00+09:00", "2024-08-08T10:00:00+09:00"),
			startDate: "2024-08-07",
			endDate:   "2024-08-07",
		},
		{
			name:      "fractional seconds",
			raw:       timed("Sync", "2024-08-09T08:00:00.0000000Z", "2024-08-09T09:30:00.0000000Z"),
			startDate: "2024-08-09",
			endDate:   "2024-08-09",
		},
		{
			name:      "no offset is reporting wall time",
			raw:       timed("Walk", "2024-08-09T23:30:00", "2024-08-10T00:30:00"),
			startDate: "2024-08-09",
			endDate:   "2024-08-10",
			multiDay:  true,
		},
		{
			name:      "exclusive all-day end stays multi-day",
			raw:       allDay("Holiday", "2024-08-05", "2024-08-06"),
			startDate: "2024-08-05",
			endDate:   "2024-08-06",
			multiDay:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, skip := n.Normalize(tt.raw, w)
			require.Nil(t, skip)
			assert.Equal(t, tt.startDate, ev.StartDate.String())
			assert.Equal(t, tt.endDate, ev.EndDate.String())
			assert.Equal(t, tt.multiDay, ev.IsMultiDay())
			assert.Equal(t, tt.raw.Start.String(), ev.Start)
			assert.Equal(t, tt.raw.End.String(), ev.End)
		})
	}
}

func TestNormalizeSkips(t *testing.T) {
	n := NewNormalizer(config.DefaultSettings())
	w := window(t, "2024-08-01", "2024-08-07")

	tests := []struct {
		name   string
		raw    core.RawEvent
		reason SkipReason
	}{
		{name: "garbage start", raw: allDay("A", "soon", "2024-08-02"), reason: SkipInvalidStart},
		{name: "missing start", raw: allDay("A", "", "2024-08-02"), reason: SkipInvalidStart},
		{name: "impossible date", raw: allDay("A", "2024-02-30", "2024-03-01"), reason: SkipInvalidStart},
		{name: "garbage end", raw: timed("B", "2024-08-02T10:00:00Z", "2024-08-02T25:00:00Z"), reason: SkipInvalidEnd},
		{name: "end before start", raw: allDay("C", "2024-08-04", "2024-08-03"), reason: SkipEndBeforeStart},
		{name: "entirely before", raw: allDay("D", "2024-07-01", "2024-07-05"), reason: SkipOutsideWindow},
		{name: "entirely after", raw: allDay("E", "2024-08-08", "2024-08-08"), reason: SkipOutsideWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip := n.Normalize(tt.raw, w)
			require.NotNil(t, skip)
			assert.Equal(t, tt.reason, skip.Reason)
			assert.Equal(t, tt.raw.Summary, skip.Event.Summary)
		})
	}
}

func TestNormalizePartialOverlapIsKept(t *testing.T) {
	n := NewNormalizer(config.DefaultSettings())
	w := window(t, "2024-08-01", "2024-08-07")

	for _, raw := range []core.RawEvent{
		allDay("Straddles start", "2024-07-30", "2024-08-01"),
		allDay("Straddles end", "2024-08-07", "2024-08-12"),
		allDay("Covers window", "2024-07-01", "2024-09-01"),
	} {
		_, skip := n.Normalize(raw, w)
		assert.Nil(t, skip, raw.Summary)
	}
}

func TestNormalizeDescription(t *testing.T) {
	w := window(t, "2024-08-01", "2024-08-07")
	raw := allDay("Camp", "2024-08-02", "2024-08-02")
	raw.Location = "Main Library"
	raw.Description = `<p>Fun &amp; games.</p> <a href="https://rec.test/e/1">Book your spot</a>`

	t.Run("cleaning disabled", func(t *testing.T) {
		ev, skip := NewNormalizer(config.DefaultSettings()).Normalize(raw, w)
		require.Nil(t, skip)
		assert.Equal(t, raw.Description, ev.Description)
		assert.Equal(t, "Main Library", ev.Location)
		assert.Equal(t, []string{"https://rec.test/e/1"}, ev.BookingLinks)
	})

	t.Run("cleaning enabled keeps links from markup", func(t *testing.T) {
		s := config.DefaultSettings()
		s.EnableHTMLCleaning = true
		ev, skip := NewNormalizer(s).Normalize(raw, w)
		require.Nil(t, skip)
		assert.Equal(t, "Fun & games. Book your spot", ev.Description)
		assert.Equal(t, []string{"https://rec.test/e/1"}, ev.BookingLinks)
	})

	t.Run("missing fields", func(t *testing.T) {
		ev, skip := NewNormalizer(config.DefaultSettings()).Normalize(allDay("", "2024-08-03", "2024-08-03"), w)
		require.Nil(t, skip)
		assert.Empty(t, ev.Summary)
		assert.Empty(t, ev.Description)
		assert.NotNil(t, ev.BookingLinks)
		assert.Empty(t, ev.BookingLinks)
	})
}

func TestNormalizeHonoursOffset(t *testing.T) {
	s := config.DefaultSettings()
	s.ReportingOffset = 2 * time.Hour
	w := daterange.NewWindow(core.NewDate(2024, 8, 1), core.NewDate(2024, 8, 7), s.Location())

	ev, skip := NewNormalizer(s).Normalize(timed("Night", "2024-08-03T23:00:00Z", "2024-08-03T23:30:00Z"), w)
	require.Nil(t, skip)
	assert.Equal(t, "2024-08-04", ev.StartDate.String())
}

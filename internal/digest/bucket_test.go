package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
)

func event(t *testing.T, summary, start, end string) core.Event {
	t.Helper()
	s, err := core.ParseDate(start)
	require.NoError(t, err)
	e, err := core.ParseDate(end)
	require.NoError(t, err)
	return core.Event{
		Summary:      summary,
		BookingLinks: []string{},
		Start:        start,
		End:          end,
		StartDate:    s,
		EndDate:      e,
	}
}

func summaries(events []core.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Summary)
	}
	return out
}

func TestBucketMultiDayIsClamped(t *testing.T) {
	w := window(t, "2024-08-02", "2024-08-10")
	snap := Bucket([]core.Event{event(t, "Camp", "2024-08-01", "2024-08-03")}, w)

	assert.Equal(t, []string{"2024-08-02", "2024-08-03"}, snap.Dates())
	for _, d := range snap.Dates() {
		assert.Equal(t, []string{"Camp"}, summaries(snap[d].MultiDayEvents))
		assert.Empty(t, snap[d].SingleDayEvents)
	}
	assert.NotContains(t, snap, "2024-08-01")
}

func TestBucketClampsBothEnds(t *testing.T) {
	w := window(t, "2024-08-05", "2024-08-07")
	snap := Bucket([]core.Event{event(t, "Exhibit", "2024-08-01", "2024-08-20")}, w)

	assert.Equal(t, []string{"2024-08-05", "2024-08-06", "2024-08-07"}, snap.Dates())
	assert.Equal(t, 3, snap.EntryCount())
}

func TestBucketDropsEventsOutsideWindow(t *testing.T) {
	w := window(t, "2024-08-01", "2024-08-07")
	snap := Bucket([]core.Event{
		event(t, "July camp", "2024-07-01", "2024-07-05"),
		event(t, "Later", "2024-09-01", "2024-09-01"),
	}, w)

	assert.Empty(t, snap)
}

func TestBucketPreservesSourceOrder(t *testing.T) {
	w := window(t, "2024-08-05", "2024-08-11")
	snap := Bucket([]core.Event{
		event(t, "Zumba", "2024-08-06", "2024-08-06"),
		event(t, "Art Camp", "2024-08-05", "2024-08-07"),
		event(t, "Apple picking", "2024-08-06", "2024-08-06"),
		event(t, "Book Fair", "2024-08-06", "2024-08-08"),
	}, w)

	b := snap["2024-08-06"]
	require.NotNil(t, b)
	assert.Equal(t, []string{"Zumba", "Apple picking"}, summaries(b.SingleDayEvents))
	assert.Equal(t, []string{"Art Camp", "Book Fair"}, summaries(b.MultiDayEvents))
}

func TestBucketIsIdempotent(t *testing.T) {
	w := window(t, "2024-08-05", "2024-08-11")
	events := []core.Event{
		event(t, "Story Time", "2024-08-06", "2024-08-06"),
		event(t, "Art Camp", "2024-08-05", "2024-08-07"),
	}

	assert.Equal(t, Bucket(events, w), Bucket(events, w))
}

func TestBuildStoryTimeAndArtCamp(t *testing.T) {
	w := window(t, "2024-08-05", "2024-08-11")
	raw := []core.RawEvent{
		timed("Story Time", "2024-08-06T10:30:00-07:00", "2024-08-06T11:15:00-07:00"),
		allDay("Art Camp", "2024-08-05", "2024-08-07"),
	}

	res := NewBuilder(config.DefaultSettings(), nil).Build(raw, w)

	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Retained, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{"2024-08-05", "2024-08-06", "2024-08-07"}, res.Snapshot.Dates())

	mid := res.Snapshot["2024-08-06"]
	assert.Equal(t, []string{"Story Time"}, summaries(mid.SingleDayEvents))
	assert.Equal(t, []string{"Art Camp"}, summaries(mid.MultiDayEvents))

	for _, d := range []string{"2024-08-05", "2024-08-07"} {
		assert.Empty(t, res.Snapshot[d].SingleDayEvents, d)
		assert.Equal(t, []string{"Art Camp"}, summaries(res.Snapshot[d].MultiDayEvents), d)
	}

	assert.Equal(t, "2 events across 3 days", res.Summary())
}

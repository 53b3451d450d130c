package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/caldigest/internal/core"
)

func ongoingSnapshot() core.Snapshot {
	snap := core.Snapshot{}
	add := func(e core.Event, days ...int) {
		for _, d := range days {
			b := snap.Bucket(core.NewDate(2024, 8, d))
			b.MultiDayEvents = append(b.MultiDayEvents, e)
		}
	}

	add(core.Event{Summary: "Summer Reading Challenge", Start: "2024-08-01", End: "2024-08-31"}, 5, 6)
	add(core.Event{
		Summary:  "Basketball Club [Ages 6-8]",
		Location: "Gym",
		Start:    "2024-08-05T16:00:00-07:00",
		End:      "2024-08-06T17:00:00-07:00",
	}, 5, 6)
	add(core.Event{
		Summary:  "Basketball Club (Ages 9-12)",
		Location: "Gym",
		Start:    "2024-08-05T17:00:00-07:00",
		End:      "2024-08-06T18:00:00-07:00",
	}, 5, 6)
	add(core.Event{
		Summary:  "Harbor Cruise",
		Location: "Marina",
		Start:    "2024-08-05T09:00:00-07:00",
		End:      "2024-08-06T12:00:00-07:00",
	}, 5)
	add(core.Event{Summary: "Shuttle Bus", Start: "2024-08-06T08:00:00-07:00"}, 6)
	return snap
}

func TestCategorizeOngoing(t *testing.T) {
	sections := categorizeOngoing(ongoingSnapshot())
	require.Len(t, sections, 3)

	assert.Equal(t, ongoingSection{
		Heading: "😊 Summer Camps",
		Entries: []string{"Summer Reading Challenge (daily, August 01, 2024)"},
	}, sections[0])

	assert.Equal(t, ongoingSection{
		Heading: "🏀 Weekly Rec Center Programs",
		Entries: []string{
			"Basketball Club [Ages 6-8] – Gym (daily, 04:00PM-05:00PM)",
			"Basketball Club [Ages 9-12] – Gym (daily, 05:00PM-06:00PM)",
		},
	}, sections[1])

	assert.Equal(t, ongoingSection{
		Heading: "⛵ Other Activities",
		Entries: []string{
			"Harbor Cruise – Marina (August 05, 09:00AM-12:00PM)",
			"Shuttle Bus (daily, 08:00AM)",
		},
	}, sections[2])
}

func TestCategorizeOngoingMergesByBaseTitle(t *testing.T) {
	snap := core.Snapshot{}
	morning := core.Event{Summary: "Tennis Camp [Ages 7-9]", Location: "Court 1", Start: "2024-08-05T09:00:00-07:00", End: "2024-08-09T11:00:00-07:00"}
	afternoon := core.Event{Summary: "Tennis Camp [Ages 7-9]", Location: "Court 2", Start: "2024-08-12T13:00:00-07:00"}
	b := snap.Bucket(core.NewDate(2024, 8, 5))
	b.MultiDayEvents = append(b.MultiDayEvents, morning, afternoon)

	sections := categorizeOngoing(snap)
	require.Len(t, sections, 1)
	assert.Equal(t, "😊 Summer Camps", sections[0].Heading)
	// Two starts and one end do not pair up.
	assert.Equal(t, []string{"Tennis Camp [Ages 7-9] – Court 1, Court 2 (daily, 01:00PM, 09:00AM)"}, sections[0].Entries)
}

func TestCategorizeOngoingIgnoresOneTimeEvents(t *testing.T) {
	snap := core.Snapshot{}
	b := snap.Bucket(core.NewDate(2024, 8, 6))
	b.SingleDayEvents = append(b.SingleDayEvents, core.Event{Summary: "Soccer Camp", Start: "2024-08-06"})

	assert.Empty(t, categorizeOngoing(snap))
}

func TestSplitAgeGroup(t *testing.T) {
	tests := []struct {
		in   string
		base string
		age  string
	}{
		{in: "Chess Club [Ages 6-8]", base: "Chess Club", age: "6-8"},
		{in: "Chess Club (Age 9-12)", base: "Chess Club", age: "9-12"},
		{in: "Chess Club", base: "Chess Club", age: ""},
		{in: "Chess Club [ages 6-8]", base: "Chess Club [ages 6-8]", age: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, age := splitAgeGroup(tt.in)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.age, age)
		})
	}
}

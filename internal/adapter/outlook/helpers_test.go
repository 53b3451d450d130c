package outlook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/oauth2"

	"github.com/theakshaypant/caldigest/internal/core"
)

func ptr[T any](v T) *T { return &v }

func graphTime(s string) models.DateTimeTimeZoneable {
	dt := models.NewDateTimeTimeZone()
	dt.SetDateTime(ptr(s))
	dt.SetTimeZone(ptr("UTC"))
	return dt
}

func graphEvent(subject, start, end string, allDay bool) models.Eventable {
	ev := models.NewEvent()
	ev.SetId(ptr("id-" + subject))
	ev.SetSubject(ptr(subject))
	ev.SetIsAllDay(ptr(allDay))
	ev.SetStart(graphTime(start))
	ev.SetEnd(graphTime(end))
	return ev
}

func TestToRawEventTimed(t *testing.T) {
	ev := graphEvent("Story Time", "2024-08-06T17:30:00.0000000", "2024-08-06T18:15:00.0000000", false)

	body := models.NewItemBody()
	body.SetContent(ptr("<p>Book now: https://lib.test/book</p>"))
	ev.SetBody(body)

	loc := models.NewLocation()
	loc.SetDisplayName(ptr("Main Library"))
	ev.SetLocation(loc)

	assert.Equal(t, core.RawEvent{
		ID:          "id-Story Time",
		Summary:     "Story Time",
		Location:    "Main Library",
		Description: "<p>Book now: https://lib.test/book</p>",
		Start:       core.EventTime{DateTime: "2024-08-06T17:30:00Z"},
		End:         core.EventTime{DateTime: "2024-08-06T18:15:00Z"},
	}, toRawEvent(ev))
}

func TestToRawEventAllDay(t *testing.T) {
	raw := toRawEvent(graphEvent("Art Camp", "2024-08-05T00:00:00.0000000", "2024-08-08T00:00:00.0000000", true))
	assert.Equal(t, core.EventTime{Date: "2024-08-05"}, raw.Start)
	assert.Equal(t, core.EventTime{Date: "2024-08-08"}, raw.End)
	assert.Empty(t, raw.Description)
	assert.Empty(t, raw.Location)
}

func TestEventTimeEdgeCases(t *testing.T) {
	assert.Equal(t, core.EventTime{}, eventTime(nil, false))
	assert.Equal(t, core.EventTime{}, eventTime(models.NewDateTimeTimeZone(), false))
	assert.Equal(t, core.EventTime{DateTime: "2024-08-06T09:00:00Z"}, eventTime(graphTime("2024-08-06T09:00:00"), false))
	assert.Equal(t, core.EventTime{DateTime: "tomorrow"}, eventTime(graphTime("tomorrow"), false))
}

func TestCollectSkipsCancelled(t *testing.T) {
	cancelled := graphEvent("Cancelled", "2024-08-06T09:00:00", "2024-08-06T10:00:00", false)
	cancelled.SetIsCancelled(ptr(true))

	var got []core.RawEvent
	got = collect(got, graphEvent("Kept", "2024-08-06T09:00:00", "2024-08-06T10:00:00", false))
	got = collect(got, cancelled)

	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Summary)
}

func TestFindCalendar(t *testing.T) {
	cals := []core.Calendar{{ID: "AAA", Name: "Calendar"}, {ID: "BBB", Name: "Kids Events"}}

	id, err := findCalendar(cals, "Kids Events")
	require.NoError(t, err)
	assert.Equal(t, "BBB", id)

	_, err = findCalendar(cals, "Work")
	assert.EqualError(t, err, `calendar "Work" not found`)
}

func TestNotLoggedIn(t *testing.T) {
	o := NewOutlookAdapter("outlook", "Outlook", "client", "", "token.json", nil)
	_, err := o.FetchEvents(context.Background(), core.FetchOptions{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, "common", o.tenantID)
}

func TestPersistToken(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "fresh", RefreshToken: "r"}

	t.Run("saved", func(t *testing.T) {
		obs, logs := observer.New(zapcore.WarnLevel)
		path := filepath.Join(t.TempDir(), "token.json")
		o := NewOutlookAdapter("outlook", "Outlook", "client", "", path, zap.New(obs))

		o.persistToken(tok)

		assert.Zero(t, logs.Len())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"access_token":"fresh"`)
	})

	t.Run("write failure is logged", func(t *testing.T) {
		obs, logs := observer.New(zapcore.WarnLevel)
		blocker := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))
		path := filepath.Join(blocker, "token.json")
		o := NewOutlookAdapter("outlook", "Outlook", "client", "", path, zap.New(obs))

		o.persistToken(tok)

		entries := logs.FilterMessage("Could not save refreshed token").All()
		require.Len(t, entries, 1)
		assert.Equal(t, path, entries[0].ContextMap()["token_file"])
		assert.Contains(t, entries[0].ContextMap(), "error")
	})
}

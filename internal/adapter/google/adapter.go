package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/oauth"
)

// Largest page the Events.List endpoint will return.
const maxPageSize = 2500

// ErrNotLoggedIn is returned when the adapter is used before Login.
var ErrNotLoggedIn = errors.New("google: not logged in")

type GoogleAdapter struct {
	id        string
	name      string
	credsFile string
	tokenFile string
	service   *calendar.Service
	calendars []core.Calendar
}

func NewGoogleAdapter(id, name, credsFile, tokenFile string) *GoogleAdapter {
	return &GoogleAdapter{
		id:        id,
		name:      name,
		credsFile: credsFile,
		tokenFile: tokenFile,
	}
}

// NewWithService wraps an already configured Calendar service.
func NewWithService(id, name string, svc *calendar.Service) *GoogleAdapter {
	return &GoogleAdapter{id: id, name: name, service: svc}
}

func (g *GoogleAdapter) ID() string   { return g.id }
func (g *GoogleAdapter) Name() string { return g.name }

// OAuthConfig reads the client credentials file for the consent flow.
func OAuthConfig(credsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

// Login loads credentials and token, then initializes the Calendar service.
// Run `caldigest auth` first to generate the token file.
func (g *GoogleAdapter) Login(ctx context.Context) error {
	config, err := OAuthConfig(g.credsFile)
	if err != nil {
		return err
	}

	tok, err := oauth.LoadToken(g.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'caldigest auth' first): %w", err)
	}

	g.service, err = calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return fmt.Errorf("create calendar service: %w", err)
	}
	return nil
}

// Calendars lists the calendars the user can read. The list is fetched once.
func (g *GoogleAdapter) Calendars(ctx context.Context) ([]core.Calendar, error) {
	if g.service == nil {
		return nil, ErrNotLoggedIn
	}
	if g.calendars != nil {
		return g.calendars, nil
	}

	calendars := []core.Calendar{}
	err := g.service.CalendarList.List().Context(ctx).Pages(ctx, func(page *calendar.CalendarList) error {
		for _, cal := range page.Items {
			calendars = append(calendars, core.Calendar{ID: cal.Id, Name: cal.Summary})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	g.calendars = calendars
	return calendars, nil
}

// calendarID maps a calendar name to its ID. Empty means the primary
// calendar.
func (g *GoogleAdapter) calendarID(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "primary", nil
	}

	calendars, err := g.Calendars(ctx)
	if err != nil {
		return "", err
	}
	for _, cal := range calendars {
		if cal.Name == name {
			return cal.ID, nil
		}
	}
	return "", fmt.Errorf("calendar %q not found", name)
}

// FetchEvents returns expanded event instances overlapping the range in
// start-time order, up to opts.MaxResults.
func (g *GoogleAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.RawEvent, error) {
	if g.service == nil {
		return nil, ErrNotLoggedIn
	}

	calID, err := g.calendarID(ctx, opts.CalendarName)
	if err != nil {
		return nil, err
	}

	// RFC 3339 with fractional seconds so timeMax keeps the window's last instant
	tMin := opts.Start.Format(time.RFC3339Nano)
	tMax := opts.End.Format(time.RFC3339Nano)

	results := []core.RawEvent{}
	pageToken := ""

	for {
		pageSize := maxPageSize
		if opts.MaxResults > 0 {
			pageSize = min(pageSize, opts.MaxResults-len(results))
		}

		req := g.service.Events.List(calID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(tMin).
			TimeMax(tMax).
			OrderBy("startTime").
			MaxResults(int64(pageSize)).
			Context(ctx)

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		page, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list events for calendar %s: %w", calID, err)
		}

		for _, item := range page.Items {
			results = append(results, parseEvent(item))
		}

		pageToken = page.NextPageToken
		if pageToken == "" || (opts.MaxResults > 0 && len(results) >= opts.MaxResults) {
			break
		}
	}

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results, nil
}

// parseEvent keeps the provider's start/end strings untouched. All-day end
// dates are exclusive (the day after the last day).
func parseEvent(item *calendar.Event) core.RawEvent {
	return core.RawEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Location:    item.Location,
		Description: item.Description,
		Start:       eventTime(item.Start),
		End:         eventTime(item.End),
	}
}

func eventTime(t *calendar.EventDateTime) core.EventTime {
	if t == nil {
		return core.EventTime{}
	}
	return core.EventTime{Date: t.Date, DateTime: t.DateTime}
}

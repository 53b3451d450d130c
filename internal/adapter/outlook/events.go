package outlook

import (
	"context"
	"fmt"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/theakshaypant/caldigest/internal/core"
)

var selectFields = []string{
	"id", "subject", "body", "start", "end", "location", "isAllDay", "isCancelled",
}

// FetchEvents retrieves the calendar view for the range in start-time order,
// following pages until exhausted or opts.MaxResults is reached.
func (o *OutlookAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.RawEvent, error) {
	if o.client == nil {
		return nil, ErrNotLoggedIn
	}

	calendarID, err := o.calendarID(ctx, opts.CalendarName)
	if err != nil {
		return nil, err
	}

	startStr := opts.Start.UTC().Format(time.RFC3339)
	endStr := opts.End.UTC().Format(time.RFC3339)
	orderBy := []string{"start/dateTime"}
	top := int32(100)

	headers := abstractions.NewRequestHeaders()
	headers.Add("Prefer", `outlook.timezone="UTC"`)

	var result models.EventCollectionResponseable

	if calendarID == defaultCalendar {
		config := &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().CalendarView().Get(ctx, config)
	} else {
		config := &users.ItemCalendarsItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarsItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().Calendars().ByCalendarId(calendarID).CalendarView().Get(ctx, config)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch calendar view: %w", err)
	}

	pageIterator, err := msgraphcore.NewPageIterator[models.Eventable](
		result,
		o.client.GetAdapter(),
		models.CreateEventCollectionResponseFromDiscriminatorValue,
	)
	if err != nil {
		return nil, fmt.Errorf("create page iterator: %w", err)
	}

	results := []core.RawEvent{}
	err = pageIterator.Iterate(ctx, func(item models.Eventable) bool {
		results = collect(results, item)
		return opts.MaxResults <= 0 || len(results) < opts.MaxResults
	})
	if err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return results, nil
}

// collect appends item unless it was cancelled.
func collect(results []core.RawEvent, item models.Eventable) []core.RawEvent {
	if derefBool(item.GetIsCancelled()) {
		return results
	}
	return append(results, toRawEvent(item))
}

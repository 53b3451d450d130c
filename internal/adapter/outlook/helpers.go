package outlook

import (
	"strings"
	"time"

	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/theakshaypant/caldigest/internal/core"
)

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// Graph date-times carry no offset; we ask for UTC with the Prefer header.
var graphLayouts = []string{
	"2006-01-02T15:04:05.0000000",
	"2006-01-02T15:04:05",
}

// eventTime converts a Graph DateTimeTimeZone into the raw string form.
// All-day values become bare dates, others RFC 3339 in UTC.
func eventTime(dt models.DateTimeTimeZoneable, allDay bool) core.EventTime {
	if dt == nil {
		return core.EventTime{}
	}
	raw := derefStr(dt.GetDateTime())
	if raw == "" {
		return core.EventTime{}
	}

	if allDay {
		date, _, _ := strings.Cut(raw, "T")
		return core.EventTime{Date: date}
	}

	for _, layout := range graphLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return core.EventTime{DateTime: t.UTC().Format(time.RFC3339)}
		}
	}
	// Unknown shape; the normalizer will reject it and log the value.
	return core.EventTime{DateTime: raw}
}

// toRawEvent converts a Graph SDK event into a core.RawEvent.
func toRawEvent(item models.Eventable) core.RawEvent {
	allDay := derefBool(item.GetIsAllDay())

	// Description: body.content may be HTML or text
	description := ""
	if body := item.GetBody(); body != nil {
		description = derefStr(body.GetContent())
	}

	location := ""
	if loc := item.GetLocation(); loc != nil {
		location = derefStr(loc.GetDisplayName())
	}

	return core.RawEvent{
		ID:          derefStr(item.GetId()),
		Summary:     derefStr(item.GetSubject()),
		Location:    location,
		Description: description,
		Start:       eventTime(item.GetStart(), allDay),
		End:         eventTime(item.GetEnd(), allDay),
	}
}

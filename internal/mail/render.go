// Package mail renders snapshots as email and delivers them over SMTP.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/links"
)

// NoEventsText is the body used when a snapshot is empty.
const NoEventsText = "No calendar events found for the specified time period."

// Subject builds "Calendar Summary - Aug 05" or "Calendar Summary - Aug 05-Aug 11"
// from the first and last snapshot dates, falling back to now.
func Subject(snap core.Snapshot, now time.Time) string {
	dates := snap.Dates()
	if len(dates) == 0 {
		return "Calendar Summary - " + now.Format("Jan 02")
	}

	first, last := parseKey(dates[0]), parseKey(dates[len(dates)-1])
	if first.Equal(last) {
		return "Calendar Summary - " + first.Format("Jan 02")
	}
	return fmt.Sprintf("Calendar Summary - %s-%s", first.Format("Jan 02"), last.Format("Jan 02"))
}

type htmlRow struct {
	Emoji     string
	Title     string
	Location  string
	Link      string
	ExtraLink string
	Date      string
	Start     string
	End       string
}

type htmlDay struct {
	Heading string
	Ongoing []htmlRow
	OneTime []htmlRow
}

type htmlPage struct {
	Range        string
	Total        int
	Days         int
	OneTimeCount int
	OngoingCount int
	Ongoing      []ongoingSection
	Dates        []htmlDay
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"even": func(i int) bool { return i%2 == 0 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Calendar Summary</title>
</head>
<body style="font-family: Arial, sans-serif; font-size: 16px; margin: 0; padding: 20px; background-color: #f5f5f5;">
<div style="max-width: 800px; margin: 0 auto; background-color: white; border-radius: 8px; overflow: hidden;">
<div style="background-color: #2c3e50; color: white; text-align: center; padding: 30px;">
<h1 style="margin: 0; font-size: 32px; font-weight: 600;">📅 Calendar Summary</h1>
<p style="margin: 10px 0 0 0; font-size: 16px;">Here's your calendar summary for {{.Range}}</p>
</div>
<div style="padding: 30px;">
<div style="background-color: #ecf0f1; border-left: 4px solid #3498db; padding: 20px; margin-bottom: 30px;">
<h3 style="margin: 0 0 10px 0; color: #2c3e50;">📊 Summary</h3>
<p style="margin: 0;"><strong>{{.Total}} total events</strong> across {{.Days}} days</p>
<p style="margin: 5px 0 0 0; color: #7f8c8d; font-size: 14px;">• {{.OneTimeCount}} upcoming one-time events</p>
<p style="margin: 5px 0 0 0; color: #7f8c8d; font-size: 14px;">• {{.OngoingCount}} ongoing events</p>
</div>
{{if .Ongoing}}<div style="margin-bottom: 30px;">
<h2 style="margin: 0 0 20px 0; color: #2c3e50; font-size: 22px; font-weight: 600; border-bottom: 2px solid #e67e22; padding-bottom: 10px;">📅 Ongoing Camps &amp; Weekly Classes</h2>
<div style="background-color: #fef9e7; border: 1px solid #f39c12; border-radius: 6px; padding: 20px;">
{{range .Ongoing}}<div style="margin-bottom: 20px;">
<h3 style="margin: 0 0 15px 0; color: #2c3e50; font-size: 18px; font-weight: 600;">{{.Heading}}</h3>
{{range .Entries}}<div style="margin-bottom: 8px; font-size: 15px; line-height: 1.4; color: #2c3e50;">• {{.}}</div>
{{end}}</div>
{{end}}</div>
</div>
{{end}}{{range .Dates}}<div style="margin-bottom: 25px; border: 1px solid #e0e0e0; border-radius: 6px;">
<div style="background-color: #34495e; color: white; padding: 15px 20px;"><h3 style="margin: 0; font-size: 18px;">{{.Heading}}</h3></div>
<div style="padding: 20px;">
{{if .Ongoing}}<h4 style="margin: 0 0 10px 0; color: #2c3e50;">🔄 Ongoing Events</h4>
{{template "table" .Ongoing}}{{end}}{{if .OneTime}}<h4 style="margin: 0 0 10px 0; color: #2c3e50;">📅 One-time Events</h4>
{{template "table" .OneTime}}{{end}}</div>
</div>
{{end}}</div>
</div>
</body>
</html>
{{define "table"}}<table style="width: 100%; border-collapse: collapse; margin-bottom: 25px; border: 2px solid #ddd;">
<thead><tr>
<th style="width: 50%; background-color: #4285f4; color: white; padding: 12px; text-align: left;">Title</th>
<th style="width: 25%; background-color: #4285f4; color: white; padding: 12px; text-align: left;">Date</th>
<th style="width: 25%; background-color: #4285f4; color: white; padding: 12px; text-align: left;">Start Time</th>
</tr></thead>
<tbody>
{{range $i, $e := .}}<tr style="background-color: {{if even $i}}#f8f9fa{{else}}white{{end}};">
<td style="padding: 12px; border: 1px solid #ddd; vertical-align: top; font-size: 13px;">{{$e.Emoji}} {{if $e.Link}}<a href="{{$e.Link}}" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: 500;">{{$e.Title}}</a>{{else}}<span style="font-weight: 500; color: #333;">{{$e.Title}}</span>{{end}}{{if $e.ExtraLink}}<br><a href="{{$e.ExtraLink}}" target="_blank" style="display: inline-block; background-color: #1a73e8; color: white; padding: 4px 8px; text-decoration: none; border-radius: 3px; font-size: 11px; margin-top: 4px;">Additional Booking</a>{{end}}{{if $e.Location}}<div style="color: #666; font-size: 12px; margin-top: 4px;">📍 {{$e.Location}}</div>{{end}}</td>
<td style="padding: 12px; border: 1px solid #ddd; vertical-align: top; font-size: 13px;">{{$e.Date}}</td>
<td style="padding: 12px; border: 1px solid #ddd; vertical-align: top; font-size: 13px;">{{$e.Start}}{{if $e.End}} - {{$e.End}}{{end}}</td>
</tr>
{{end}}</tbody>
</table>
{{end}}`))

// HTML renders the snapshot as an email body.
func HTML(snap core.Snapshot) (string, error) {
	if len(snap) == 0 {
		return "<p>" + NoEventsText + "</p>", nil
	}

	dates := snap.Dates()
	page := htmlPage{
		Range: describeRange(dates),
		Days:  len(dates),
	}

	for _, key := range dates {
		b := snap[key]
		day := htmlDay{Heading: parseKey(key).Format("Monday, January 02")}
		for _, e := range b.MultiDayEvents {
			day.Ongoing = append(day.Ongoing, newHTMLRow(e))
		}
		for _, e := range b.SingleDayEvents {
			day.OneTime = append(day.OneTime, newHTMLRow(e))
		}
		page.OngoingCount += len(b.MultiDayEvents)
		page.OneTimeCount += len(b.SingleDayEvents)
		page.Dates = append(page.Dates, day)
	}
	page.Total = page.OngoingCount + page.OneTimeCount
	page.Ongoing = categorizeOngoing(snap)

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func newHTMLRow(e core.Event) htmlRow {
	row := htmlRow{
		Emoji:    eventEmoji(e.Summary),
		Title:    e.Summary,
		Location: e.Location,
		Date:     formatDate(e.Start),
		Start:    formatTime(e.Start),
	}
	if end := formatEndTime(e.End); end != row.Start {
		row.End = end
	}

	cleaned := links.CleanAll(e.BookingLinks)
	if len(cleaned) > 0 {
		row.Link = cleaned[0]
	}
	if len(cleaned) > 1 {
		row.ExtraLink = cleaned[1]
	}
	return row
}

func describeRange(dates []string) string {
	first, last := parseKey(dates[0]), parseKey(dates[len(dates)-1])
	if first.Equal(last) {
		return first.Format("Monday, January 02, 2006")
	}
	return fmt.Sprintf("%s - %s", first.Format("January 02"), last.Format("January 02, 2006"))
}

// PlainText renders the text/plain alternative.
func PlainText(snap core.Snapshot) string {
	if len(snap) == 0 {
		return NoEventsText
	}

	var sb strings.Builder
	sb.WriteString("CALENDAR SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, key := range snap.Dates() {
		b := snap[key]
		heading := "Date: " + parseKey(key).Format("Monday, January 02, 2006")
		sb.WriteString(heading + "\n")
		sb.WriteString(strings.Repeat("-", utf8.RuneCountInString(heading)) + "\n\n")

		if len(b.MultiDayEvents) > 0 {
			sb.WriteString("🔄 Ongoing Events:\n")
			sb.WriteString(plainTable(b.MultiDayEvents))
		}
		if len(b.SingleDayEvents) > 0 {
			sb.WriteString("📅 One-time Events:\n")
			sb.WriteString(plainTable(b.SingleDayEvents))
		}
		if b.Len() == 0 {
			sb.WriteString("No events scheduled for this date.\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nThis email was automatically generated from your calendar data.")
	return sb.String()
}

func plainTitle(e core.Event) string {
	title := e.Summary
	if e.Location != "" {
		title += " [" + e.Location + "]"
	}
	if len(e.BookingLinks) > 0 {
		title += " (Booking: " + e.BookingLinks[0] + ")"
	}
	return title
}

func plainTable(events []core.Event) string {
	width := len("Title")
	for _, e := range events {
		if n := utf8.RuneCountInString(plainTitle(e)); n > width {
			width = n
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s | %-10s | %-12s\n", width, "Title", "Date", "Start Time")
	sb.WriteString(strings.Repeat("-", width) + "-+-" + strings.Repeat("-", 10) + "-+-" + strings.Repeat("-", 12) + "\n")
	for _, e := range events {
		fmt.Fprintf(&sb, "%-*s | %-10s | %-12s\n", width, plainTitle(e), formatDate(e.Start), formatTime(e.Start))
	}
	sb.WriteString("\n")
	return sb.String()
}

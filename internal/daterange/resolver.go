package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
)

// Kind classifies a descriptor.
type Kind int

const (
	KindCurrentWeek Kind = iota
	KindExplicitRange
	KindNamedMonth
	KindNextWeek
	KindThisMonth
	KindNextMonth
)

func (k Kind) String() string {
	switch k {
	case KindExplicitRange:
		return "range"
	case KindNamedMonth:
		return "month"
	case KindNextWeek:
		return "next week"
	case KindThisMonth:
		return "this month"
	case KindNextMonth:
		return "next month"
	default:
		return "current week"
	}
}

// ErrUnrecognized is wrapped by ParseError when a descriptor matches no form.
var ErrUnrecognized = errors.New("unrecognized date range")

// ParseError reports a descriptor that could not be resolved.
type ParseError struct {
	Descriptor string
	Reason     string
	Err        error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse date range %q: %s: %v", e.Descriptor, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse date range %q: %s", e.Descriptor, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	numericMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	namedMonthRe   = regexp.MustCompile(`^(\S+)\s+(\S+)$`)
)

// Resolver turns descriptors into windows. Now defaults to time.Now and can
// be replaced to pin "today".
type Resolver struct {
	Location *time.Location
	Now      func() time.Time
}

// NewResolver builds a resolver for the configured reporting zone.
func NewResolver(s config.Settings) *Resolver {
	return &Resolver{
		Location: s.Location(),
		Now:      time.Now,
	}
}

func (r *Resolver) today() core.Date {
	return core.DateOf(r.Now().In(r.Location))
}

// Classify reports which form a descriptor takes without resolving it.
func Classify(descriptor string) Kind {
	s := strings.ToLower(strings.TrimSpace(descriptor))
	switch {
	case s == "":
		return KindCurrentWeek
	case s == "next week":
		return KindNextWeek
	case s == "this month":
		return KindThisMonth
	case s == "next month":
		return KindNextMonth
	case strings.Contains(s, " to "):
		return KindExplicitRange
	default:
		return KindNamedMonth
	}
}

// CurrentWeek returns Monday 00:00 through Sunday 23:59:59.999999 of the
// week containing today.
func (r *Resolver) CurrentWeek() Window {
	monday := r.today()
	monday = monday.AddDays(-weekdayIndex(monday.Weekday()))
	return NewWindow(monday, monday.AddDays(6), r.Location)
}

// ResolveOrDefault resolves descriptor, treating an empty one as the
// current week.
func (r *Resolver) ResolveOrDefault(descriptor string) (Window, error) {
	if strings.TrimSpace(descriptor) == "" {
		return r.CurrentWeek(), nil
	}
	return r.Resolve(descriptor)
}

// Resolve parses a non-empty descriptor. Accepted forms (case-insensitive):
//
//	2024-08-01 to 2024-08-04
//	august 2024, aug 2024, 2024-08
//	next week, this month, next month
func (r *Resolver) Resolve(descriptor string) (Window, error) {
	s := strings.ToLower(strings.TrimSpace(descriptor))

	switch Classify(s) {
	case KindNextWeek:
		return r.nextWeek(), nil
	case KindThisMonth:
		today := r.today()
		return r.month(today.Year(), today.Month()), nil
	case KindNextMonth:
		today := r.today()
		first := core.NewDate(today.Year(), today.Month()+1, 1)
		return r.month(first.Year(), first.Month()), nil
	case KindExplicitRange:
		return r.explicitRange(descriptor, s)
	case KindNamedMonth:
		return r.namedMonth(descriptor, s)
	}

	return Window{}, &ParseError{Descriptor: descriptor, Reason: "empty descriptor", Err: ErrUnrecognized}
}

func (r *Resolver) nextWeek() Window {
	today := r.today()
	monday := today.AddDays(7 - weekdayIndex(today.Weekday()))
	return NewWindow(monday, monday.AddDays(6), r.Location)
}

func (r *Resolver) month(year int, month time.Month) Window {
	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month, lastDayOfMonth(year, month))
	return NewWindow(first, last, r.Location)
}

func (r *Resolver) explicitRange(descriptor, s string) (Window, error) {
	parts := strings.Split(s, " to ")
	if len(parts) != 2 {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: "expected <date> to <date>", Err: ErrUnrecognized}
	}

	first, err := core.ParseDate(strings.TrimSpace(parts[0]))
	if err != nil {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: "invalid start date", Err: err}
	}
	last, err := core.ParseDate(strings.TrimSpace(parts[1]))
	if err != nil {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: "invalid end date", Err: err}
	}
	if last.Before(first) {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("end date %s is before start date %s", last, first)}
	}

	return NewWindow(first, last, r.Location), nil
}

func (r *Resolver) namedMonth(descriptor, s string) (Window, error) {
	if m := numericMonthRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("month %d out of range", month)}
		}
		if year < 1 {
			return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("year %d out of range", year)}
		}
		return r.month(year, time.Month(month)), nil
	}

	m := namedMonthRe.FindStringSubmatch(s)
	if m == nil {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: "expected <month> <year> or <year>-<month>", Err: ErrUnrecognized}
	}

	month, ok := months[m[1]]
	if !ok {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("unknown month %q", m[1])}
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("invalid year %q", m[2]), Err: err}
	}
	if year < 1 || year > 9999 {
		return Window{}, &ParseError{Descriptor: descriptor, Reason: fmt.Sprintf("year %d out of range", year)}
	}

	return r.month(year, month), nil
}

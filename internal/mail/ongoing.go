package mail

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/theakshaypant/caldigest/internal/core"
)

var (
	ageGroupRe   = regexp.MustCompile(`\[Ages?\s*(\d+-\d+)\]|\(Ages?\s*(\d+-\d+)\)`)
	ageGroupTrim = regexp.MustCompile(`\s*(?:\[Ages?\s*\d+-\d+\]|\(Ages?\s*\d+-\d+\))`)
)

// Ongoing events go to the first category whose words appear in the title.
// The last rule has no words and takes the rest. A merged entry is shown as
// daily when its base title contains one of the recurring words.
var categoryRules = []struct {
	heading   string
	words     []string
	recurring []string
}{
	{
		heading:   "😊 Summer Camps",
		words:     []string{"camp", "summer", "immersion", "2025"},
		recurring: []string{"camp", "daily", "weekly", "ongoing", "recurring", "class", "program", "club", "summer"},
	},
	{
		heading:   "🏀 Weekly Rec Center Programs",
		words:     []string{"weekly", "club", "program", "class", "basketball", "volleyball", "tennis", "soccer", "baseball", "track"},
		recurring: []string{"camp", "daily", "weekly", "ongoing", "recurring", "class", "program", "club"},
	},
	{
		heading:   "⛵ Other Activities",
		recurring: []string{"camp", "daily", "weekly", "ongoing", "recurring", "class", "program", "club", "ride", "bus"},
	},
}

type ongoingSection struct {
	Heading string
	Entries []string
}

// ongoingEntry collects every occurrence of one base title and age group.
type ongoingEntry struct {
	base      string
	ageGroup  string
	count     int
	dates     map[string]struct{}
	starts    map[string]struct{}
	ends      map[string]struct{}
	locations []string
}

func newOngoingEntry(base, ageGroup string) *ongoingEntry {
	return &ongoingEntry{
		base:     base,
		ageGroup: ageGroup,
		dates:    make(map[string]struct{}),
		starts:   make(map[string]struct{}),
		ends:     make(map[string]struct{}),
	}
}

func (o *ongoingEntry) add(e core.Event) {
	o.count++
	o.dates[formatDate(e.Start)] = struct{}{}
	o.starts[formatTime(e.Start)] = struct{}{}
	if end := formatEndTime(e.End); end != "" {
		o.ends[end] = struct{}{}
	}
	if e.Location != "" && !slices.Contains(o.locations, e.Location) {
		o.locations = append(o.locations, e.Location)
	}
}

// daily reports whether the entry repeats: several start dates, more
// occurrences than dates, or a recurring word in the title.
func (o *ongoingEntry) daily(recurring []string) bool {
	if len(o.dates) > 1 || o.count > len(o.dates) {
		return true
	}
	lower := strings.ToLower(o.base)
	for _, w := range recurring {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (o *ongoingEntry) text(recurring []string) string {
	var sb strings.Builder
	sb.WriteString(o.base)
	if o.ageGroup != "" {
		sb.WriteString(" [Ages " + o.ageGroup + "]")
	}
	if len(o.locations) > 0 {
		sb.WriteString(" – " + strings.Join(o.locations, ", "))
	}

	// Start and end times pair up only when there are as many of each.
	times := slices.Sorted(maps.Keys(o.starts))
	if ends := slices.Sorted(maps.Keys(o.ends)); len(ends) > 0 && len(ends) == len(times) {
		for i := range times {
			times[i] += "-" + ends[i]
		}
	}

	when := "daily"
	if !o.daily(recurring) {
		// Not daily means exactly one date.
		for d := range o.dates {
			when = d
		}
	}
	fmt.Fprintf(&sb, " (%s, %s)", when, strings.Join(times, ", "))
	return sb.String()
}

func splitAgeGroup(title string) (base, ageGroup string) {
	if m := ageGroupRe.FindStringSubmatch(title); m != nil {
		ageGroup = m[1]
		if ageGroup == "" {
			ageGroup = m[2]
		}
	}
	return strings.TrimSpace(ageGroupTrim.ReplaceAllString(title, "")), ageGroup
}

func categoryOf(title string) int {
	lower := strings.ToLower(title)
	for i, r := range categoryRules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return i
			}
		}
	}
	return len(categoryRules) - 1
}

// categorizeOngoing groups every multi-day occurrence in snap by category,
// merging titles that differ only in their age-group suffix while keeping
// distinct age groups apart. Entries keep first-seen order and empty
// categories are left out.
func categorizeOngoing(snap core.Snapshot) []ongoingSection {
	entries := make([][]*ongoingEntry, len(categoryRules))
	byKey := make([]map[string]*ongoingEntry, len(categoryRules))

	for _, key := range snap.Dates() {
		for _, e := range snap[key].MultiDayEvents {
			c := categoryOf(e.Summary)
			base, age := splitAgeGroup(e.Summary)
			k := base
			if age != "" {
				k += " [Ages " + age + "]"
			}

			if byKey[c] == nil {
				byKey[c] = make(map[string]*ongoingEntry)
			}
			entry, ok := byKey[c][k]
			if !ok {
				entry = newOngoingEntry(base, age)
				byKey[c][k] = entry
				entries[c] = append(entries[c], entry)
			}
			entry.add(e)
		}
	}

	var sections []ongoingSection
	for i, rule := range categoryRules {
		if len(entries[i]) == 0 {
			continue
		}
		s := ongoingSection{Heading: rule.heading}
		for _, entry := range entries[i] {
			s.Entries = append(s.Entries, entry.text(rule.recurring))
		}
		sections = append(sections, s)
	}
	return sections
}

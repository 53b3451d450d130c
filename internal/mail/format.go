package mail

import (
	"strings"
	"time"

	"github.com/theakshaypant/caldigest/internal/core"
)

// parseStart reads an event start as stored in the snapshot.
func parseStart(s string) (time.Time, bool, error) {
	if !strings.Contains(s, "T") {
		t, err := time.Parse(core.DateLayout, s)
		return t, false, err
	}
	if strings.HasSuffix(s, "Z") {
		s = s[:len(s)-1] + "+00:00"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, true, err
}

// formatDate renders "August 06" for either form of start value.
func formatDate(s string) string {
	t, _, err := parseStart(s)
	if err != nil {
		if i := strings.Index(s, "T"); i >= 0 {
			return s[:i]
		}
		return s
	}
	return t.Format("January 02")
}

// formatTime renders "10:30AM" for timed events and the full date for
// all-day ones. Times stay in the offset the provider reported.
func formatTime(s string) string {
	t, timed, err := parseStart(s)
	if err != nil {
		return s
	}
	if timed {
		return t.Format("03:04PM")
	}
	return t.Format("January 02, 2006")
}

// formatEndTime is formatTime for end values; all-day ends render empty.
func formatEndTime(s string) string {
	t, timed, err := parseStart(s)
	if err != nil {
		if strings.Contains(s, "T") {
			return s
		}
		return ""
	}
	if !timed {
		return ""
	}
	return t.Format("03:04PM")
}

var emojiRules = []struct {
	words []string
	emoji string
}{
	{words: []string{"storytime", "story", "read", "book", "tale"}, emoji: "📚"},
	{words: []string{"music", "musica", "jam", "song", "sing"}, emoji: "🎵"},
	{words: []string{"yoga", "zen", "fit", "exercise", "workout"}, emoji: "🧘"},
	{words: []string{"art", "craft", "paint", "draw", "creative"}, emoji: "🎨"},
	{words: []string{"game", "chess", "play", "activity"}, emoji: "🎲"},
	{words: []string{"bike", "bicycle", "outdoor", "beach"}, emoji: "🚲"},
	{words: []string{"photo", "picture", "frame", "media"}, emoji: "🖼️"},
	{words: []string{"baby", "toddler", "infant", "child"}, emoji: "👶"},
	{words: []string{"teen", "adolescent", "youth"}, emoji: "👨‍🎓"},
	{words: []string{"adult", "grown"}, emoji: "👤"},
}

// eventEmoji picks a decoration for a title; first matching rule wins.
func eventEmoji(title string) string {
	lower := strings.ToLower(title)
	for _, r := range emojiRules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.emoji
			}
		}
	}
	return "📅"
}

func parseKey(key string) time.Time {
	t, _ := time.Parse(core.DateLayout, key)
	return t
}

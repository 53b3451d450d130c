// Package links finds booking URLs in calendar event descriptions.
package links

import (
	"regexp"
	"strings"

	"github.com/theakshaypant/caldigest/internal/util"
)

// urlChars is the body of a URL up to whitespace, markup or a quote.
const urlChars = `[^\s<>"']`

type pattern struct {
	re *regexp.Regexp
	// anchorText, when set, requires the captured link text of an <a> tag to
	// mention one of these words.
	anchorText *regexp.Regexp
}

// Booking link patterns, scanned in order. Every match from every pattern is
// kept; earlier patterns win the position of a duplicate.
var patterns = []pattern{
	// Call to action followed by the link
	{re: regexp.MustCompile(`(?i)\b(?:book now|book here|reserve now|book appointment|schedule now)\b[\s:\-]*(\S+)`)},

	// URL mentioning booking words
	{re: regexp.MustCompile(`(?i)(https?://` + urlChars + `*(?:book|reserve|appointment|schedule)` + urlChars + `*)`)},

	// Known booking platforms
	{re: regexp.MustCompile(`(?i)(https?://[^\s<>"'/]*(?:calendly|acuity|square|booksy|mindbody|zenoti)` + urlChars + `*)`)},

	// Anchor whose visible text is a call to action
	{
		re:         regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a\s*>`),
		anchorText: regexp.MustCompile(`(?i)book|reserve|schedule`),
	},

	// Generic booking nouns
	{re: regexp.MustCompile(`(?i)(https?://` + urlChars + `*(?:booking|appointment|reservation|schedule)` + urlChars + `*)`)},
}

// Extract returns the unique booking URLs in description in first-seen
// order. The result is never nil.
func Extract(description string) []string {
	found := []string{}
	if description == "" {
		return found
	}

	seen := make(map[string]struct{})
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatch(description, -1) {
			if p.anchorText != nil && !p.anchorText.MatchString(util.StripTags(m[2])) {
				continue
			}

			candidate := m[1]
			if !strings.HasPrefix(strings.ToLower(candidate), "http") {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			found = append(found, candidate)
		}
	}

	return found
}

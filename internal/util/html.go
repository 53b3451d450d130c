package util

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Match any HTML tag
var tagRe = regexp.MustCompile(`<[^>]+>`)

// Clean turns an HTML-ish description into a single line of plain text:
// entities are decoded, tags removed and whitespace runs collapsed to one
// space. Tags are dropped without a separator, so "a<br>b" becomes "ab".
func Clean(s string) string {
	if s == "" {
		return s
	}

	s = html.UnescapeString(s)
	s = tagRe.ReplaceAllString(s, "")

	return strings.Join(strings.Fields(s), " ")
}

// StripTags removes markup but leaves entities and whitespace alone.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// UnwrapRedirect extracts the real URL from Google redirect wrappers
// like https://www.google.com/url?q=REAL_URL&...
func UnwrapRedirect(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if (u.Host == "www.google.com" || u.Host == "google.com") && u.Path == "/url" {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}

	return rawURL
}

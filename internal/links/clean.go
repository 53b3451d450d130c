package links

import (
	"regexp"
	"strings"

	"github.com/theakshaypant/caldigest/internal/util"
)

var (
	// Leftover `">label` from a partially captured anchor tag
	trailingAttrRe = regexp.MustCompile(`">[^"]*$`)
)

// CleanForDisplay tidies an extracted link for use as an href: markup and
// anchor leftovers are removed, Google redirects unwrapped and a missing
// scheme defaults to https.
func CleanForDisplay(link string) string {
	if link == "" {
		return ""
	}

	link = util.StripTags(link)
	link = trailingAttrRe.ReplaceAllString(link, "")
	link = strings.TrimSpace(strings.Trim(link, `"'`))
	if link == "" {
		return ""
	}

	link = util.UnwrapRedirect(link)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = "https://" + link
	}

	return link
}

// CleanAll applies CleanForDisplay and drops links that end up empty.
func CleanAll(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if c := CleanForDisplay(l); c != "" {
			out = append(out, c)
		}
	}
	return out
}

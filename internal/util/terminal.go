package util

import "github.com/charmbracelet/x/ansi"

// TruncateText shortens s to at most width terminal cells, ending with "…"
// when anything was cut. Wide runes and escape sequences are measured the
// way the terminal draws them.
func TruncateText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

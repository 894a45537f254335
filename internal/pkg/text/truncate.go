// Package text holds small string helpers shared by the sinks.
package text

import "unicode/utf8"

// Truncate cuts s to at most max runes and marks the cut with "...".
// max <= 0 leaves s untouched.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

package flatten

import "regexp"

var (
	newlines = regexp.MustCompile(`\n\n?`)
	// \s in Go is ASCII only; the extra classes cover the rest of Unicode whitespace.
	whitespace = regexp.MustCompile(`[\s\x0b\x1c-\x1f\x{85}\p{Z}]+`)
)

// Normalize replaces every one or two newlines with a space, then
// collapses each run of whitespace into a single space.
func Normalize(text string) string {
	text = newlines.ReplaceAllString(text, " ")
	return whitespace.ReplaceAllString(text, " ")
}

package render

import (
	"strings"
	"unicode/utf8"
)

// MultilineThreshold is the length above which a single-line value is still
// edited as multi-line text.
const MultilineThreshold = 80

// Multiline reports whether value spans lines or is long enough to need a
// textarea.
func Multiline(value string) bool {
	return strings.Contains(value, "\n") || utf8.RuneCountInString(value) > MultilineThreshold
}

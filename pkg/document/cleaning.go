package document

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText normalizes extracted PDF text: collapses runs of whitespace into
// single spaces, trims the result, and drops non-printable characters that
// PDF extraction tends to leak.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

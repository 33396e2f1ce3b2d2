package normalisers

import (
	"regexp"
	"strings"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	trailingWS  = regexp.MustCompile(`[ \t]+\n`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalises extracted text:
//
//   - removes byte-order marks and non-breaking spaces
//   - unifies \r\n and \r line endings to \n
//   - collapses runs of spaces/tabs to a single space
//   - strips trailing whitespace before newlines
//   - collapses three or more consecutive newlines to exactly two
//   - trims leading and trailing whitespace
//
// Pure, total function: no failure modes.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\uFEFF", "")
	text = strings.ReplaceAll(text, "\u00A0", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = trailingWS.ReplaceAllString(text, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

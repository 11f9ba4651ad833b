package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes extracted page text before chunking: CRLF and CR
// become LF, control characters other than newline and tab are dropped, and
// trailing spaces are trimmed from each line. Paragraph structure is kept.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

package extractor

import (
	"strings"
	"unicode"
)

// sanitizeText normalizes whitespace inside one unit of extracted text.
// Runs of spaces and tabs collapse to a single space, line endings are
// unified, and control characters are dropped.
func sanitizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || unicode.Is(unicode.Zs, r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			// skip
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitIntoParagraphs breaks text on blank lines. Consecutive non-blank
// lines belong to one paragraph; empty paragraphs are dropped.
func splitIntoParagraphs(text string) []string {
	var paragraphs []string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = current[:0]
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}
	return paragraphs
}

// printableRatio is the share of printable runes in the text. Values far
// below 1.0 indicate binary garbage posing as text.
func printableRatio(text string) float64 {
	if text == "" {
		return 0
	}
	printable := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

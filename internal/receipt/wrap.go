package receipt

import (
	"strings"
	"unicode/utf8"
)

// WrapDocument wraps parsed blocks into physical printer lines at the
// given character width. Double-size text occupies two cells, so headings
// and lines containing double-size spans wrap at half the width.
func WrapDocument(blocks []Block, maxChars int) []WrappedLine {
	var lines []WrappedLine

	for _, block := range blocks {
		switch block.Kind {
		case BlockHeading:
			wrapped := WrapSpans(block.Spans, maxChars/2)
			for i := range wrapped {
				wrapped[i].Alignment = AlignCenter
			}
			lines = append(lines, wrapped...)

		case BlockLine:
			effective := maxChars
			for _, s := range block.Spans {
				if s.Format.DoubleSize {
					effective = maxChars / 2
					break
				}
			}
			wrapped := WrapSpans(block.Spans, effective)
			for i := range wrapped {
				wrapped[i].Alignment = block.Alignment
			}
			lines = append(lines, wrapped...)

		case BlockDivider:
			lines = append(lines, WrappedLine{
				Spans: []Span{PlainSpan(strings.Repeat("-", maxChars))},
			})

		case BlockColumns:
			lines = append(lines, formatColumns(block.Cells, maxChars))

		case BlockBlank:
			lines = append(lines, WrappedLine{Spans: []Span{PlainSpan("")}})
		}
	}

	return lines
}

// WrapSpans wraps a span sequence at word boundaries to fit maxChars.
// Words are never split: a single word longer than maxChars overflows on
// its own line and the printer clips or wraps it at the physical level.
// Consecutive words with identical formatting merge into one span.
func WrapSpans(spans []Span, maxChars int) []WrappedLine {
	var lines []WrappedLine
	var current []Span
	currentLen := 0

	for _, span := range spans {
		for _, word := range strings.Fields(span.Text) {
			wordLen := utf8.RuneCountInString(word)

			switch {
			case currentLen == 0:
				current = appendText(current, word, span.Format)
				currentLen = wordLen

			case currentLen+1+wordLen <= maxChars:
				current = appendText(current, " ", span.Format)
				current = appendText(current, word, span.Format)
				currentLen += 1 + wordLen

			default:
				lines = append(lines, WrappedLine{Spans: current})
				current = appendText(nil, word, span.Format)
				currentLen = wordLen
			}
		}
	}

	if len(current) > 0 {
		lines = append(lines, WrappedLine{Spans: current})
	}

	if len(lines) == 0 {
		lines = append(lines, WrappedLine{Spans: []Span{PlainSpan("")}})
	}

	return lines
}

// appendText extends the last span when the format matches, otherwise
// opens a new span.
func appendText(spans []Span, text string, format SpanFormat) []Span {
	if n := len(spans); n > 0 && spans[n-1].Format == format {
		spans[n-1].Text += text
		return spans
	}
	return append(spans, Span{Text: text, Format: format})
}

// formatColumns renders a pipe-column row as a single padded line: left
// cell left-justified, right cell right-justified. Only the first two
// cells are used. Overflow is never truncated; the gap shrinks to a
// single space when the texts alone meet or exceed the width.
func formatColumns(cells [][]Span, maxChars int) WrappedLine {
	if len(cells) < 2 {
		var spans []Span
		if len(cells) == 1 {
			spans = cells[0]
		}
		return WrappedLine{Spans: spans}
	}

	leftLen := cellLength(cells[0])
	rightLen := cellLength(cells[1])

	padding := 1
	if leftLen+rightLen < maxChars {
		padding = maxChars - leftLen - rightLen
	}

	spans := make([]Span, 0, len(cells[0])+1+len(cells[1]))
	spans = append(spans, cells[0]...)
	spans = append(spans, PlainSpan(strings.Repeat(" ", padding)))
	spans = append(spans, cells[1]...)

	return WrappedLine{Spans: spans}
}

func cellLength(cell []Span) int {
	total := 0
	for _, s := range cell {
		total += utf8.RuneCountInString(s.Text)
	}
	return total
}

// LineLength returns the total character-cell length of a line's spans.
func LineLength(spans []Span) int {
	return cellLength(spans)
}

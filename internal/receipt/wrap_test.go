package receipt

import (
	"strings"
	"testing"
)

func lineText(line WrappedLine) string {
	var b strings.Builder
	for _, s := range line.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestWrapShortLineNoWrap(t *testing.T) {
	lines := WrapSpans([]Span{PlainSpan("Hello world")}, 42)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if got := LineLength(lines[0].Spans); got != 11 {
		t.Errorf("line length = %d, want 11", got)
	}
}

func TestWrapExactFit(t *testing.T) {
	lines := WrapSpans([]Span{PlainSpan(strings.Repeat("A", 42))}, 42)
	if len(lines) != 1 || LineLength(lines[0].Spans) != 42 {
		t.Fatalf("42-char word at width 42 should be one full line, got %+v", lines)
	}
}

func TestWrapAtWordBoundary(t *testing.T) {
	spans := []Span{PlainSpan("The quick brown fox jumps over the lazy dog near the river")}
	lines := WrapSpans(spans, 42)

	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if got := LineLength(line.Spans); got > 42 {
			t.Errorf("line %d length = %d, exceeds width 42: %q", i, got, lineText(line))
		}
	}
}

func TestWrapNeverSplitsOverlongWord(t *testing.T) {
	longWord := strings.Repeat("A", 50)
	lines := WrapSpans([]Span{PlainSpan(longWord)}, 42)

	if len(lines) != 1 {
		t.Fatalf("overlong word should stay on one line, got %d lines", len(lines))
	}
	if got := LineLength(lines[0].Spans); got != 50 {
		t.Errorf("line length = %d, want the intact 50-char word", got)
	}
}

func TestWrapPreservesWordOrder(t *testing.T) {
	input := "whats up buttercup we are gonna attempt the word splitting situation now and see what happens"
	blocks := ParseMarkdown(input)
	lines := WrapDocument(blocks, 42)

	var outputWords []string
	for i, line := range lines {
		text := lineText(line)
		if LineLength(line.Spans) > 42 {
			t.Errorf("line %d exceeds width 42: %q", i, text)
		}
		outputWords = append(outputWords, strings.Fields(text)...)
	}

	inputWords := strings.Fields(input)
	if strings.Join(outputWords, " ") != strings.Join(inputWords, " ") {
		t.Errorf("wrapped output words = %v, want %v", outputWords, inputWords)
	}
}

func TestWrapDoubleSizeHalvesWidth(t *testing.T) {
	blocks := []Block{HeadingBlock([]Span{HeadingSpan("This is a double size heading text")})}
	lines := WrapDocument(blocks, 42)

	if len(lines) < 2 {
		t.Fatalf("heading should wrap at half width, got %d lines", len(lines))
	}
	for i, line := range lines {
		if got := LineLength(line.Spans); got > 21 {
			t.Errorf("heading line %d length = %d, exceeds 21", i, got)
		}
		if line.Alignment != AlignCenter {
			t.Errorf("heading line %d alignment = %v, want center", i, line.Alignment)
		}
	}
}

func TestWrapDividerExactWidth(t *testing.T) {
	for _, width := range []int{32, 42, 48} {
		lines := WrapDocument([]Block{DividerBlock()}, width)
		if len(lines) != 1 {
			t.Fatalf("divider should produce one line, got %d", len(lines))
		}
		text := lineText(lines[0])
		if len(text) != width || strings.Count(text, "-") != width {
			t.Errorf("divider at width %d = %q", width, text)
		}
	}
}

func TestWrapBlankLine(t *testing.T) {
	lines := WrapDocument([]Block{BlankBlock()}, 42)
	if len(lines) != 1 || lineText(lines[0]) != "" {
		t.Fatalf("blank block should produce one empty line, got %+v", lines)
	}
}

func TestColumnsPadToWidth(t *testing.T) {
	cells := [][]Span{
		{PlainSpan("Coffee")},
		{PlainSpan("$4.50")},
	}
	line := formatColumns(cells, 42)

	if got := LineLength(line.Spans); got != 42 {
		t.Errorf("column line length = %d, want exactly 42: %q", got, lineText(line))
	}
	text := lineText(line)
	if !strings.HasPrefix(text, "Coffee") || !strings.HasSuffix(text, "$4.50") {
		t.Errorf("column line = %q, want left/right justified", text)
	}
}

func TestColumnsKeepFormatting(t *testing.T) {
	cells := [][]Span{
		{BoldSpan("Total")},
		{BoldSpan("$10.25")},
	}
	line := formatColumns(cells, 42)

	if got := LineLength(line.Spans); got != 42 {
		t.Errorf("column line length = %d, want 42", got)
	}
	if !line.Spans[0].Format.Bold {
		t.Errorf("left cell lost bold: %+v", line.Spans[0])
	}
	if !line.Spans[len(line.Spans)-1].Format.Bold {
		t.Errorf("right cell lost bold: %+v", line.Spans[len(line.Spans)-1])
	}
}

func TestColumnsOverflowKeepsMinimumGap(t *testing.T) {
	cells := [][]Span{
		{PlainSpan(strings.Repeat("L", 30))},
		{PlainSpan(strings.Repeat("R", 20))},
	}
	line := formatColumns(cells, 42)

	// Texts exceed the width: single-space gap, no truncation.
	if got := LineLength(line.Spans); got != 51 {
		t.Errorf("overflow column length = %d, want 30+1+20", got)
	}
}

func TestColumnsSingleCellPassesThrough(t *testing.T) {
	cells := [][]Span{{PlainSpan("solo")}}
	line := formatColumns(cells, 42)
	if lineText(line) != "solo" {
		t.Errorf("single cell line = %q, want %q", lineText(line), "solo")
	}
}

func TestColumnsIgnoresExtraCells(t *testing.T) {
	cells := [][]Span{
		{PlainSpan("a")},
		{PlainSpan("b")},
		{PlainSpan("ignored")},
	}
	line := formatColumns(cells, 10)
	if got := lineText(line); got != "a        b" {
		t.Errorf("column line = %q, want third cell ignored", got)
	}
}

func TestWrapCoalescesSameFormatWords(t *testing.T) {
	spans := []Span{BoldSpan("two"), BoldSpan("words")}
	lines := WrapSpans(spans, 42)

	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if len(lines[0].Spans) != 1 {
		t.Errorf("same-format words should merge to one span, got %+v", lines[0].Spans)
	}
	if lines[0].Spans[0].Text != "two words" {
		t.Errorf("merged text = %q, want %q", lines[0].Spans[0].Text, "two words")
	}
}

func TestWrapRealReceiptRespectsWidth(t *testing.T) {
	input := "# RIVERSIDE CAFE\n\nEspresso | $3.00\nCroissant with butter | $4.50\n\n---\n\n**Total** | **$8.25**"
	blocks := ParseMarkdown(input)
	lines := WrapDocument(blocks, 42)

	for i, line := range lines {
		if got := LineLength(line.Spans); got > 42 {
			t.Errorf("line %d length = %d exceeds 42: %q", i, got, lineText(line))
		}
	}
}

func TestEndToEndReceiptLayout(t *testing.T) {
	input := "# RIVERSIDE CAFE\n\nEspresso | $3.00\n\n---\n\n**Total** | **$8.25**"
	lines := WrapDocument(ParseMarkdown(input), 42)

	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d: %+v", len(lines), lines)
	}

	if lines[0].Alignment != AlignCenter || lineText(lines[0]) != "RIVERSIDE CAFE" {
		t.Errorf("line 0 = %q (%v), want centered heading", lineText(lines[0]), lines[0].Alignment)
	}
	if lineText(lines[1]) != "" {
		t.Errorf("line 1 = %q, want blank", lineText(lines[1]))
	}

	item := lineText(lines[2])
	if len(item) != 42 || !strings.HasPrefix(item, "Espresso") || !strings.HasSuffix(item, "$3.00") {
		t.Errorf("line 2 = %q, want 42-wide Espresso/$3.00 columns", item)
	}

	if lineText(lines[3]) != "" {
		t.Errorf("line 3 = %q, want blank", lineText(lines[3]))
	}
	if lineText(lines[4]) != strings.Repeat("-", 42) {
		t.Errorf("line 4 = %q, want 42-dash divider", lineText(lines[4]))
	}
	if lineText(lines[5]) != "" {
		t.Errorf("line 5 = %q, want blank", lineText(lines[5]))
	}

	total := lines[6]
	if LineLength(total.Spans) != 42 {
		t.Errorf("total line length = %d, want 42", LineLength(total.Spans))
	}
	if !total.Spans[0].Format.Bold {
		t.Errorf("total left cell not bold: %+v", total.Spans[0])
	}
}

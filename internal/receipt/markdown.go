package receipt

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// ParseMarkdown parses receipt document text into blocks. It never fails:
// malformed input degrades to plain text.
//
// Pipe-delimited lines (`Item | $10`) become Columns blocks. Everything
// else accumulates into a paragraph buffer flushed through a markdown
// interpreter: headings, bold, emphasis (mapped to underline, thermal
// printers have no italic font), dividers, soft and hard line breaks.
func ParseMarkdown(input string) []Block {
	var blocks []Block
	var pending []string

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			blocks = flushMarkdown(pending, blocks)
			pending = pending[:0]
			blocks = append(blocks, BlankBlock())
			continue
		}

		if isColumnLine(trimmed) {
			blocks = flushMarkdown(pending, blocks)
			pending = pending[:0]
			blocks = append(blocks, parseColumnLine(trimmed))
			continue
		}

		pending = append(pending, line)
	}

	return flushMarkdown(pending, blocks)
}

// isColumnLine reports whether a line uses pipe column syntax. Markdown
// tables (starting and ending with |), headings and code fences are not
// columns.
func isColumnLine(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
		return false
	}
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
		return false
	}
	return true
}

func parseColumnLine(line string) Block {
	parts := strings.Split(line, "|")
	cells := make([][]Span, 0, len(parts))
	for _, cell := range parts {
		cells = append(cells, ParseInline(strings.TrimSpace(cell)))
	}
	return ColumnsBlock(cells)
}

// ParseInline scans a text fragment for **bold**, __bold__, *underline*
// and _underline_ markers with a greedy left-to-right scan. Unmatched
// opening delimiters degrade to literal text.
func ParseInline(input string) []Span {
	var spans []Span
	pos := 0

	for pos < len(input) {
		rest := input[pos:]

		if strings.HasPrefix(rest, "**") {
			if end := strings.Index(rest[2:], "**"); end >= 0 {
				if text := rest[2 : 2+end]; text != "" {
					spans = append(spans, BoldSpan(text))
				}
				pos += 2 + end + 2
				continue
			}
		}

		if strings.HasPrefix(rest, "__") {
			if end := strings.Index(rest[2:], "__"); end >= 0 {
				if text := rest[2 : 2+end]; text != "" {
					spans = append(spans, BoldSpan(text))
				}
				pos += 2 + end + 2
				continue
			}
		}

		if rest[0] == '_' && len(rest) > 1 && rest[1] != '_' {
			if end := strings.Index(rest[1:], "_"); end >= 0 {
				if text := rest[1 : 1+end]; text != "" {
					spans = append(spans, UnderlinedSpan(text))
				}
				pos += 1 + end + 1
				continue
			}
		}

		if rest[0] == '*' && len(rest) > 1 && rest[1] != '*' {
			if end := strings.Index(rest[1:], "*"); end >= 0 {
				if text := rest[1 : 1+end]; text != "" {
					spans = append(spans, UnderlinedSpan(text))
				}
				pos += 1 + end + 1
				continue
			}
		}

		// Plain run. Always consume at least one byte so an unmatched
		// delimiter cannot stall the scan.
		start := pos
		pos++
		for pos < len(input) && input[pos] != '*' && input[pos] != '_' {
			pos++
		}
		spans = append(spans, PlainSpan(input[start:pos]))
	}

	return spans
}

// flushMarkdown runs the accumulated paragraph lines through the markdown
// interpreter and appends the resulting blocks.
func flushMarkdown(pending []string, blocks []Block) []Block {
	if len(pending) == 0 {
		return blocks
	}

	src := []byte(strings.Join(pending, "\n"))
	doc := markdown.Parser().Parse(gmtext.NewReader(src))

	var spans []Span
	boldDepth := 0
	underlineDepth := 0
	inHeading := false

	flushLine := func() {
		if len(spans) > 0 {
			blocks = append(blocks, LineBlock(spans, AlignLeft))
			spans = nil
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				inHeading = true
			} else {
				inHeading = false
				if len(spans) > 0 {
					blocks = append(blocks, HeadingBlock(spans))
					spans = nil
				}
			}

		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				flushLine()
			}

		case *ast.Emphasis:
			delta := 1
			if !entering {
				delta = -1
			}
			if node.Level >= 2 {
				boldDepth += delta
			} else {
				underlineDepth += delta
			}

		case *ast.ThematicBreak:
			if entering {
				blocks = append(blocks, DividerBlock())
			}

		case *ast.Text:
			if entering {
				format := SpanFormat{
					Bold:       boldDepth > 0 || inHeading,
					Underline:  underlineDepth > 0,
					DoubleSize: inHeading,
				}
				if text := string(node.Segment.Value(src)); text != "" {
					spans = append(spans, Span{Text: text, Format: format})
				}
				if node.HardLineBreak() {
					flushLine()
				} else if node.SoftLineBreak() {
					spans = append(spans, PlainSpan(" "))
				}
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			// Code blocks degrade to plain lines.
			if !entering {
				lines := n.(interface{ Lines() *gmtext.Segments }).Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					text := strings.TrimRight(string(seg.Value(src)), "\n")
					blocks = append(blocks, LineBlock([]Span{PlainSpan(text)}, AlignLeft))
				}
			}
		}
		return ast.WalkContinue, nil
	})

	flushLine()
	return blocks
}

// Package receipt turns markdown-like document text into an abstract
// command stream for an 80mm thermal receipt printer: parse into blocks,
// wrap to the printer's character width, compile into commands, and
// execute those commands against a driver.
package receipt

// SpanFormat is the formatting state of a run of text. Compared by value
// to detect format transitions.
type SpanFormat struct {
	Bold       bool
	Underline  bool
	DoubleSize bool
}

// Span is a run of text sharing one format. Never contains a newline.
type Span struct {
	Text   string
	Format SpanFormat
}

// PlainSpan returns an unformatted span.
func PlainSpan(text string) Span {
	return Span{Text: text}
}

// BoldSpan returns a bold span.
func BoldSpan(text string) Span {
	return Span{Text: text, Format: SpanFormat{Bold: true}}
}

// UnderlinedSpan returns an underlined span.
func UnderlinedSpan(text string) Span {
	return Span{Text: text, Format: SpanFormat{Underline: true}}
}

// HeadingSpan returns a bold, double-size span.
func HeadingSpan(text string) Span {
	return Span{Text: text, Format: SpanFormat{Bold: true, DoubleSize: true}}
}

// Alignment of a line on the paper.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// BlockKind tags the Block variant.
type BlockKind int

const (
	// BlockLine is a line of styled spans with an alignment.
	BlockLine BlockKind = iota
	// BlockHeading maps to bold double-size centered text.
	BlockHeading
	// BlockDivider is a full-width horizontal rule.
	BlockDivider
	// BlockColumns is a pipe-delimited row: `Item | $10`.
	BlockColumns
	// BlockBlank is an empty line.
	BlockBlank
)

// Block is one parsed unit of document content. Which fields are
// meaningful depends on Kind: Spans for Line and Heading, Cells for
// Columns, Alignment for Line.
type Block struct {
	Kind      BlockKind
	Spans     []Span
	Cells     [][]Span
	Alignment Alignment
}

// LineBlock builds a Line block.
func LineBlock(spans []Span, alignment Alignment) Block {
	return Block{Kind: BlockLine, Spans: spans, Alignment: alignment}
}

// HeadingBlock builds a Heading block.
func HeadingBlock(spans []Span) Block {
	return Block{Kind: BlockHeading, Spans: spans}
}

// DividerBlock builds a Divider block.
func DividerBlock() Block {
	return Block{Kind: BlockDivider}
}

// ColumnsBlock builds a Columns block.
func ColumnsBlock(cells [][]Span) Block {
	return Block{Kind: BlockColumns, Cells: cells}
}

// BlankBlock builds a BlankLine block.
func BlankBlock() Block {
	return Block{Kind: BlockBlank}
}

// WrappedLine is one physical printer line.
type WrappedLine struct {
	Spans     []Span
	Alignment Alignment
}

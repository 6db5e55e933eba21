// Package escpos encodes ESC/POS command bytes for Epson thermal
// printers and writes them through a transport adapter.
package escpos

import (
	"fmt"

	"github.com/hermesworks/receiptd/internal/printererr"
	"github.com/hermesworks/receiptd/internal/receipt"
)

// Adapter is the byte transport under the printer, usually a USB bulk
// endpoint pair.
type Adapter interface {
	Write(data []byte) (int, error)
	Read(buf []byte) (int, error)
	Close() error
}

// Printer encodes high-level printer operations as ESC/POS sequences.
// It implements receipt.Driver.
type Printer struct {
	adapter Adapter
}

// NewPrinter wraps a transport adapter.
func NewPrinter(adapter Adapter) *Printer {
	return &Printer{adapter: adapter}
}

func (p *Printer) send(data []byte) error {
	if _, err := p.adapter.Write(data); err != nil {
		return printererr.Wrap(printererr.ErrTransport, err)
	}
	return nil
}

// Init resets the printer to its power-on state (ESC @).
func (p *Printer) Init() error {
	return p.send([]byte{0x1b, 0x40})
}

// Bold toggles emphasis (ESC E).
func (p *Printer) Bold(on bool) error {
	return p.send([]byte{0x1b, 0x45, flag(on)})
}

// Underline toggles single underline mode (ESC -).
func (p *Printer) Underline(on bool) error {
	return p.send([]byte{0x1b, 0x2d, flag(on)})
}

// DoubleSize switches between 1x and 2x character size (GS !).
func (p *Printer) DoubleSize(on bool) error {
	var n byte
	if on {
		n = 0x11 // double width and height
	}
	return p.send([]byte{0x1d, 0x21, n})
}

// Justify sets the justification mode (ESC a).
func (p *Printer) Justify(a receipt.Alignment) error {
	var n byte
	switch a {
	case receipt.AlignCenter:
		n = 1
	case receipt.AlignRight:
		n = 2
	}
	return p.send([]byte{0x1b, 0x61, n})
}

// WriteText sends raw text to the print buffer.
func (p *Printer) WriteText(text string) error {
	return p.send([]byte(text))
}

// Feed prints the buffered line and feeds one line.
func (p *Printer) Feed() error {
	return p.send([]byte{0x0a})
}

// Feeds prints and feeds n lines (ESC d).
func (p *Printer) Feeds(n int) error {
	if n < 0 || n > 255 {
		return fmt.Errorf("feed count %d out of range", n)
	}
	return p.send([]byte{0x1b, 0x64, byte(n)})
}

// Cut performs a paper cut (GS V). Partial cut leaves a small tab so the
// receipt does not drop.
func (p *Printer) Cut(partial bool) error {
	m := byte(0x41)
	if partial {
		m = 0x42
	}
	return p.send([]byte{0x1d, 0x56, m, 0x00})
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}

var _ receipt.Driver = (*Printer)(nil)

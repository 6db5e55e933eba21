package escpos

import (
	"github.com/hermesworks/receiptd/internal/printererr"
)

// Status is the printer-reported realtime condition.
type Status struct {
	Online       bool
	CoverOpen    bool
	PaperNearEnd bool
	PaperOut     bool
	Error        bool
}

// ParseStatus decodes the three DLE EOT response bytes (printer, offline
// cause, paper sensor).
func ParseStatus(printerByte, offlineByte, paperByte byte) Status {
	return Status{
		Online:       printerByte&0x08 == 0,
		CoverOpen:    offlineByte&0x04 != 0,
		Error:        offlineByte&0x20 != 0,
		PaperNearEnd: paperByte&0x0c != 0,
		PaperOut:     paperByte&0x60 != 0,
	}
}

// Summary reduces the status to one short label.
func (s Status) Summary() string {
	switch {
	case !s.Online:
		return "Offline"
	case s.PaperOut:
		return "Paper Out"
	case s.CoverOpen:
		return "Cover Open"
	case s.Error:
		return "Error"
	case s.PaperNearEnd:
		return "Paper Low"
	default:
		return "Ready"
	}
}

// Err maps a blocking condition to its error category, or nil when the
// printer can accept a job.
func (s Status) Err() error {
	switch {
	case !s.Online:
		return printererr.ErrOffline
	case s.PaperOut:
		return printererr.ErrPaperOut
	case s.CoverOpen:
		return printererr.ErrCoverOpen
	default:
		return nil
	}
}

// QueryStatus issues the three DLE EOT realtime status requests and
// reads one response byte each.
func (p *Printer) QueryStatus() (Status, error) {
	read := func(n byte) (byte, error) {
		if err := p.send([]byte{0x10, 0x04, n}); err != nil {
			return 0, err
		}
		buf := make([]byte, 1)
		if _, err := p.adapter.Read(buf); err != nil {
			return 0, printererr.Wrap(printererr.ErrTransport, err)
		}
		return buf[0], nil
	}

	printerByte, err := read(1)
	if err != nil {
		return Status{}, err
	}
	offlineByte, err := read(2)
	if err != nil {
		return Status{}, err
	}
	paperByte, err := read(4)
	if err != nil {
		return Status{}, err
	}

	return ParseStatus(printerByte, offlineByte, paperByte), nil
}

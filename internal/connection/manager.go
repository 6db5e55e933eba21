// Package connection owns the single USB printer handle. Opening a USB
// interface is slow and can transiently fail when reopened too quickly
// after a close, so the handle is kept open across prints and torn down
// only on demonstrated failure.
package connection

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/escpos"
	"github.com/hermesworks/receiptd/internal/printererr"
	"github.com/hermesworks/receiptd/internal/receipt"
	"github.com/hermesworks/receiptd/internal/shared/logger"
	"github.com/hermesworks/receiptd/internal/usb"
)

// Opener opens a transport to the printer with the given product id.
type Opener func(productID uint16) (escpos.Adapter, error)

type handle struct {
	printer   *escpos.Printer
	adapter   escpos.Adapter
	productID uint16
	modelName string
}

// Manager guards one optional printer handle behind a mutex. Only one
// caller executes against the printer at a time.
type Manager struct {
	mu   sync.Mutex
	open Opener
	conn *handle
}

// NewManager returns a Manager using the given Opener, or the real USB
// transport when nil.
func NewManager(open Opener) *Manager {
	if open == nil {
		open = func(productID uint16) (escpos.Adapter, error) {
			return usb.Open(productID)
		}
	}
	return &Manager{open: open}
}

// ensure reuses the current handle when it points at the same product id,
// otherwise closes it and opens a fresh one. Callers hold m.mu.
func (m *Manager) ensure(productID uint16, modelName string) (*handle, error) {
	if m.conn != nil {
		if m.conn.productID == productID {
			return m.conn, nil
		}
		m.dropLocked()
	}

	adapter, err := m.open(productID)
	if err != nil {
		return nil, err
	}
	m.conn = &handle{
		printer:   escpos.NewPrinter(adapter),
		adapter:   adapter,
		productID: productID,
		modelName: modelName,
	}
	return m.conn, nil
}

// WithConnection runs op against an open printer handle. On error the
// handle is dropped before the error propagates, forcing the next call
// to reopen.
func (m *Manager) WithConnection(productID uint16, modelName string, op func(*escpos.Printer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, err := m.ensure(productID, modelName)
	if err != nil {
		return err
	}
	if err := op(conn.printer); err != nil {
		logger.Warn("Print operation failed, dropping connection",
			zap.String("model", modelName), zap.Error(err))
		m.dropLocked()
		return err
	}
	return nil
}

// Close drops the handle if one is open.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

func (m *Manager) dropLocked() {
	if m.conn == nil {
		return
	}
	if err := m.conn.adapter.Close(); err != nil {
		logger.Warn("Error closing printer transport", zap.Error(err))
	}
	m.conn = nil
}

// PrintDocument prints wrapped blocks, then feeds and cuts.
func (m *Manager) PrintDocument(productID uint16, modelName string, blocks []receipt.Block, maxChars int) error {
	return m.WithConnection(productID, modelName, func(p *escpos.Printer) error {
		if err := p.Init(); err != nil {
			return err
		}
		commands := receipt.CompileDocument(blocks, maxChars)
		if err := receipt.Execute(commands, p); err != nil {
			return err
		}
		return finish(p, productID)
	})
}

// PrintJob prints a message's text followed by its optional image. The
// image section is bracketed by a re-init so the raster path cannot
// disturb buffered text state, and an image failure does not fail the
// job's text content.
func (m *Manager) PrintJob(productID uint16, modelName string, blocks []receipt.Block, maxChars int, image []byte) error {
	return m.WithConnection(productID, modelName, func(p *escpos.Printer) error {
		if err := p.Init(); err != nil {
			return err
		}
		commands := receipt.CompileDocument(blocks, maxChars)
		if err := receipt.Execute(commands, p); err != nil {
			return err
		}

		if len(image) > 0 {
			if err := p.Feeds(2); err != nil {
				return err
			}
			if err := p.Init(); err != nil {
				return err
			}
			if err := p.PrintBitmap(image); err != nil {
				logger.Warn("Image print failed, text portion kept",
					zap.String("reason", printererr.Describe(err)))
			}
		}
		return finish(p, productID)
	})
}

func finish(p *escpos.Printer, productID uint16) error {
	if err := p.Feeds(3); err != nil {
		return err
	}
	partial := false
	if model := usb.FindKnownModel(usb.EpsonVendorID, productID); model != nil {
		partial = model.SupportsPartialCut
	}
	return p.Cut(partial)
}

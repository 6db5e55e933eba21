// Package usb talks to Epson receipt printers over the USB printer class
// interface.
package usb

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/printererr"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// USB interface class codes.
// Reference: http://www.usb.org/developers/defined_class
const ifaceClassPrinter = 0x07

// Adapter owns one open USB printer: the device, its claimed printer-class
// interface and the bulk endpoints.
type Adapter struct {
	ctx   *gousb.Context
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	out   *gousb.OutEndpoint
	in    *gousb.InEndpoint
	mu    sync.Mutex
}

// Open opens the Epson device with the given product id and claims its
// printer interface.
func Open(productID uint16) (*Adapter, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(EpsonVendorID), gousb.ID(productID))
	if err != nil {
		ctx.Close()
		return nil, classifyOpenError(productID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, printererr.Wrapf(printererr.ErrDeviceNotFound,
			"no USB device %04x:%04x", EpsonVendorID, productID)
	}

	a := &Adapter{ctx: ctx, dev: dev}
	if err := a.claim(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("USB printer opened",
		zap.String("vid", fmt.Sprintf("%04x", EpsonVendorID)),
		zap.String("pid", fmt.Sprintf("%04x", productID)))
	return a, nil
}

// claim finds the printer-class interface and its bulk endpoints.
func (a *Adapter) claim() error {
	if runtime.GOOS == "linux" {
		a.dev.SetAutoDetach(true)
	}

	cfgNum, err := a.dev.ActiveConfigNum()
	if err != nil {
		return printererr.Wrap(printererr.ErrTransport, err)
	}
	cfg, err := a.dev.Config(cfgNum)
	if err != nil {
		return printererr.Wrap(printererr.ErrTransport, err)
	}
	a.cfg = cfg

	ifaceNum := -1
	for _, iface := range cfg.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == ifaceClassPrinter {
				ifaceNum = iface.Number
				break
			}
		}
		if ifaceNum >= 0 {
			break
		}
	}
	if ifaceNum < 0 {
		return printererr.Wrapf(printererr.ErrDeviceNotFound, "no printer interface on device")
	}

	iface, err := cfg.Interface(ifaceNum, 0)
	if err != nil {
		return classifyOpenError(uint16(a.dev.Desc.Product), err)
	}
	a.iface = iface

	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionOut && a.out == nil {
			if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
				a.out = ep
			}
		}
		if epDesc.Direction == gousb.EndpointDirectionIn && a.in == nil {
			if ep, err := iface.InEndpoint(epDesc.Number); err == nil {
				a.in = ep
			}
		}
	}
	if a.out == nil {
		return printererr.Wrapf(printererr.ErrTransport, "no bulk output endpoint")
	}
	return nil
}

// Write sends data to the printer's bulk output endpoint.
func (a *Adapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.out == nil {
		return 0, printererr.Wrapf(printererr.ErrTransport, "device not open")
	}
	n, err := a.out.Write(data)
	if err != nil {
		return n, printererr.Wrap(printererr.ErrTransport, err)
	}
	return n, nil
}

// Read reads a status response from the bulk input endpoint.
func (a *Adapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.in == nil {
		return 0, printererr.Wrapf(printererr.ErrTransport, "no input endpoint")
	}
	n, err := a.in.Read(buf)
	if err != nil {
		return n, printererr.Wrap(printererr.ErrTransport, err)
	}
	return n, nil
}

// Close releases the interface, device and context. Safe to call twice.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
	}
	if a.cfg != nil {
		a.cfg.Close()
		a.cfg = nil
	}
	var err error
	if a.dev != nil {
		err = a.dev.Close()
		a.dev = nil
	}
	if a.ctx != nil {
		if cerr := a.ctx.Close(); err == nil {
			err = cerr
		}
		a.ctx = nil
	}
	a.out = nil
	a.in = nil
	return err
}

// classifyOpenError maps libusb open and claim failures onto error
// categories. Access and busy errors mean another driver holds the
// interface.
func classifyOpenError(productID uint16, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access") || strings.Contains(msg, "busy") ||
		strings.Contains(msg, "permission") {
		return printererr.Wrapf(printererr.ErrDeviceBusy,
			"device %04x:%04x: %v", EpsonVendorID, productID, err)
	}
	return printererr.Wrapf(printererr.ErrDeviceNotFound,
		"failed to open USB device %04x:%04x: %v", EpsonVendorID, productID, err)
}

package usb

import (
	"fmt"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// DiscoveredPrinter describes one attached Epson device.
type DiscoveredPrinter struct {
	VendorID  uint16 `json:"vendor_id"`
	ProductID uint16 `json:"product_id"`
	ModelName string `json:"model_name"`
	Serial    string `json:"serial,omitempty"`
}

// Scan enumerates attached Epson devices. Unknown Epson models are
// reported with their product string so they can still be selected at
// the default wrap width.
func Scan() ([]DiscoveredPrinter, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return IsEpsonDevice(uint16(desc.Vendor))
	})
	for _, dev := range devices {
		defer dev.Close()
	}
	if err != nil && len(devices) == 0 {
		return nil, err
	}

	var printers []DiscoveredPrinter
	for _, dev := range devices {
		vid := uint16(dev.Desc.Vendor)
		pid := uint16(dev.Desc.Product)

		name := ""
		if m := FindKnownModel(vid, pid); m != nil {
			name = m.Name
		} else if s, err := dev.Product(); err == nil && s != "" {
			name = s
		} else {
			name = fmt.Sprintf("Epson %04x", pid)
		}

		serial, _ := dev.SerialNumber()

		logger.Info("Found Epson device",
			zap.String("model", name),
			zap.String("vid", fmt.Sprintf("%04x", vid)),
			zap.String("pid", fmt.Sprintf("%04x", pid)))

		printers = append(printers, DiscoveredPrinter{
			VendorID:  vid,
			ProductID: pid,
			ModelName: name,
			Serial:    serial,
		})
	}
	return printers, nil
}

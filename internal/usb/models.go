package usb

// EpsonVendorID is the USB vendor id shared by all Epson TM-series printers.
const EpsonVendorID uint16 = 0x04b8

// DefaultMaxChars is the wrap width used when the attached model is unknown.
const DefaultMaxChars = 42

// Model describes a supported printer model.
type Model struct {
	Name               string
	ProductIDs         []uint16
	MaxCharsPerLine    int
	SupportsPartialCut bool
}

// KnownModels lists the printers this server has been verified against.
var KnownModels = []Model{
	{
		Name:               "TM-T88VI",
		ProductIDs:         []uint16{0x0e15, 0x0e28},
		MaxCharsPerLine:    48,
		SupportsPartialCut: true,
	},
	{
		Name:               "TM-M50",
		ProductIDs:         []uint16{0x0e36},
		MaxCharsPerLine:    48,
		SupportsPartialCut: true,
	},
}

// FindKnownModel returns the model matching the given vendor and product
// id, or nil when the device is not in the table.
func FindKnownModel(vendorID, productID uint16) *Model {
	if vendorID != EpsonVendorID {
		return nil
	}
	for i := range KnownModels {
		for _, pid := range KnownModels[i].ProductIDs {
			if pid == productID {
				return &KnownModels[i]
			}
		}
	}
	return nil
}

// IsEpsonDevice reports whether the vendor id belongs to Epson.
func IsEpsonDevice(vendorID uint16) bool {
	return vendorID == EpsonVendorID
}

// MaxCharsFor returns the wrap width for a device, falling back to
// DefaultMaxChars for unknown models.
func MaxCharsFor(vendorID, productID uint16) int {
	if m := FindKnownModel(vendorID, productID); m != nil {
		return m.MaxCharsPerLine
	}
	return DefaultMaxChars
}

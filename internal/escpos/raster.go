package escpos

import (
	"bytes"
	"image"
	"image/color"

	_ "image/png"

	"github.com/hermesworks/receiptd/internal/printererr"
)

// PrintBitmap sends a pre-dithered bitmap with the GS v 0 raster command.
// The image is expected to already be 1-bit (0 or 255) from the thermal
// preprocessor; any remaining gray is thresholded at midpoint.
func (p *Printer) PrintBitmap(raw []byte) error {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return printererr.Wrap(printererr.ErrImageDecode, err)
	}
	return p.printRaster(img)
}

func (p *Printer) printRaster(img image.Image) error {
	b := img.Bounds()
	width := b.Dx()
	height := b.Dy()
	widthBytes := (width + 7) / 8

	data := make([]byte, 0, 8+widthBytes*height)
	data = append(data, 0x1d, 0x76, 0x30, 0x00)
	data = append(data, intLowHigh(widthBytes)...)
	data = append(data, intLowHigh(height)...)

	// Pack rows MSB-first; a set bit burns a dot, so dark pixels are 1.
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]byte, widthBytes)
		for x := b.Min.X; x < b.Max.X; x++ {
			if isDark(img.At(x, y)) {
				col := x - b.Min.X
				row[col/8] |= 0x80 >> uint(col%8)
			}
		}
		data = append(data, row...)
	}

	return p.send(data)
}

func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y < 128
}

// intLowHigh encodes a 16-bit value little-endian as ESC/POS expects.
func intLowHigh(v int) []byte {
	return []byte{byte(v & 0xff), byte(v >> 8)}
}

package engine

import (
	"image/color"

	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// Surface is what a frame draws on. Coordinates are in viewport units with
// the origin at the top-left; Text positions the top-left of the line.
type Surface interface {
	Clear()
	FillRect(x, y, w, h float64, c color.Color)
	StrokeRect(x, y, w, h, width float64, c color.Color)
	Line(x1, y1, x2, y2, width float64, c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	Text(s string, x, y float64, c color.Color)
	// DrawIcon draws the icon for cat centered on (cx, cy), scaled to size,
	// rotated by rotation radians about its center.
	DrawIcon(cat sim.Category, cx, cy, size, rotation, opacity float64)
}

// Resizer is implemented by surfaces that track the viewport themselves.
type Resizer interface {
	Resize(size sim.Size)
}

var (
	palette = [sim.PaletteSize]color.NRGBA{
		{0x00, 0xff, 0x9d, 0xff},
		{0x00, 0xc3, 0xff, 0xff},
		{0xf7, 0x93, 0x1a, 0xff},
		{0x62, 0x7e, 0xea, 0xff},
		{0x14, 0xf1, 0x95, 0xff},
	}
	blockFill = color.NRGBA{0x12, 0x12, 0x12, 0xff}
	textWhite = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	accent    = palette[0]
	secondary = palette[1]
)

// Palette returns the color for a block's color tag.
func Palette(tag int) color.NRGBA {
	if tag < 0 {
		tag = -tag
	}
	return palette[tag%len(palette)]
}

// alpha returns c with its opacity scaled to a in [0, 1].
func alpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(clamp01(a) * 255)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

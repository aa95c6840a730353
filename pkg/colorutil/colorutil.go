// Package colorutil provides shared color helpers for annotating and probing frames.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
)

// Display colors for signal annotations.
var (
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Hex formats c as a lowercase #rrggbb string.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h / 2, s, v
}

// HSVToRGB is the inverse of RGBToHSV. h is in half-degrees (0-180),
// s and v in 0-255. Results are rounded to the nearest 8-bit value.
func HSVToRGB(h, s, v float64) color.RGBA {
	hd := math.Mod(h*2, 360)
	if hd < 0 {
		hd += 360
	}
	sf := s / 255.0
	vf := v / 255.0

	c := vf * sf
	x := c * (1 - math.Abs(math.Mod(hd/60, 2)-1))
	m := vf - c

	var r, g, b float64
	switch {
	case hd < 60:
		r, g, b = c, x, 0
	case hd < 120:
		r, g, b = x, c, 0
	case hd < 180:
		r, g, b = 0, c, x
	case hd < 240:
		r, g, b = 0, x, c
	case hd < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

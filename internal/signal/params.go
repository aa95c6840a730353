package signal

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// HSV is a color in OpenCV 8-bit HSV convention: H 0-180, S 0-255, V 0-255.
type HSV struct {
	H, S, V uint8
}

// ColorRange is an inclusive lower/upper HSV bound.
type ColorRange struct {
	Lower HSV
	Upper HSV
}

// Contains reports whether c falls inside the range on all three axes.
func (r ColorRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

func (r ColorRange) scalars() (lower, upper gocv.Scalar) {
	lower = gocv.NewScalar(float64(r.Lower.H), float64(r.Lower.S), float64(r.Lower.V), 0)
	upper = gocv.NewScalar(float64(r.Upper.H), float64(r.Upper.S), float64(r.Upper.V), 0)
	return lower, upper
}

// Params holds the classifier thresholds.
// See DefaultParams for the hand-tuned values.
type Params struct {
	// Red hue wraps across 0/180, so it is the union of two bands.
	Red    []ColorRange
	Yellow []ColorRange
	Green  []ColorRange

	// KernelSize is the width and height of the elliptical opening kernel.
	KernelSize int

	// MinPixels is the count a color must exceed to be reported.
	MinPixels int
}

// DefaultParams returns the thresholds tuned for lit traffic lamps.
// All bands require strong saturation (S >= 100) and moderate brightness (V >= 80)
// so that washed-out backgrounds never register.
func DefaultParams() Params {
	return Params{
		Red: []ColorRange{
			{Lower: HSV{0, 100, 80}, Upper: HSV{12, 255, 255}},
			{Lower: HSV{168, 100, 80}, Upper: HSV{180, 255, 255}},
		},
		Yellow: []ColorRange{
			{Lower: HSV{20, 100, 80}, Upper: HSV{35, 255, 255}},
		},
		Green: []ColorRange{
			{Lower: HSV{45, 100, 80}, Upper: HSV{90, 255, 255}},
		},
		KernelSize: 5,
		MinPixels:  50,
	}
}

// WithMinPixels returns a copy of params with a different acceptance threshold.
func (p Params) WithMinPixels(n int) Params {
	p.MinPixels = n
	return p
}

// WithKernelSize returns a copy of params with a different opening kernel size.
func (p Params) WithKernelSize(size int) Params {
	p.KernelSize = size
	return p
}

// Validate checks that every band is well formed and the kernel is usable.
func (p Params) Validate() error {
	bands := map[Key][]ColorRange{KeyRed: p.Red, KeyYellow: p.Yellow, KeyGreen: p.Green}
	for _, key := range []Key{KeyRed, KeyYellow, KeyGreen} {
		ranges := bands[key]
		if len(ranges) == 0 {
			return fmt.Errorf("%s: no color ranges", key)
		}
		for i, r := range ranges {
			if r.Lower.H > 180 || r.Upper.H > 180 {
				return fmt.Errorf("%s range %d: hue must be within 0-180", key, i)
			}
			if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
				return fmt.Errorf("%s range %d: lower bound exceeds upper bound", key, i)
			}
		}
	}
	if p.KernelSize < 1 {
		return fmt.Errorf("invalid kernel size %d", p.KernelSize)
	}
	if p.MinPixels < 0 {
		return fmt.Errorf("invalid minimum pixel count %d", p.MinPixels)
	}
	return nil
}

// ranges returns the bands configured for key.
func (p Params) ranges(key Key) []ColorRange {
	switch key {
	case KeyRed:
		return p.Red
	case KeyYellow:
		return p.Yellow
	case KeyGreen:
		return p.Green
	}
	return nil
}

func (p Params) kernel() gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(p.KernelSize, p.KernelSize))
}

package signal

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrInvalidInput is returned for frames the classifier cannot read:
// empty, zero-sized, or not 8-bit 3-channel BGR.
var ErrInvalidInput = errors.New("invalid input image")

// Classifier decides which signal color dominates a frame.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	params Params
}

// NewClassifier returns a classifier using params.
func NewClassifier(params Params) (*Classifier, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier params: %w", err)
	}
	return &Classifier{params: params}, nil
}

// Default returns a classifier with DefaultParams.
func Default() *Classifier {
	return &Classifier{params: DefaultParams()}
}

// Params returns the thresholds the classifier was built with.
func (c *Classifier) Params() Params {
	return c.params
}

// Masks holds the denoised per-color masks of one frame.
// The caller must Close it.
type Masks struct {
	Red    gocv.Mat
	Yellow gocv.Mat
	Green  gocv.Mat
}

// Get returns the mask for key. KeyNone has no mask.
func (m *Masks) Get(key Key) (gocv.Mat, bool) {
	switch key {
	case KeyRed:
		return m.Red, true
	case KeyYellow:
		return m.Yellow, true
	case KeyGreen:
		return m.Green, true
	}
	return gocv.Mat{}, false
}

// Counts returns the number of set pixels in each mask.
func (m *Masks) Counts() Counts {
	return Counts{
		Red:    gocv.CountNonZero(m.Red),
		Yellow: gocv.CountNonZero(m.Yellow),
		Green:  gocv.CountNonZero(m.Green),
	}
}

// Close releases all three masks.
func (m *Masks) Close() {
	m.Red.Close()
	m.Yellow.Close()
	m.Green.Close()
}

// Detect classifies a BGR frame. The frame is only read.
func (c *Classifier) Detect(img gocv.Mat) (Result, error) {
	masks, err := c.DebugMasks(img)
	if err != nil {
		return Result{}, err
	}
	defer masks.Close()

	counts := masks.Counts()
	return newResult(Decide(counts, c.params.MinPixels), counts), nil
}

// DetectImage converts a Go image to BGR and classifies it.
func (c *Classifier) DetectImage(src image.Image) (Result, error) {
	mat, err := ImageToMat(src)
	if err != nil {
		return Result{}, err
	}
	defer mat.Close()

	return c.Detect(mat)
}

// DebugMasks returns the opened red, yellow and green masks without deciding.
// Detect counts exactly these masks.
func (c *Classifier) DebugMasks(img gocv.Mat) (*Masks, error) {
	if err := checkFrame(img); err != nil {
		return nil, err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	kernel := c.params.kernel()
	defer kernel.Close()

	return &Masks{
		Red:    c.colorMask(hsv, KeyRed, kernel),
		Yellow: c.colorMask(hsv, KeyYellow, kernel),
		Green:  c.colorMask(hsv, KeyGreen, kernel),
	}, nil
}

// colorMask builds the union of key's bands and removes speckle with an opening.
func (c *Classifier) colorMask(hsv gocv.Mat, key Key, kernel gocv.Mat) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)

	band := gocv.NewMat()
	defer band.Close()
	for _, r := range c.params.ranges(key) {
		lower, upper := r.scalars()
		gocv.InRangeWithScalar(hsv, lower, upper, &band)
		// OR, not add: two 255 masks must stay 255 rather than wrap.
		gocv.BitwiseOr(mask, band, &mask)
	}

	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)
	return mask
}

// Decide applies the pixel-count rule. In priority order red, yellow, green,
// a color wins only if its count exceeds minPixels and strictly exceeds both
// other counts. Anything else, including ties, is KeyNone.
func Decide(c Counts, minPixels int) Key {
	switch {
	case c.Red > minPixels && c.Red > c.Yellow && c.Red > c.Green:
		return KeyRed
	case c.Yellow > minPixels && c.Yellow > c.Red && c.Yellow > c.Green:
		return KeyYellow
	case c.Green > minPixels && c.Green > c.Red && c.Green > c.Yellow:
		return KeyGreen
	default:
		return KeyNone
	}
}

func checkFrame(img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("%w: empty frame", ErrInvalidInput)
	}
	if img.Rows() == 0 || img.Cols() == 0 {
		return fmt.Errorf("%w: zero-sized frame %dx%d", ErrInvalidInput, img.Cols(), img.Rows())
	}
	if img.Channels() != 3 {
		return fmt.Errorf("%w: expected 3 channels, got %d", ErrInvalidInput, img.Channels())
	}
	if img.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("%w: expected 8-bit BGR frame, got type %v", ErrInvalidInput, img.Type())
	}
	return nil
}

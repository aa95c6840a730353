package signal_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"traffic-signal/internal/signal"
	"traffic-signal/internal/testimage"
	"traffic-signal/pkg/colorutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		counts signal.Counts
		want   signal.Key
	}{
		{"nothing", signal.Counts{}, signal.KeyNone},
		{"red at threshold", signal.Counts{Red: 50}, signal.KeyNone},
		{"red above threshold", signal.Counts{Red: 51}, signal.KeyRed},
		{"yellow wins", signal.Counts{Red: 60, Yellow: 400, Green: 10}, signal.KeyYellow},
		{"green wins", signal.Counts{Red: 60, Yellow: 70, Green: 80}, signal.KeyGreen},
		{"red green tie", signal.Counts{Red: 100, Green: 100}, signal.KeyNone},
		{"yellow green tie", signal.Counts{Yellow: 300, Green: 300, Red: 10}, signal.KeyNone},
		{"three way tie", signal.Counts{Red: 90, Yellow: 90, Green: 90}, signal.KeyNone},
		{"leader below threshold", signal.Counts{Red: 20, Yellow: 30, Green: 40}, signal.KeyNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signal.Decide(tt.counts, 50))
		})
	}
}

func TestDetectUniformGray(t *testing.T) {
	img := testimage.Uniform(120, 80, colorutil.Gray)
	defer img.Close()

	res, err := signal.Default().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyNone, res.Key)
	assert.Equal(t, "NO SIGNAL", res.Label)
	assert.Equal(t, colorutil.White, res.Color)
	assert.Equal(t, signal.Counts{}, res.Counts)
}

func TestDetectLowHueRed(t *testing.T) {
	img := testimage.Uniform(100, 100, colorutil.Gray)
	defer img.Close()
	testimage.Block(&img, image.Rect(30, 30, 60, 60), colorutil.HSVToRGB(6, 220, 230))

	res, err := signal.Default().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyRed, res.Key)
	assert.Greater(t, res.Counts.Red, 50)
	assert.Zero(t, res.Counts.Yellow)
	assert.Zero(t, res.Counts.Green)
}

func TestDetectHighHueRed(t *testing.T) {
	img := testimage.Uniform(100, 100, colorutil.Gray)
	defer img.Close()
	testimage.Block(&img, image.Rect(30, 30, 60, 60), colorutil.HSVToRGB(170, 255, 255))

	res, err := signal.Default().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyRed, res.Key)
	assert.Equal(t, "RED SIGNAL", res.Label)
}

func TestDetectBothRedBandsStaySaturated(t *testing.T) {
	img := testimage.Uniform(120, 60, colorutil.Gray)
	defer img.Close()
	testimage.Block(&img, image.Rect(10, 10, 50, 50), colorutil.HSVToRGB(4, 255, 255))
	testimage.Block(&img, image.Rect(70, 10, 110, 50), colorutil.HSVToRGB(174, 255, 255))

	masks, err := signal.Default().DebugMasks(img)
	require.NoError(t, err)
	defer masks.Close()

	// Every set pixel must be exactly 255; a wrapping sum would leave other values.
	total := gocv.CountNonZero(masks.Red)
	full := gocv.NewMat()
	defer full.Close()
	gocv.InRangeWithScalar(masks.Red, gocv.NewScalar(255, 0, 0, 0), gocv.NewScalar(255, 0, 0, 0), &full)
	assert.Equal(t, total, gocv.CountNonZero(full))
	assert.Greater(t, total, 2*50)
}

func TestDetectTieIsNone(t *testing.T) {
	img := testimage.Uniform(160, 80, colorutil.Gray)
	defer img.Close()
	testimage.Block(&img, image.Rect(20, 20, 40, 40), colorutil.Red)
	testimage.Block(&img, image.Rect(100, 20, 120, 40), colorutil.Green)

	res, err := signal.Default().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, res.Counts.Red, res.Counts.Green)
	assert.Greater(t, res.Counts.Red, 50)
	assert.Equal(t, signal.KeyNone, res.Key)
}

func TestDetectRemovesSpeckle(t *testing.T) {
	img := testimage.Uniform(200, 200, colorutil.Gray)
	defer img.Close()
	// 100 isolated red pixels: more than MinPixels before opening, none after.
	for y := 5; y < 200; y += 20 {
		for x := 5; x < 200; x += 20 {
			testimage.Block(&img, image.Rect(x, y, x+1, y+1), colorutil.Red)
		}
	}

	res, err := signal.Default().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyNone, res.Key)
	assert.Zero(t, res.Counts.Red)
}

func TestDetectSignalScenes(t *testing.T) {
	tests := []struct {
		key   signal.Key
		label string
		color color.RGBA
	}{
		{signal.KeyRed, "RED SIGNAL", colorutil.Red},
		{signal.KeyYellow, "YELLOW SIGNAL", colorutil.Yellow},
		{signal.KeyGreen, "GREEN SIGNAL", colorutil.Green},
		{signal.KeyNone, "NO SIGNAL", colorutil.White},
	}

	det := signal.Default()
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			img := testimage.SignalScene(tt.key)
			defer img.Close()
			require.Equal(t, testimage.SceneWidth, img.Cols())
			require.Equal(t, testimage.SceneHeight, img.Rows())

			res, err := det.Detect(img)
			require.NoError(t, err)
			assert.Equal(t, tt.key, res.Key)
			assert.Equal(t, tt.label, res.Label)
			assert.Equal(t, tt.color, res.Color)
		})
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	img := testimage.SignalScene(signal.KeyYellow)
	defer img.Close()
	before := img.Clone()
	defer before.Close()

	det := signal.Default()
	first, err := det.Detect(img)
	require.NoError(t, err)
	second, err := det.Detect(img)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Detect results differ (-first +second):\n%s", diff)
	}

	// The input frame must not be modified.
	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(img, before, &delta)
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(delta, &gray, gocv.ColorBGRToGray)
	assert.Zero(t, gocv.CountNonZero(gray))
}

func TestDebugMasksMatchDetect(t *testing.T) {
	img := testimage.SignalScene(signal.KeyGreen)
	defer img.Close()
	testimage.Block(&img, image.Rect(20, 20, 60, 50), colorutil.Red)
	testimage.Block(&img, image.Rect(280, 400, 330, 480), colorutil.Yellow)

	det := signal.Default()
	res, err := det.Detect(img)
	require.NoError(t, err)

	masks, err := det.DebugMasks(img)
	require.NoError(t, err)
	defer masks.Close()

	assert.Equal(t, res.Counts, masks.Counts())
	assert.Equal(t, signal.KeyGreen, res.Key)
	for _, key := range []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen} {
		m, ok := masks.Get(key)
		require.True(t, ok)
		assert.Equal(t, img.Rows(), m.Rows())
		assert.Equal(t, img.Cols(), m.Cols())
		assert.Equal(t, 1, m.Channels())
	}
	_, ok := masks.Get(signal.KeyNone)
	assert.False(t, ok)
}

func TestDetectInvalidInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	gray := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	defer gray.Close()
	bgra := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC4)
	defer bgra.Close()
	float := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV32FC3)
	defer float.Close()

	det := signal.Default()
	for name, img := range map[string]gocv.Mat{"empty": empty, "gray": gray, "bgra": bgra, "float": float} {
		t.Run(name, func(t *testing.T) {
			_, err := det.Detect(img)
			assert.True(t, errors.Is(err, signal.ErrInvalidInput), "got %v", err)

			_, err = det.DebugMasks(img)
			assert.True(t, errors.Is(err, signal.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestDetectImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			img.SetRGBA(x, y, colorutil.Gray)
		}
	}
	for y := 20; y < 60; y++ {
		for x := 20; x < 60; x++ {
			img.SetRGBA(x, y, colorutil.Green)
		}
	}

	res, err := signal.Default().DetectImage(img)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyGreen, res.Key)

	// A sub-image with a non-zero origin takes the copying path.
	sub := img.SubImage(image.Rect(10, 10, 70, 70))
	res, err = signal.Default().DetectImage(sub)
	require.NoError(t, err)
	assert.Equal(t, signal.KeyGreen, res.Key)

	_, err = signal.Default().DetectImage(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, signal.ErrInvalidInput)
}

func TestDetectConcurrent(t *testing.T) {
	det := signal.Default()
	keys := []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen, signal.KeyNone}

	errs := make(chan error, len(keys)*4)
	for i := 0; i < len(keys)*4; i++ {
		key := keys[i%len(keys)]
		go func() {
			img := testimage.SignalScene(key)
			defer img.Close()
			res, err := det.Detect(img)
			if err == nil && res.Key != key {
				err = errors.New("got " + string(res.Key) + ", want " + string(key))
			}
			errs <- err
		}()
	}
	for i := 0; i < len(keys)*4; i++ {
		assert.NoError(t, <-errs)
	}
}

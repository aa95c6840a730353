package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	assert.Len(t, p.Red, 2)
	assert.Equal(t, ColorRange{Lower: HSV{0, 100, 80}, Upper: HSV{12, 255, 255}}, p.Red[0])
	assert.Equal(t, ColorRange{Lower: HSV{168, 100, 80}, Upper: HSV{180, 255, 255}}, p.Red[1])
	assert.Equal(t, []ColorRange{{Lower: HSV{20, 100, 80}, Upper: HSV{35, 255, 255}}}, p.Yellow)
	assert.Equal(t, []ColorRange{{Lower: HSV{45, 100, 80}, Upper: HSV{90, 255, 255}}}, p.Green)
	assert.Equal(t, 5, p.KernelSize)
	assert.Equal(t, 50, p.MinPixels)
}

func TestParamsModifiersCopy(t *testing.T) {
	base := DefaultParams()
	p := base.WithMinPixels(10).WithKernelSize(3)

	assert.Equal(t, 10, p.MinPixels)
	assert.Equal(t, 3, p.KernelSize)
	assert.Equal(t, 50, base.MinPixels)
	assert.Equal(t, 5, base.KernelSize)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"no red", func(p *Params) { p.Red = nil }},
		{"hue too large", func(p *Params) { p.Green[0].Upper.H = 200 }},
		{"inverted band", func(p *Params) { p.Yellow[0].Lower.S = 255; p.Yellow[0].Upper.S = 10 }},
		{"zero kernel", func(p *Params) { p.KernelSize = 0 }},
		{"negative threshold", func(p *Params) { p.MinPixels = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.Red = append([]ColorRange(nil), p.Red...)
			p.Yellow = append([]ColorRange(nil), p.Yellow...)
			p.Green = append([]ColorRange(nil), p.Green...)
			tt.modify(&p)
			assert.Error(t, p.Validate())

			_, err := NewClassifier(p)
			assert.Error(t, err)
		})
	}
}

func TestColorRangeContains(t *testing.T) {
	r := DefaultParams().Yellow[0]

	assert.True(t, r.Contains(HSV{20, 100, 80}))
	assert.True(t, r.Contains(HSV{35, 255, 255}))
	assert.True(t, r.Contains(HSV{30, 255, 255}))
	assert.False(t, r.Contains(HSV{19, 255, 255}))
	assert.False(t, r.Contains(HSV{30, 99, 255}))
	assert.False(t, r.Contains(HSV{30, 255, 79}))
}

func TestKeyMapping(t *testing.T) {
	for _, key := range Keys {
		assert.True(t, key.Valid())
		res := newResult(key, Counts{})
		assert.Equal(t, key.Label(), res.Label)
		assert.Equal(t, key.DisplayColor(), res.Color)
	}
	assert.False(t, Key("blue").Valid())
	assert.Equal(t, "NO SIGNAL", Key("blue").Label())
}

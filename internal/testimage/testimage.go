// Package testimage draws synthetic traffic-signal scenes for tests and demos.
package testimage

import (
	"image"
	"image/color"

	"traffic-signal/internal/signal"
	"traffic-signal/pkg/colorutil"

	"gocv.io/x/gocv"
)

// Scene geometry: a light-gray 350x500 frame with one lamp of radius 60.
const (
	SceneWidth  = 350
	SceneHeight = 500
	LampRadius  = 60
)

// lampCenters stacks the lamps the way a vertical signal head does.
var lampCenters = map[signal.Key]image.Point{
	signal.KeyRed:    {X: 175, Y: 150},
	signal.KeyYellow: {X: 175, Y: 250},
	signal.KeyGreen:  {X: 175, Y: 350},
}

// Uniform returns a w x h BGR frame filled with c.
func Uniform(w, h int, c color.RGBA) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0),
		h, w, gocv.MatTypeCV8UC3)
}

// Disk paints a filled circle.
func Disk(mat *gocv.Mat, center image.Point, radius int, c color.RGBA) {
	gocv.Circle(mat, center, radius, c, -1)
}

// Block paints a filled rectangle.
func Block(mat *gocv.Mat, r image.Rectangle, c color.RGBA) {
	gocv.Rectangle(mat, r, c, -1)
}

// LampCenter returns where SignalScene places the lamp for key.
func LampCenter(key signal.Key) (image.Point, bool) {
	p, ok := lampCenters[key]
	return p, ok
}

// SignalScene returns a frame with a single lit lamp for key.
// KeyNone yields the empty background. The caller must Close it.
func SignalScene(key signal.Key) gocv.Mat {
	mat := Uniform(SceneWidth, SceneHeight, colorutil.Gray)
	if center, ok := lampCenters[key]; ok {
		Disk(&mat, center, LampRadius, key.DisplayColor())
	}
	return mat
}

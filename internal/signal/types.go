// Package signal classifies the dominant traffic-signal color in an image frame.
package signal

import (
	"image/color"

	"traffic-signal/pkg/colorutil"
)

// Key identifies a classified signal state.
type Key string

const (
	KeyRed    Key = "red"
	KeyYellow Key = "yellow"
	KeyGreen  Key = "green"
	KeyNone   Key = "none"
)

// Keys lists every signal key in decision priority order, followed by KeyNone.
var Keys = []Key{KeyRed, KeyYellow, KeyGreen, KeyNone}

// Label returns the human-readable text shown for the key.
func (k Key) Label() string {
	switch k {
	case KeyRed:
		return "RED SIGNAL"
	case KeyYellow:
		return "YELLOW SIGNAL"
	case KeyGreen:
		return "GREEN SIGNAL"
	default:
		return "NO SIGNAL"
	}
}

// DisplayColor returns the color used to annotate a frame with this key.
func (k Key) DisplayColor() color.RGBA {
	switch k {
	case KeyRed:
		return colorutil.Red
	case KeyYellow:
		return colorutil.Yellow
	case KeyGreen:
		return colorutil.Green
	default:
		return colorutil.White
	}
}

// Valid reports whether k is one of the four known keys.
func (k Key) Valid() bool {
	switch k {
	case KeyRed, KeyYellow, KeyGreen, KeyNone:
		return true
	}
	return false
}

// Counts holds the surviving pixel count of each denoised color mask.
type Counts struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

// Result is the outcome of classifying one frame.
type Result struct {
	Key    Key        `json:"signal"`
	Label  string     `json:"signal_text"`
	Color  color.RGBA `json:"-"`
	Counts Counts     `json:"counts"`
}

// newResult maps a decided key to its label and display color.
func newResult(key Key, counts Counts) Result {
	return Result{
		Key:    key,
		Label:  key.Label(),
		Color:  key.DisplayColor(),
		Counts: counts,
	}
}

// Package frame decodes, resizes, annotates and encodes frames around the classifier.
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"traffic-signal/internal/signal"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptyUpload is returned when there are no image bytes to decode.
	ErrEmptyUpload = errors.New("no image data")
	// ErrUnsupportedFormat is returned when the bytes are not a known image format.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// AllowedExtensions are the upload file types accepted by the API.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp"}

// AllowedFile reports whether name carries one of AllowedExtensions.
func AllowedFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Decode decodes an encoded image and reports its format name.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyUpload
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return img, format, nil
}

// DecodeDataURI decodes a base64 image, with or without a data:image/...;base64, prefix.
func DecodeDataURI(s string) (image.Image, string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:image") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	return Decode(data)
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// LoadMat reads an image file straight into a BGR Mat.
func LoadMat(path string) (gocv.Mat, error) {
	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return signal.ImageToMat(img)
}

// FitWithin returns a copy of img scaled down, preserving aspect ratio, so it
// fits inside maxW x maxH. Smaller images are cloned unchanged.
// The caller must Close the result.
func FitWithin(img gocv.Mat, maxW, maxH int) gocv.Mat {
	w, h := img.Cols(), img.Rows()
	if w <= maxW && h <= maxH {
		return img.Clone()
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	size := image.Point{X: max(1, int(float64(w)*scale)), Y: max(1, int(float64(h)*scale))}

	small := gocv.NewMat()
	gocv.Resize(img, &small, size, 0, 0, gocv.InterpolationArea)
	return small
}

// ResizeTo resizes img to exactly w x h. The caller must Close the result.
func ResizeTo(img gocv.Mat, w, h int) gocv.Mat {
	out := gocv.NewMat()
	interp := gocv.InterpolationLinear
	if w < img.Cols() && h < img.Rows() {
		interp = gocv.InterpolationArea
	}
	gocv.Resize(img, &out, image.Point{X: w, Y: h}, 0, 0, interp)
	return out
}

// Annotate writes the result label onto img in the result's display color.
func Annotate(img *gocv.Mat, res signal.Result, origin image.Point, scale float64) {
	gocv.PutText(img, res.Label, origin, gocv.FontHersheySimplex, scale, res.Color, 3)
}

// EncodeJPEG encodes img as JPEG bytes.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// EncodeDataURI encodes img as a data:image/jpeg;base64 URI.
func EncodeDataURI(img gocv.Mat) (string, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

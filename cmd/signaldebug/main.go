// Command signaldebug prints per-color mask counts for an image and can dump
// the masks, chart the counts and probe individual pixels.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"traffic-signal/internal/frame"
	"traffic-signal/internal/report"
	"traffic-signal/internal/signal"
	"traffic-signal/pkg/colorutil"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to image")
	outDir := flag.String("out", "", "Write red/yellow/green mask PNGs to this directory")
	plotPath := flag.String("plot", "", "Write a bar chart of the counts (png, svg or pdf)")
	probe := flag.String("probe", "", "Print BGR and HSV at pixel x,y")
	minPixels := flag.Int("min-pixels", signal.DefaultParams().MinPixels, "Minimum mask pixels for a color to win")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: signaldebug -image <path> [-out dir] [-plot counts.png] [-probe x,y]")
		os.Exit(1)
	}

	img, err := frame.LoadMat(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	params := signal.DefaultParams().WithMinPixels(*minPixels)
	det, err := signal.NewClassifier(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Image: %s (%dx%d)\n", *imagePath, img.Cols(), img.Rows())
	fmt.Printf("\nHSV ranges:\n")
	for _, key := range []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen} {
		for _, r := range rangesFor(params, key) {
			fmt.Printf("  %-6s H(%d-%d) S(%d-%d) V(%d-%d)\n", key,
				r.Lower.H, r.Upper.H, r.Lower.S, r.Upper.S, r.Lower.V, r.Upper.V)
		}
	}

	masks, err := det.DebugMasks(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Mask generation failed: %v\n", err)
		os.Exit(1)
	}
	defer masks.Close()

	counts := masks.Counts()
	key := signal.Decide(counts, params.MinPixels)
	fmt.Printf("\nRed pixels:    %d\n", counts.Red)
	fmt.Printf("Yellow pixels: %d\n", counts.Yellow)
	fmt.Printf("Green pixels:  %d\n", counts.Green)
	fmt.Printf("Min pixels:    %d\n", params.MinPixels)
	fmt.Printf("\nDecision: %s\n", key.Label())

	if *probe != "" {
		if err := probePixel(img, *probe); err != nil {
			fmt.Fprintf(os.Stderr, "Probe: %v\n", err)
			os.Exit(1)
		}
	}

	if *outDir != "" {
		if err := writeMasks(masks, *outDir); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	if *plotPath != "" {
		if err := report.SaveCountsChart(*plotPath, filepath.Base(*imagePath), counts, params.MinPixels); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Chart written to %s\n", *plotPath)
	}
}

func rangesFor(p signal.Params, key signal.Key) []signal.ColorRange {
	switch key {
	case signal.KeyRed:
		return p.Red
	case signal.KeyYellow:
		return p.Yellow
	case signal.KeyGreen:
		return p.Green
	}
	return nil
}

func probePixel(img gocv.Mat, coords string) error {
	xs, ys, ok := strings.Cut(coords, ",")
	if !ok {
		return fmt.Errorf("expected x,y, got %q", coords)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return fmt.Errorf("expected integer x,y, got %q", coords)
	}
	if x < 0 || y < 0 || x >= img.Cols() || y >= img.Rows() {
		return fmt.Errorf("pixel %d,%d outside %dx%d image", x, y, img.Cols(), img.Rows())
	}

	bgr := img.GetVecbAt(y, x)
	h, s, v := colorutil.RGBToHSV(float64(bgr[2]), float64(bgr[1]), float64(bgr[0]))
	fmt.Printf("\nPixel %d,%d: BGR(%d,%d,%d) HSV(%.0f,%.0f,%.0f)\n", x, y, bgr[0], bgr[1], bgr[2], h, s, v)
	return nil
}

func writeMasks(masks *signal.Masks, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, key := range []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen} {
		mask, _ := masks.Get(key)
		path := filepath.Join(dir, string(key)+"_mask.png")
		if !gocv.IMWrite(path, mask) {
			return fmt.Errorf("failed to write %s", path)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

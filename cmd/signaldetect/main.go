// Command signaldetect classifies the traffic signal in an image file.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"traffic-signal/internal/frame"
	"traffic-signal/internal/history"
	"traffic-signal/internal/signal"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to image ("+strings.Join(frame.AllowedExtensions, ", ")+")")
	width := flag.Int("width", 500, "Resize width before detection")
	height := flag.Int("height", 700, "Resize height before detection")
	minPixels := flag.Int("min-pixels", signal.DefaultParams().MinPixels, "Minimum mask pixels for a color to win")
	show := flag.Bool("show", false, "Show the annotated image in a window")
	debug := flag.Bool("debug", false, "Also show the red, yellow and green masks (implies -show)")
	dbPath := flag.String("db", "", "Record the result in this sqlite history database")
	flag.Parse()

	if *imagePath == "" && flag.NArg() > 0 {
		*imagePath = flag.Arg(0)
	}
	if *imagePath == "" {
		fmt.Println("Usage: signaldetect -image <path> [-show] [-debug] [-db history.db]")
		os.Exit(1)
	}

	src, err := frame.LoadMat(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: image '%s' not found or unreadable: %v\n", *imagePath, err)
		os.Exit(1)
	}
	defer src.Close()

	img := frame.ResizeTo(src, *width, *height)
	defer img.Close()

	det, err := signal.NewClassifier(signal.DefaultParams().WithMinPixels(*minPixels))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %v\n", err)
		os.Exit(1)
	}

	res, err := det.Detect(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Detected: %s\n", res.Label)
	fmt.Printf("Pixels: red=%d yellow=%d green=%d\n", res.Counts.Red, res.Counts.Yellow, res.Counts.Green)

	if *dbPath != "" {
		if err := record(*dbPath, res); err != nil {
			fmt.Fprintf(os.Stderr, "History: %v\n", err)
			os.Exit(1)
		}
	}

	if !*show && !*debug {
		return
	}

	var masks *signal.Masks
	if *debug {
		masks, err = det.DebugMasks(img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Mask generation failed: %v\n", err)
			os.Exit(1)
		}
		defer masks.Close()
	}

	frame.Annotate(&img, res, image.Pt(30, 50), 1.2)
	window := gocv.NewWindow("Traffic Signal Recognition")
	defer window.Close()
	window.IMShow(img)

	if masks != nil {
		for _, key := range []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen} {
			mask, _ := masks.Get(key)
			w := gocv.NewWindow(strings.ToUpper(string(key[:1])) + string(key[1:]) + " Mask")
			defer w.Close()
			w.IMShow(mask)
		}
	}

	window.WaitKey(0)
}

func record(path string, res signal.Result) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Record(context.Background(), history.Entry{
		Source: history.SourceCLI,
		Signal: res.Key,
		Counts: res.Counts,
	})
	return err
}

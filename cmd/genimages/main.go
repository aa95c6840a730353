// Command genimages writes synthetic red, yellow and green traffic light images.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"traffic-signal/internal/signal"
	"traffic-signal/internal/testimage"

	"gocv.io/x/gocv"
)

func main() {
	outDir := flag.String("out", ".", "Output directory")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	for _, key := range []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen} {
		path := filepath.Join(*outDir, string(key)+".jpg")
		scene := testimage.SignalScene(key)
		ok := gocv.IMWrite(path, scene)
		scene.Close()
		if !ok {
			fmt.Fprintf(os.Stderr, "Failed to write %s\n", path)
			os.Exit(1)
		}
		fmt.Printf("Created %s\n", path)
	}
}

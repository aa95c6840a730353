// Command webcam classifies traffic signals from a live camera feed.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"traffic-signal/internal/config"
	"traffic-signal/internal/history"
	trafficsignal "traffic-signal/internal/signal"
	"traffic-signal/internal/webcam"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	opts := webcam.DefaultOptions()
	camera := flag.Int("camera", cfg.CameraID, "Camera index")
	width := flag.Int("width", opts.Width, "Frame width for detection")
	height := flag.Int("height", opts.Height, "Frame height for detection")
	logEvery := flag.Int("log-every", opts.LogEvery, "Log progress every N frames (0 disables)")
	exitKey := flag.String("exit-key", string(opts.ExitKey), "Key that closes the preview window")
	headless := flag.Bool("headless", false, "Run without a preview window (stop with Ctrl-C)")
	dbPath := flag.String("db", cfg.DBPath, "sqlite history database (empty disables history)")
	flag.Parse()

	if len(*exitKey) != 1 {
		log.Fatalf("exit-key must be a single character")
	}
	opts.CameraID = *camera
	opts.Width = *width
	opts.Height = *height
	opts.LogEvery = *logEvery
	opts.ExitKey = rune((*exitKey)[0])
	opts.ShowWindow = !*headless

	if *dbPath != "" {
		store, err := history.Open(*dbPath)
		if err != nil {
			log.Fatalf("History: %v", err)
		}
		defer store.Close()
		opts.Store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := webcam.Run(ctx, trafficsignal.Default(), opts)
	if err != nil {
		log.Printf("Webcam: %v", err)
		os.Exit(1)
	}
	log.Printf("Webcam: %s", stats)
}

// Command signalapi serves traffic signal detection over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"traffic-signal/internal/config"
	"traffic-signal/internal/history"
	"traffic-signal/internal/server"
	trafficsignal "traffic-signal/internal/signal"
	"traffic-signal/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	listen := flag.String("listen", cfg.Listen, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "sqlite history database (empty disables history)")
	maxUploadMB := flag.Int64("max-upload-mb", cfg.MaxUploadBytes>>20, "Maximum upload size in MB")
	maxWidth := flag.Int("max-width", cfg.MaxWidth, "Downscale uploads wider than this")
	maxHeight := flag.Int("max-height", cfg.MaxHeight, "Downscale uploads taller than this")
	minPixels := flag.Int("min-pixels", trafficsignal.DefaultParams().MinPixels, "Minimum mask pixels for a color to win")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg.Listen = *listen
	cfg.DBPath = *dbPath
	cfg.MaxUploadBytes = *maxUploadMB << 20
	cfg.MaxWidth = *maxWidth
	cfg.MaxHeight = *maxHeight
	if cfg.MaxUploadBytes <= 0 || cfg.MaxWidth <= 0 || cfg.MaxHeight <= 0 {
		fmt.Fprintln(os.Stderr, "max-upload-mb, max-width and max-height must be positive")
		os.Exit(2)
	}

	det, err := trafficsignal.NewClassifier(trafficsignal.DefaultParams().WithMinPixels(*minPixels))
	if err != nil {
		log.Fatalf("Classifier: %v", err)
	}

	var store *history.Store
	if cfg.DBPath != "" {
		store, err = history.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("History: %v", err)
		}
		defer store.Close()
		log.Printf("History: recording to %s", cfg.DBPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Traffic Signal Detector %s", version.String())
	if err := server.New(det, store, cfg).ListenAndServe(ctx); err != nil {
		log.Printf("API: %v", err)
		os.Exit(1)
	}
}

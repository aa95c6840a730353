// Package main provides the entry point for the Traffic Signal Recognition dashboard.
package main

import (
	"flag"
	"log"
	"time"

	"traffic-signal/internal/app"
	"traffic-signal/internal/config"
	"traffic-signal/internal/history"
	"traffic-signal/internal/signal"
	"traffic-signal/internal/version"
	"traffic-signal/ui/dashboard"
	"traffic-signal/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appID = "io.github.traffic-signal"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Traffic Signal Recognition v%s", version.Version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	dbPath := flag.String("db", cfg.DBPath, "sqlite history database (empty disables history)")
	hotReload := flag.Bool("hot-reload", false, "Offer a restart when the binary is rebuilt")
	flag.Parse()

	appPrefs := prefs.Load()
	det, err := signal.NewClassifier(signal.DefaultParams().WithMinPixels(appPrefs.MinPixels(signal.DefaultParams().MinPixels)))
	if err != nil {
		log.Fatalf("Classifier: %v", err)
	}

	var store *history.Store
	if *dbPath != "" {
		store, err = history.Open(*dbPath)
		if err != nil {
			log.Fatalf("History: %v", err)
		}
		defer store.Close()
	}

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.SignalTheme{})

	win := dashboard.New(a, app.NewState(det, store), appPrefs)

	// Handle command line arguments
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		if err := win.LoadImage(path); err != nil {
			log.Printf("Failed to load image %s: %v", path, err)
		}
	}

	if *hotReload {
		setupHotReload(win)
	}

	win.ShowAndRun()
}

// setupHotReload offers a restart when the binary is rebuilt.
func setupHotReload(win *dashboard.Window) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}
	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.Baseline().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				win.SavePreferences()
				log.Println("Hot reload: restarting...")
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})
	reloader.Start()

	go func() {
		for range time.Tick(5 * time.Second) {
			win.SavePreferencesIfChanged()
		}
	}()
}

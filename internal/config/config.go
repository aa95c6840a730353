// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds settings shared by the API server and the webcam loop.
// Command-line flags in each binary override these values.
type Config struct {
	Listen         string // HTTP listen address
	DBPath         string // sqlite history database; empty disables history
	MaxUploadBytes int64  // request body limit for /api/detect
	MaxWidth       int    // uploads are downscaled to fit MaxWidth x MaxHeight
	MaxHeight      int
	CameraID       int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:         ":8080",
		MaxUploadBytes: 16 << 20,
		MaxWidth:       800,
		MaxHeight:      600,
		CameraID:       0,
	}
}

// Load returns Default overridden by SIGNAL_* environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("SIGNAL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := getenv("SIGNAL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("SIGNAL_MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return cfg, fmt.Errorf("SIGNAL_MAX_UPLOAD_MB: invalid value %q", v)
		}
		cfg.MaxUploadBytes = int64(mb) << 20
	}

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"SIGNAL_MAX_WIDTH", &cfg.MaxWidth, 1},
		{"SIGNAL_MAX_HEIGHT", &cfg.MaxHeight, 1},
		{"SIGNAL_CAMERA", &cfg.CameraID, 0},
	}
	for _, e := range ints {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < e.min {
			return cfg, fmt.Errorf("%s: invalid value %q", e.key, v)
		}
		*e.dst = n
	}

	return cfg, nil
}

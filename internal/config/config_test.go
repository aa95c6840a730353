package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.DBPath)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"SIGNAL_LISTEN":        "127.0.0.1:9000",
		"SIGNAL_DB":            "/tmp/history.db",
		"SIGNAL_MAX_UPLOAD_MB": "4",
		"SIGNAL_MAX_WIDTH":     "640",
		"SIGNAL_MAX_HEIGHT":    "480",
		"SIGNAL_CAMERA":        "2",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Listen:         "127.0.0.1:9000",
		DBPath:         "/tmp/history.db",
		MaxUploadBytes: 4 << 20,
		MaxWidth:       640,
		MaxHeight:      480,
		CameraID:       2,
	}, cfg)
}

func TestLoadInvalid(t *testing.T) {
	for key, val := range map[string]string{
		"SIGNAL_MAX_UPLOAD_MB": "lots",
		"SIGNAL_MAX_WIDTH":     "0",
		"SIGNAL_MAX_HEIGHT":    "-5",
		"SIGNAL_CAMERA":        "front",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := load(env(map[string]string{key: val}))
			assert.ErrorContains(t, err, key)
		})
	}
}

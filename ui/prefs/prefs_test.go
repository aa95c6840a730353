package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "preferences.json")

	p := LoadFile(path)
	assert.Equal(t, "", p.LastDirectory())
	assert.Equal(t, 0, p.CameraID(0))
	assert.Equal(t, 50, p.MinPixels(50))

	p.SetLastImage("/images/lights/red.jpg")
	p.SetCameraID(2)
	p.SetMinPixels(120)
	require.NoError(t, p.SaveIfChanged())

	q := LoadFile(path)
	assert.Equal(t, "/images/lights/red.jpg", q.LastImage())
	assert.Equal(t, "/images/lights", q.LastDirectory())
	assert.Equal(t, 2, q.CameraID(0))
	assert.Equal(t, 120, q.MinPixels(50))
}

func TestSaveIfChangedSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	p := LoadFile(path)

	require.NoError(t, p.SaveIfChanged())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	p.SetCameraID(1)
	require.NoError(t, p.SaveIfChanged())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFile(path)
	assert.Equal(t, 3, p.CameraID(3))
}

// Package prefs persists dashboard preferences as JSON.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDir    = "traffic-signal"
	prefsFile = "preferences.json"

	keyLastDirectory = "lastDirectory"
	keyLastImage     = "lastImage"
	keyCameraID      = "cameraID"
	keyMinPixels     = "minPixels"
)

// Prefs stores preferences as a key-value map.
type Prefs struct {
	mu      sync.RWMutex
	values  map[string]interface{}
	path    string
	changed bool
}

// Load reads ~/.config/traffic-signal/preferences.json. A missing or
// unreadable file yields empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFile(filepath.Join(configDir, appDir, prefsFile))
}

// LoadFile reads preferences from path.
func LoadFile(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the backing file.
func (p *Prefs) Path() string { return p.path }

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.changed = false
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// SaveIfChanged saves only when a setter ran since the last save.
func (p *Prefs) SaveIfChanged() error {
	p.mu.RLock()
	changed := p.changed
	p.mu.RUnlock()
	if !changed {
		return nil
	}
	return p.Save()
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	if p.values[key] != val {
		p.values[key] = val
		p.changed = true
	}
	p.mu.Unlock()
}

func (p *Prefs) str(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

// JSON numbers decode as float64.
func (p *Prefs) integer(key string, fallback int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch n := p.values[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return fallback
}

// LastDirectory is the directory of the last opened image.
func (p *Prefs) LastDirectory() string { return p.str(keyLastDirectory) }

// SetLastDirectory stores the directory of the last opened image.
func (p *Prefs) SetLastDirectory(dir string) { p.set(keyLastDirectory, dir) }

// LastImage is the last image opened in the dashboard.
func (p *Prefs) LastImage() string { return p.str(keyLastImage) }

// SetLastImage stores path and its directory.
func (p *Prefs) SetLastImage(path string) {
	p.set(keyLastImage, path)
	p.set(keyLastDirectory, filepath.Dir(path))
}

// CameraID returns the webcam index, or fallback when unset.
func (p *Prefs) CameraID(fallback int) int { return p.integer(keyCameraID, fallback) }

// SetCameraID stores the webcam index.
func (p *Prefs) SetCameraID(id int) { p.set(keyCameraID, float64(id)) }

// MinPixels returns the classifier threshold, or fallback when unset.
func (p *Prefs) MinPixels(fallback int) int { return p.integer(keyMinPixels, fallback) }

// SetMinPixels stores the classifier threshold.
func (p *Prefs) SetMinPixels(n int) { p.set(keyMinPixels, float64(n)) }

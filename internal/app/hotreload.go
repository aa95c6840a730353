package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// HotReloader polls a binary's modification time and calls a callback once
// when a newer build appears.
type HotReloader struct {
	mu            sync.Mutex
	execPath      string
	baseline      time.Time
	checkInterval time.Duration
	cancel        context.CancelFunc
	onNewBinary   func()
}

// NewHotReloader watches the running executable. It returns nil when the
// executable cannot be located.
func NewHotReloader(checkInterval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	return NewFileReloader(execPath, checkInterval)
}

// NewFileReloader watches path. It returns nil when path cannot be stat'ed.
func NewFileReloader(path string, checkInterval time.Duration) *HotReloader {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &HotReloader{
		execPath:      path,
		baseline:      info.ModTime(),
		checkInterval: checkInterval,
	}
}

// OnNewBinary sets the callback. It runs on the watcher goroutine.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.mu.Lock()
	h.onNewBinary = callback
	h.mu.Unlock()
}

// Start begins polling. Calling Start again restarts the watcher.
func (h *HotReloader) Start() {
	h.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	go h.watchLoop(ctx)
}

// Stop ends polling.
func (h *HotReloader) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *HotReloader) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.Changed() {
				continue
			}
			h.mu.Lock()
			cb := h.onNewBinary
			h.mu.Unlock()
			if cb != nil {
				cb()
			}
			return
		}
	}
}

// Changed reports whether the file is newer than the baseline.
func (h *HotReloader) Changed() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return info.ModTime().After(h.baseline)
}

// ExecPath returns the watched path.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// Baseline returns the modification time changes are compared against.
func (h *HotReloader) Baseline() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.baseline
}

// ResetBaseline accepts the current file as the new baseline, so a declined
// restart is not offered again for the same build.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.mu.Lock()
		h.baseline = info.ModTime()
		h.mu.Unlock()
	}
}

// Restart replaces the current process with the watched binary, keeping
// arguments and environment. It does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}

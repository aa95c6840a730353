// Package app holds the desktop dashboard's state, events and theme.
package app

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"sync"

	"traffic-signal/internal/frame"
	"traffic-signal/internal/history"
	"traffic-signal/internal/monitoring"
	"traffic-signal/internal/signal"
	"traffic-signal/internal/webcam"
)

// Preview limits for images loaded into the dashboard.
const (
	PreviewWidth  = 800
	PreviewHeight = 600
)

// ErrNoImage is returned by Detect before an image has been loaded.
var ErrNoImage = errors.New("no image loaded")

// ErrWebcamRunning is returned when a second webcam session is requested.
var ErrWebcamRunning = errors.New("webcam already running")

// State holds the dashboard's current image, last result and webcam session.
type State struct {
	mu sync.RWMutex

	det   *signal.Classifier
	store *history.Store // nil when history is disabled

	imagePath string
	original  goimage.Image
	annotated goimage.Image
	result    *signal.Result

	stopWebcam context.CancelFunc
	webcamDone chan struct{}

	listeners map[EventType][]EventListener
}

// EventType identifies different dashboard events.
type EventType int

const (
	EventImageLoaded EventType = iota // data: path string
	EventDetected                     // data: signal.Result
	EventWebcamStarted                // data: webcam.Options
	EventWebcamResult                 // data: signal.Result
	EventWebcamStopped                // data: webcam.Stats
	EventError                        // data: error
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates dashboard state around a classifier. store may be nil.
func NewState(det *signal.Classifier, store *history.Store) *State {
	return &State{
		det:       det,
		store:     store,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadImage reads path, scales it to the preview size and clears the previous result.
func (s *State) LoadImage(path string) error {
	mat, err := frame.LoadMat(path)
	if err != nil {
		return err
	}
	defer mat.Close()

	fitted := frame.FitWithin(mat, PreviewWidth, PreviewHeight)
	defer fitted.Close()

	img, err := fitted.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}

	s.mu.Lock()
	s.imagePath = path
	s.original = img
	s.annotated = nil
	s.result = nil
	s.mu.Unlock()

	s.Emit(EventImageLoaded, path)
	return nil
}

// Detect classifies the loaded image, annotates a copy of it and records the
// outcome in history.
func (s *State) Detect(ctx context.Context) (signal.Result, error) {
	s.mu.RLock()
	src := s.original
	s.mu.RUnlock()
	if src == nil {
		return signal.Result{}, ErrNoImage
	}

	mat, err := signal.ImageToMat(src)
	if err != nil {
		return signal.Result{}, err
	}
	defer mat.Close()

	res, err := s.det.Detect(mat)
	if err != nil {
		return signal.Result{}, err
	}

	frame.Annotate(&mat, res, goimage.Pt(20, 40), 1.2)
	annotated, err := mat.ToImage()
	if err != nil {
		return signal.Result{}, fmt.Errorf("failed to convert annotated frame: %w", err)
	}

	s.mu.Lock()
	s.annotated = annotated
	s.result = &res
	s.mu.Unlock()

	s.record(ctx, history.SourceGUI, res)
	s.Emit(EventDetected, res)
	return res, nil
}

// ImagePath returns the path of the loaded image, or "".
func (s *State) ImagePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imagePath
}

// Preview returns the annotated image after Detect, otherwise the loaded image.
func (s *State) Preview() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.annotated != nil {
		return s.annotated
	}
	return s.original
}

// LastResult returns the most recent still-image result.
func (s *State) LastResult() (signal.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return signal.Result{}, false
	}
	return *s.result, true
}

// StartWebcam runs a webcam session in the background. Results are emitted as
// EventWebcamResult and the session ends with EventWebcamStopped.
func (s *State) StartWebcam(opts webcam.Options) error {
	s.mu.Lock()
	if s.stopWebcam != nil {
		s.mu.Unlock()
		return ErrWebcamRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopWebcam = cancel
	s.webcamDone = done
	s.mu.Unlock()

	if opts.Store == nil {
		opts.Store = s.store
	}
	opts.OnResult = func(res signal.Result) { s.Emit(EventWebcamResult, res) }

	s.Emit(EventWebcamStarted, opts)
	go func() {
		defer close(done)
		stats, err := webcam.Run(ctx, s.det, opts)

		s.mu.Lock()
		s.stopWebcam = nil
		s.webcamDone = nil
		s.mu.Unlock()
		cancel()

		if err != nil {
			monitoring.Logf("Webcam: %v", err)
			s.Emit(EventError, err)
		}
		monitoring.Logf("Webcam: %s", stats)
		s.Emit(EventWebcamStopped, stats)
	}()
	return nil
}

// StopWebcam cancels a running webcam session and waits for it to finish.
func (s *State) StopWebcam() {
	s.mu.RLock()
	stop, done := s.stopWebcam, s.webcamDone
	s.mu.RUnlock()
	if stop == nil {
		return
	}
	stop()
	<-done
}

// WebcamRunning reports whether a webcam session is active.
func (s *State) WebcamRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopWebcam != nil
}

// History returns the most recent recorded detections, or nil when history is disabled.
func (s *State) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

func (s *State) record(ctx context.Context, source string, res signal.Result) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Record(ctx, history.Entry{Source: source, Signal: res.Key, Counts: res.Counts}); err != nil {
		monitoring.Logf("History: failed to record %s detection: %v", source, err)
	}
}

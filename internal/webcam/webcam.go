// Package webcam runs the classifier over a live camera feed.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"traffic-signal/internal/frame"
	"traffic-signal/internal/history"
	"traffic-signal/internal/monitoring"
	"traffic-signal/internal/signal"

	"gocv.io/x/gocv"
)

// WindowTitle is the title of the preview window.
const WindowTitle = "Real-Time Traffic Signal Recognition"

// ErrCameraUnavailable is returned when the capture device cannot be opened.
var ErrCameraUnavailable = errors.New("camera not accessible")

// Options controls a webcam session.
type Options struct {
	CameraID   int
	Width      int // frames are resized to Width x Height before detection
	Height     int
	LogEvery   int  // log a progress line every LogEvery frames; 0 disables
	ExitKey    rune // key that ends the session when ShowWindow is set
	ShowWindow bool
	Store      *history.Store // optional; records the result of each logged frame

	// OnResult, if set, is called with each frame's result.
	OnResult func(signal.Result)
}

// DefaultOptions returns a 640x480 session on camera 0 that logs every 10 frames.
func DefaultOptions() Options {
	return Options{
		CameraID:   0,
		Width:      640,
		Height:     480,
		LogEvery:   10,
		ExitKey:    'q',
		ShowWindow: true,
	}
}

// Source yields frames. *gocv.VideoCapture satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Display shows frames and reports key presses. *gocv.Window satisfies it.
type Display interface {
	IMShow(img gocv.Mat)
	WaitKey(delay int) int
	Close() error
}

// Run opens the configured camera and classifies frames until the exit key is
// pressed, ctx is cancelled or the camera stops delivering frames.
func Run(ctx context.Context, det *signal.Classifier, opts Options) (Stats, error) {
	capture, err := gocv.OpenVideoCapture(opts.CameraID)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: camera %d: %v", ErrCameraUnavailable, opts.CameraID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return Stats{}, fmt.Errorf("%w: camera %d", ErrCameraUnavailable, opts.CameraID)
	}

	var disp Display
	if opts.ShowWindow {
		disp = gocv.NewWindow(WindowTitle)
	}
	return RunSource(ctx, det, capture, disp, opts)
}

// RunSource is Run over an already opened source. disp may be nil. Both are
// closed before it returns.
func RunSource(ctx context.Context, det *signal.Classifier, src Source, disp Display, opts Options) (Stats, error) {
	defer src.Close()
	if disp != nil {
		defer disp.Close()
	}

	if opts.ExitKey == 0 {
		opts.ExitKey = 'q'
	}
	if disp != nil {
		monitoring.Logf("Webcam: press '%c' to exit", opts.ExitKey)
	}

	img := gocv.NewMat()
	defer img.Close()

	var (
		latencies []float64
		last      signal.Result
		frames    int
	)

	for {
		if err := ctx.Err(); err != nil {
			break
		}
		if ok := src.Read(&img); !ok || img.Empty() {
			monitoring.Logf("Webcam: failed to read from camera")
			break
		}
		frames++

		start := time.Now()
		res, err := processFrame(det, img, opts)
		if err != nil {
			return newStats(frames, latencies), fmt.Errorf("frame %d: %w", frames, err)
		}
		latencies = append(latencies, time.Since(start).Seconds()*1000)
		last = res.Result

		if opts.OnResult != nil {
			opts.OnResult(last)
		}
		if opts.LogEvery > 0 && frames%opts.LogEvery == 0 {
			monitoring.Logf("Webcam: processed %d frames | last signal: %s", frames, last.Label)
			record(ctx, opts.Store, last)
		}

		if disp != nil {
			disp.IMShow(res.Annotated)
		}
		res.Annotated.Close()

		if disp != nil && disp.WaitKey(1)&0xFF == int(opts.ExitKey) {
			monitoring.Logf("Webcam: exiting (processed %d frames)", frames)
			break
		}
	}

	return newStats(frames, latencies), nil
}

type frameResult struct {
	signal.Result
	Annotated gocv.Mat
}

func processFrame(det *signal.Classifier, img gocv.Mat, opts Options) (frameResult, error) {
	out := img.Clone()
	if opts.Width > 0 && opts.Height > 0 {
		out.Close()
		out = frame.ResizeTo(img, opts.Width, opts.Height)
	}

	res, err := det.Detect(out)
	if err != nil {
		out.Close()
		return frameResult{}, err
	}
	frame.Annotate(&out, res, image.Pt(20, 40), 1.0)
	return frameResult{Result: res, Annotated: out}, nil
}

func record(ctx context.Context, store *history.Store, res signal.Result) {
	if store == nil {
		return
	}
	_, err := store.Record(ctx, history.Entry{
		Source: history.SourceWebcam,
		Signal: res.Key,
		Counts: res.Counts,
	})
	if err != nil {
		monitoring.Logf("History: failed to record webcam frame: %v", err)
	}
}

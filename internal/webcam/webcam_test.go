package webcam

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"traffic-signal/internal/history"
	"traffic-signal/internal/monitoring"
	"traffic-signal/internal/signal"
	"traffic-signal/internal/testimage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// fakeSource replays the given scenes once each.
type fakeSource struct {
	scenes []signal.Key
	next   int
	closed bool
}

func (f *fakeSource) Read(m *gocv.Mat) bool {
	if f.next >= len(f.scenes) {
		return false
	}
	scene := testimage.SignalScene(f.scenes[f.next])
	defer scene.Close()
	f.next++
	scene.CopyTo(m)
	return true
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeDisplay struct {
	shown  []image.Point
	exitAt int
	closed bool
}

func (d *fakeDisplay) IMShow(img gocv.Mat) {
	d.shown = append(d.shown, image.Pt(img.Cols(), img.Rows()))
}

func (d *fakeDisplay) WaitKey(int) int {
	if d.exitAt > 0 && len(d.shown) == d.exitAt {
		return 'q'
	}
	return -1
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

func muteLogs(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func TestRunSourceUntilExhausted(t *testing.T) {
	muteLogs(t)

	src := &fakeSource{scenes: []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen, signal.KeyNone}}
	disp := &fakeDisplay{}

	var got []signal.Key
	opts := DefaultOptions()
	opts.OnResult = func(res signal.Result) { got = append(got, res.Key) }

	stats, err := RunSource(context.Background(), signal.Default(), src, disp, opts)
	require.NoError(t, err)

	assert.Equal(t, []signal.Key{signal.KeyRed, signal.KeyYellow, signal.KeyGreen, signal.KeyNone}, got)
	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 4, stats.Processed)
	assert.True(t, src.closed)
	assert.True(t, disp.closed)

	require.Len(t, disp.shown, 4)
	for _, size := range disp.shown {
		assert.Equal(t, image.Pt(640, 480), size)
	}
}

func TestRunSourceExitKey(t *testing.T) {
	muteLogs(t)

	src := &fakeSource{scenes: []signal.Key{signal.KeyRed, signal.KeyRed, signal.KeyRed, signal.KeyRed}}
	disp := &fakeDisplay{exitAt: 2}

	stats, err := RunSource(context.Background(), signal.Default(), src, disp, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, 2, src.next)
}

func TestRunSourceCancelled(t *testing.T) {
	muteLogs(t)

	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{scenes: []signal.Key{signal.KeyGreen, signal.KeyGreen, signal.KeyGreen}}

	opts := DefaultOptions()
	opts.OnResult = func(signal.Result) { cancel() }

	stats, err := RunSource(ctx, signal.Default(), src, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Frames)
}

func TestRunSourceRecordsLoggedFrames(t *testing.T) {
	muteLogs(t)

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	scenes := make([]signal.Key, 5)
	for i := range scenes {
		scenes[i] = signal.KeyYellow
	}
	opts := DefaultOptions()
	opts.LogEvery = 2
	opts.Store = store

	_, err = RunSource(context.Background(), signal.Default(), &fakeSource{scenes: scenes}, nil, opts)
	require.NoError(t, err)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, history.SourceWebcam, e.Source)
		assert.Equal(t, signal.KeyYellow, e.Signal)
	}
}

func TestNewStats(t *testing.T) {
	tests := []struct {
		name      string
		latencies []float64
		want      Stats
	}{
		{"empty", nil, Stats{Frames: 3}},
		{"single", []float64{4}, Stats{Frames: 3, Processed: 1, MeanMs: 4, MaxMs: 4}},
		{"several", []float64{2, 4, 6}, Stats{Frames: 3, Processed: 3, MeanMs: 4, StdDevMs: 2, MaxMs: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newStats(3, tt.latencies)
			assert.Equal(t, tt.want.Frames, got.Frames)
			assert.Equal(t, tt.want.Processed, got.Processed)
			assert.InDelta(t, tt.want.MeanMs, got.MeanMs, 1e-9)
			assert.InDelta(t, tt.want.StdDevMs, got.StdDevMs, 1e-9)
			assert.InDelta(t, tt.want.MaxMs, got.MaxMs, 1e-9)
		})
	}
}

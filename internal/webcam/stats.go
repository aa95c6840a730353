package webcam

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes per-frame detection latency in milliseconds.
type Stats struct {
	Frames    int
	Processed int
	MeanMs    float64
	StdDevMs  float64
	MaxMs     float64
}

func newStats(frames int, latencies []float64) Stats {
	s := Stats{Frames: frames, Processed: len(latencies)}
	switch len(latencies) {
	case 0:
		return s
	case 1:
		s.MeanMs = latencies[0]
	default:
		s.MeanMs, s.StdDevMs = stat.MeanStdDev(latencies, nil)
	}
	s.MaxMs = floats.Max(latencies)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d frames, %.1fms mean, %.1fms stddev, %.1fms max",
		s.Frames, s.MeanMs, s.StdDevMs, s.MaxMs)
}

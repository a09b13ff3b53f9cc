package telemetry

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a whole run.
type Summary struct {
	Frames      int
	MeanFrameMs float64
	StdFrameMs  float64
	P95FrameMs  float64
	MaxFrameMs  float64
	MeanDrawn   float64
	MaxDrawn    float64
}

func Summarize(frameMs, drawn []float64) Summary {
	s := Summary{Frames: len(frameMs)}
	if len(frameMs) == 0 {
		return s
	}
	s.MeanFrameMs = stat.Mean(frameMs, nil)
	if len(frameMs) > 1 {
		s.StdFrameMs = stat.StdDev(frameMs, nil)
	}
	s.P95FrameMs = p95(frameMs)
	s.MaxFrameMs = slices.Max(frameMs)
	if len(drawn) > 0 {
		s.MeanDrawn = stat.Mean(drawn, nil)
		s.MaxDrawn = slices.Max(drawn)
	}
	return s
}

func p95(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return stat.Quantile(0.95, stat.Empirical, sorted, nil)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d frames, frame %.2fms avg (sd %.2f, p95 %.2f, max %.2f), drawn %.0f avg / %.0f max",
		s.Frames, s.MeanFrameMs, s.StdFrameMs, s.P95FrameMs, s.MaxFrameMs, s.MeanDrawn, s.MaxDrawn)
}

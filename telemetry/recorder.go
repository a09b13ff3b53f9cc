// Package telemetry writes per-frame particle statistics as CSV.
package telemetry

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one CSV row.
type FrameRecord struct {
	Frame    uint64  `csv:"frame"`
	TimeSec  float64 `csv:"time_sec"`
	FrameMs  float64 `csv:"frame_ms"`
	Emitters int     `csv:"emitters"`
	Alive    int     `csv:"alive"`
	Emitted  int     `csv:"emitted"`
	Dropped  int     `csv:"dropped"`
	Expired  int     `csv:"expired"`
	Drawn    int     `csv:"drawn"`
}

// reservoirSize bounds the frame-time samples kept for the p95 estimate.
const reservoirSize = 4096

// Recorder writes every Nth frame to CSV and folds every frame into running
// statistics for the end-of-run Summary. Memory stays bounded: mean, std,
// max and drawn figures are exact, p95 comes from a fixed-size uniform
// reservoir of frame times. A nil *Recorder is valid and records nothing.
type Recorder struct {
	out    io.Writer
	closer io.Closer
	every  int

	headerWritten bool
	seen          int

	meanMs, m2Ms, maxMs float64
	drawnSum, drawnMax  float64
	reservoir           []float64
	rng                 *rand.Rand
}

func NewRecorder(out io.Writer, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{
		out:   out,
		every: every,
		rng:   rand.New(rand.NewPCG(1, 2)),
	}
}

// NewOwnedRecorder is NewRecorder for a writer the recorder closes on Close.
func NewOwnedRecorder(out io.WriteCloser, every int) *Recorder {
	r := NewRecorder(out, every)
	r.closer = out
	return r
}

// Create opens dir/frames.csv for writing, creating dir if needed.
func Create(dir string, every int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	return NewOwnedRecorder(f, every), nil
}

// observe folds one frame into the running statistics (Welford for the
// frame-time variance, algorithm R for the reservoir).
func (r *Recorder) observe(rec FrameRecord) {
	r.seen++
	ms := rec.FrameMs
	delta := ms - r.meanMs
	r.meanMs += delta / float64(r.seen)
	r.m2Ms += delta * (ms - r.meanMs)
	if r.seen == 1 || ms > r.maxMs {
		r.maxMs = ms
	}

	drawn := float64(rec.Drawn)
	r.drawnSum += drawn
	if r.seen == 1 || drawn > r.drawnMax {
		r.drawnMax = drawn
	}

	if len(r.reservoir) < reservoirSize {
		r.reservoir = append(r.reservoir, ms)
	} else if j := r.rng.IntN(r.seen); j < reservoirSize {
		r.reservoir[j] = ms
	}
}

func (r *Recorder) Record(rec FrameRecord) error {
	if r == nil {
		return nil
	}
	r.observe(rec)
	if (r.seen-1)%r.every != 0 {
		return nil
	}

	records := []FrameRecord{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

func (r *Recorder) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	s := Summary{Frames: r.seen}
	if r.seen == 0 {
		return s
	}
	s.MeanFrameMs = r.meanMs
	if r.seen > 1 {
		s.StdFrameMs = math.Sqrt(r.m2Ms / float64(r.seen-1))
	}
	s.P95FrameMs = p95(r.reservoir)
	s.MaxFrameMs = r.maxMs
	s.MeanDrawn = r.drawnSum / float64(r.seen)
	s.MaxDrawn = r.drawnMax
	return s
}

func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

package telemetry

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, 1)

	require.NoError(t, r.Record(FrameRecord{Frame: 1, Alive: 10, Drawn: 10}))
	require.NoError(t, r.Record(FrameRecord{Frame: 2, Alive: 12, Drawn: 11}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "frame,time_sec,frame_ms,emitters,alive,emitted,dropped,expired,drawn", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2,"))
	assert.Equal(t, 1, strings.Count(buf.String(), "frame,"))
}

func TestRecorderSamplesEveryNthFrame(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, 3)
	for i := 1; i <= 7; i++ {
		require.NoError(t, r.Record(FrameRecord{Frame: uint64(i), FrameMs: float64(i)}))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4, "header plus frames 1, 4, 7")
	assert.True(t, strings.HasPrefix(lines[2], "4,"))
	assert.Equal(t, 7, r.Summary().Frames, "summary sees every frame")
}

func TestNilRecorderIsInert(t *testing.T) {
	var r *Recorder
	assert.NoError(t, r.Record(FrameRecord{}))
	assert.NoError(t, r.Close())
	assert.Equal(t, Summary{}, r.Summary())
}

func TestCreateWritesIntoDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	r, err := Create(dir, 1)
	require.NoError(t, err)
	require.NoError(t, r.Record(FrameRecord{Frame: 1}))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame,")
}

func TestRecorderSummaryMatchesSummarize(t *testing.T) {
	frameMs := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	drawn := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	r := NewRecorder(io.Discard, 1)
	for i := range frameMs {
		require.NoError(t, r.Record(FrameRecord{Frame: uint64(i + 1), FrameMs: frameMs[i], Drawn: int(drawn[i])}))
	}

	got, want := r.Summary(), Summarize(frameMs, drawn)
	assert.Equal(t, want.Frames, got.Frames)
	assert.InDelta(t, want.MeanFrameMs, got.MeanFrameMs, 1e-9)
	assert.InDelta(t, want.StdFrameMs, got.StdFrameMs, 1e-9)
	assert.Equal(t, want.P95FrameMs, got.P95FrameMs)
	assert.Equal(t, want.MaxFrameMs, got.MaxFrameMs)
	assert.InDelta(t, want.MeanDrawn, got.MeanDrawn, 1e-9)
	assert.Equal(t, want.MaxDrawn, got.MaxDrawn)
}

func TestRecorderMemoryIsBounded(t *testing.T) {
	r := NewRecorder(io.Discard, 1000)
	const n = 5 * reservoirSize
	for i := 0; i < n; i++ {
		require.NoError(t, r.Record(FrameRecord{Frame: uint64(i + 1), FrameMs: float64(i % 100), Drawn: i % 7}))
	}

	assert.Len(t, r.reservoir, reservoirSize)
	s := r.Summary()
	assert.Equal(t, n, s.Frames)
	assert.Equal(t, 99.0, s.MaxFrameMs)
	assert.Equal(t, 6.0, s.MaxDrawn)
	assert.InDelta(t, 49.5, s.MeanFrameMs, 0.1)
	assert.InDelta(t, 94, s.P95FrameMs, 3, "uniform 0..99 sample")
}

type closeTracker struct {
	bytes.Buffer
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestOwnedRecorderClosesWriter(t *testing.T) {
	w := &closeTracker{}
	r := NewOwnedRecorder(w, 1)
	require.NoError(t, r.Close())
	assert.True(t, w.closed)

	plain := &closeTracker{}
	require.NoError(t, NewRecorder(plain, 1).Close())
	assert.False(t, plain.closed)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4, 10}, []float64{100, 200, 300, 400, 500})
	assert.Equal(t, 5, s.Frames)
	assert.InDelta(t, 4.0, s.MeanFrameMs, 1e-9)
	assert.Equal(t, 10.0, s.MaxFrameMs)
	assert.Equal(t, 10.0, s.P95FrameMs)
	assert.Greater(t, s.StdFrameMs, 0.0)
	assert.InDelta(t, 300.0, s.MeanDrawn, 1e-9)
	assert.Equal(t, 500.0, s.MaxDrawn)

	one := Summarize([]float64{5}, nil)
	assert.Zero(t, one.StdFrameMs)
	assert.Equal(t, 5.0, one.P95FrameMs)
	assert.Contains(t, one.String(), "1 frames")

	assert.Equal(t, Summary{}, Summarize(nil, nil))
}

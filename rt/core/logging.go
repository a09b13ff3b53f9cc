package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is the printf-style logging surface shared by the engine's
// components. With returns a logger tagged with a component name.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(component string) Logger
}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	l     *slog.Logger
	level *slog.LevelVar
}

// NewDefaultLogger writes text records to stderr, tagged with component.
// Debug records are dropped unless debug is set.
func NewDefaultLogger(component string, debug bool) *SlogLogger {
	return NewTextLogger(os.Stderr, component, debug)
}

func NewTextLogger(w io.Writer, component string, debug bool) *SlogLogger {
	level := new(slog.LevelVar)
	if debug {
		level.Set(slog.LevelDebug)
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	if component != "" {
		l = l.With("component", component)
	}
	return &SlogLogger{l: l, level: level}
}

// NewSlogLogger wraps an existing slog logger; nil means slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// SetDebug toggles debug records for loggers built by NewTextLogger and
// every logger derived from them with With.
func (s *SlogLogger) SetDebug(enabled bool) {
	if s.level == nil {
		return
	}
	if enabled {
		s.level.Set(slog.LevelDebug)
	} else {
		s.level.Set(slog.LevelInfo)
	}
}

func (s *SlogLogger) Slog() *slog.Logger { return s.l }

func (s *SlogLogger) logf(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (s *SlogLogger) Debugf(format string, args ...any) { s.logf(slog.LevelDebug, format, args) }
func (s *SlogLogger) Infof(format string, args ...any)  { s.logf(slog.LevelInfo, format, args) }
func (s *SlogLogger) Warnf(format string, args ...any)  { s.logf(slog.LevelWarn, format, args) }
func (s *SlogLogger) Errorf(format string, args ...any) { s.logf(slog.LevelError, format, args) }

func (s *SlogLogger) With(component string) Logger {
	return &SlogLogger{l: s.l.With("component", component), level: s.level}
}

// nopHandler discards everything; Enabled is false so nothing is formatted.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func NewNopLogger() Logger { return &SlogLogger{l: slog.New(nopHandler{})} }

// OrNop returns l, or a no-op logger when l is nil. Never returns nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Repeats collapses a message logged every frame. The first occurrence is
// logged, identical follow-ups are counted, and the count is reported when
// the message changes or Clear is called.
type Repeats struct {
	mu      sync.Mutex
	last    string
	skipped int
}

// Errorf logs through l unless the formatted message equals the previous one.
func (r *Repeats) Errorf(l Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg == r.last {
		r.skipped++
		return
	}
	r.flush(l)
	r.last = msg
	l.Errorf("%s", msg)
}

// Clear ends the current run of repeats, e.g. after a successful frame.
func (r *Repeats) Clear(l Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush(l)
	r.last = ""
}

func (r *Repeats) flush(l Logger) {
	if r.skipped > 0 {
		l.Warnf("previous error repeated %d more times: %s", r.skipped, r.last)
	}
	r.skipped = 0
}

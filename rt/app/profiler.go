package app

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Profiler keeps the last CPU duration of named frame phases plus a set of
// integer counters. Phases print in first-seen order.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	if _, ok := p.Scopes[name]; !ok {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
	p.StartTimes[name] = p.now()
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// Line renders the profile on a single line, for window titles and logs.
func (p *Profiler) Line() string {
	parts := make([]string, 0, len(p.Order)+len(p.Counts))
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s %.2fms", name, ms))
	}
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, p.Counts[k]))
	}
	return strings.Join(parts, " | ")
}

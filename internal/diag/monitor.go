// Package diag holds the small runtime diagnostics the board uses: timing
// marks, an error journal, and a debouncer. Each is an ordinary value owned
// by whoever constructs it; nothing here is process-global.
package diag

import (
	"sync"
	"time"
)

// Option customizes diagnostics values during construction.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for marks and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.now = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Monitor records named timestamps and the durations measured between them.
type Monitor struct {
	mu    sync.Mutex
	now   func() time.Time
	marks map[string]time.Time
	spans map[string]time.Duration
}

// NewMonitor builds an empty monitor.
func NewMonitor(opts ...Option) *Monitor {
	o := buildOptions(opts)
	return &Monitor{
		now:   o.now,
		marks: map[string]time.Time{},
		spans: map[string]time.Duration{},
	}
}

// Mark records the current time under name.
func (m *Monitor) Mark(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[name] = m.now()
}

// Measure stores and returns the span between two marks. A missing end mark
// measures up to now; a missing start mark yields zero.
func (m *Monitor) Measure(name, startMark, endMark string) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.marks[startMark]
	if !ok {
		return 0
	}
	end, ok := m.marks[endMark]
	if !ok {
		end = m.now()
	}
	d := end.Sub(start)
	m.spans[name] = d
	return d
}

// Time runs fn and records how long it took under name.
func (m *Monitor) Time(name string, fn func()) time.Duration {
	if m == nil {
		fn()
		return 0
	}
	start := m.now()
	fn()
	d := m.now().Sub(start)
	m.mu.Lock()
	m.spans[name] = d
	m.mu.Unlock()
	return d
}

// Last returns the most recent span recorded under name.
func (m *Monitor) Last(name string) (time.Duration, bool) {
	if m == nil {
		return 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.spans[name]
	return d, ok
}

// Reset clears all marks and spans.
func (m *Monitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks = map[string]time.Time{}
	m.spans = map[string]time.Duration{}
}

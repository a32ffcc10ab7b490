// Package internal holds time plumbing shared by the harness packages.
package internal

import (
	"sync"
	"time"
)

// Clock reports the current time. The stabilizer measures its quiet window
// and timeout through a Clock so tests can drive time by hand.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, which carries a monotonic reading.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when Advance is called.
type ManualClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewManualClock returns a ManualClock set to t, or to a fixed epoch when t
// is zero.
func NewManualClock(t time.Time) *ManualClock {
	if t.IsZero() {
		t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &ManualClock{current: t}
}

// Now returns the clock's current time.
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward by d. Negative durations panic.
func (m *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("ManualClock.Advance: negative duration")
	}
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}

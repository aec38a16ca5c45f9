// Package gesture implements the hidden demo-activation gesture: five rapid
// logo activations, where any idle gap longer than the window zeroes the
// counter.
package gesture

import (
	"sync"
	"time"
)

// Defaults for the demo gesture.
const (
	DefaultThreshold = 5
	DefaultIdle      = 3 * time.Second
)

// Tracker counts activations for a single visitor. It is safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	now       func() time.Time
	count     int
	last      time.Time
	threshold int
	idle      time.Duration
}

// NewTracker returns a tracker with the default threshold and idle window.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now, threshold: DefaultThreshold, idle: DefaultIdle}
}

// NewTrackerWithClock injects a clock for tests.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	t := NewTracker()
	t.now = now
	return t
}

// Tap records one activation and reports whether the gesture fired.
// POST: Returns true exactly once per completed gesture; the counter is
// zero afterwards. An activation arriving after an idle gap starts a fresh
// count of one.
func (t *Tracker) Tap() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.count > 0 && now.Sub(t.last) > t.idle {
		t.count = 0
	}
	t.count++
	t.last = now

	if t.count >= t.threshold {
		t.count = 0
		return true
	}
	return false
}

// Count returns the current activation count.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count > 0 && t.now().Sub(t.last) > t.idle {
		t.count = 0
	}
	return t.count
}

package gesture_test

import (
	"testing"
	"time"

	"rippedcity/internal/domain/gesture"
)

// fakeClock steps time manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestFiveRapidTapsTriggerOnce(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := gesture.NewTrackerWithClock(clock.now)

	for i := 1; i <= 4; i++ {
		if tr.Tap() {
			t.Fatalf("gesture fired early at tap %d", i)
		}
		clock.advance(500 * time.Millisecond)
	}
	if !tr.Tap() {
		t.Fatal("gesture did not fire on the fifth tap")
	}
	if tr.Count() != 0 {
		t.Errorf("counter not reset after trigger, got %d", tr.Count())
	}
}

func TestIdleGapResetsCounter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := gesture.NewTrackerWithClock(clock.now)

	for i := 0; i < 4; i++ {
		tr.Tap()
		clock.advance(time.Second)
	}
	// Pause longer than the window: the count starts over.
	clock.advance(3 * time.Second)
	if tr.Tap() {
		t.Fatal("gesture fired after idle reset")
	}
	if got := tr.Count(); got != 1 {
		t.Errorf("expected fresh count of 1 after idle gap, got %d", got)
	}
}

func TestGapAtExactlyWindowDoesNotReset(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := gesture.NewTrackerWithClock(clock.now)

	for i := 0; i < 4; i++ {
		tr.Tap()
		clock.advance(3 * time.Second) // exactly the window, never beyond
	}
	if !tr.Tap() {
		t.Error("fifth tap with 3s gaps should still fire")
	}
}

func TestTriggerFiresAgainOnlyAfterFiveMoreTaps(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := gesture.NewTrackerWithClock(clock.now)

	fired := 0
	for i := 0; i < 10; i++ {
		if tr.Tap() {
			fired++
		}
		clock.advance(100 * time.Millisecond)
	}
	if fired != 2 {
		t.Errorf("expected 2 triggers over 10 rapid taps, got %d", fired)
	}
}

package internal

import (
	"testing"
	"time"
)

func TestManualClock_Advance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewManualClock(start)

	c.Advance(150 * time.Millisecond)
	c.Advance(0)

	if got := c.Now().Sub(start); got != 150*time.Millisecond {
		t.Errorf("elapsed = %v, want 150ms", got)
	}
}

func TestManualClock_ZeroStartsAtEpoch(t *testing.T) {
	if NewManualClock(time.Time{}).Now().IsZero() {
		t.Error("expected a fixed epoch, got zero time")
	}
}

func TestManualClock_NegativeAdvancePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewManualClock(time.Time{}).Advance(-time.Second)
}

func TestSystemClock_Moves(t *testing.T) {
	var c Clock = SystemClock{}
	a := c.Now()
	time.Sleep(time.Millisecond)
	if !c.Now().After(a) {
		t.Error("system clock did not advance")
	}
}

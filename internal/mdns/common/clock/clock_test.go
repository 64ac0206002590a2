package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}

	before := time.Now()
	now := c.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("clock time %v not between %v and %v", now, before, after)
	}
}

func TestMockClock_NowReturnsFixedTime(t *testing.T) {
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(fixed)

	if !c.Now().Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, c.Now())
	}
}

func TestMockClock_Advance(t *testing.T) {
	c := NewMockClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))

	c.Advance(90 * time.Second)
	if got, want := c.Now(), time.Date(2025, 8, 1, 12, 1, 30, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	c.Advance(-30 * time.Second)
	if got, want := c.Now(), time.Date(2025, 8, 1, 12, 1, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClock_InterfaceCompliance(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = &MockClock{}
}

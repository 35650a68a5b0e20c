package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if got := clock.Today(nil); got != "2025-11-10" {
		t.Fatalf("expected reference day 2025-11-10, got %q", got)
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockTodayFollowsLocation(t *testing.T) {
	clock := NewClock(time.Date(2025, time.November, 10, 22, 30, 0, 0, time.UTC))
	tokyo := time.FixedZone("JST", 9*60*60)

	if got := clock.Today(time.UTC); got != "2025-11-10" {
		t.Fatalf("expected UTC day 2025-11-10, got %q", got)
	}
	if got := clock.Today(tokyo); got != "2025-11-11" {
		t.Fatalf("expected Tokyo day 2025-11-11, got %q", got)
	}
	if got := clock.DaysFromToday(time.UTC, -1); got != "2025-11-09" {
		t.Fatalf("expected yesterday 2025-11-09, got %q", got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}
}

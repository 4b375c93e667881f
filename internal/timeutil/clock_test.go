package timeutil_test

import (
	"testing"
	"time"

	"vinyasa/internal/timeutil"
)

func TestRealClockNow(t *testing.T) {
	clock := timeutil.RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()
	if now.Before(before) || now.After(after) {
		t.Fatalf("RealClock.Now out of range: %v not in [%v, %v]", now, before, after)
	}
}

func TestMockClockAdvance(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(base)

	if got := clock.Now(); !got.Equal(base) {
		t.Fatalf("Now = %v, want %v", got, base)
	}

	clock.Advance(90 * time.Second)
	want := base.Add(90 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now after Advance = %v, want %v", got, want)
	}
	if got := clock.Since(base); got != 90*time.Second {
		t.Fatalf("Since = %v, want 90s", got)
	}
}

func TestMockClockSet(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	target := time.Date(2026, 6, 15, 18, 30, 0, 0, time.UTC)
	clock.Set(target)
	if got := clock.Now(); !got.Equal(target) {
		t.Fatalf("Now after Set = %v, want %v", got, target)
	}
}

func TestMockClockRecordsSleeps(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	clock.Sleep(time.Second)
	clock.Sleep(250 * time.Millisecond)

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 {
		t.Fatalf("expected two recorded sleeps, got %d", len(sleeps))
	}
	if sleeps[0] != time.Second || sleeps[1] != 250*time.Millisecond {
		t.Fatalf("unexpected sleep durations: %v", sleeps)
	}
	if got := clock.Now(); !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Sleep must not advance mock time, got %v", got)
	}
}

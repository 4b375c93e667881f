package tracker_test

import (
	"testing"
	"time"

	"vinyasa/internal/angles"
	"vinyasa/internal/tracker"
)

func TestTrendImproving(t *testing.T) {
	day := func(offset int, hour int) time.Time {
		return time.Date(2026, 8, 17+offset, hour, 0, 0, 0, time.UTC)
	}
	events := []tracker.Event{
		event("tree_pose", "standing_leg", 150, day(0, 9)),
		event("tree_pose", "standing_leg", 152, day(0, 10)),
		event("tree_pose", "standing_leg", 160, day(1, 9)),
		event("tree_pose", "standing_leg", 170, day(2, 9)),
		event("tree_pose", "standing_leg", 172, day(2, 10)),
	}

	report := tracker.Trend(events, angles.LargerIsBetter, 0)
	if report.State != tracker.TrendImproving {
		t.Fatalf("state = %q, want improving", report.State)
	}
	if report.Improvement != 14.5 {
		t.Fatalf("improvement = %.4f, want 14.5", report.Improvement)
	}
	if report.RecentMean != 165.5 {
		t.Fatalf("recent mean = %.4f, want 165.5", report.RecentMean)
	}
	if report.Days != tracker.DefaultTrendDays || report.DataPoints != 5 {
		t.Fatalf("days = %d points = %d, want 7 and 5", report.Days, report.DataPoints)
	}
}

func TestTrendDirectionAware(t *testing.T) {
	day1 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	tests := []struct {
		name      string
		first     float64
		second    float64
		direction angles.Direction
		state     string
		gainValue float64
	}{
		{"lean growing is decline", 4, 9, angles.SmallerIsBetter, tracker.TrendDeclining, -5},
		{"lean shrinking is improvement", 9, 4, angles.SmallerIsBetter, tracker.TrendImproving, 5},
		{"straightness shrinking is decline", 175, 168, angles.LargerIsBetter, tracker.TrendDeclining, -7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []tracker.Event{
				event("tree_pose", "spine_vertical", tt.first, day1),
				event("tree_pose", "spine_vertical", tt.second, day2),
			}
			report := tracker.Trend(events, tt.direction, 7)
			if report.State != tt.state {
				t.Fatalf("state = %q, want %q", report.State, tt.state)
			}
			if report.Improvement != tt.gainValue {
				t.Fatalf("improvement = %.4f, want %.4f", report.Improvement, tt.gainValue)
			}
		})
	}
}

func TestTrendStableWithinThreshold(t *testing.T) {
	day1 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	events := []tracker.Event{
		event("warrior_2", "back_leg", 170, day1),
		event("warrior_2", "back_leg", 170.5, day1.AddDate(0, 0, 1)),
	}

	report := tracker.Trend(events, angles.LargerIsBetter, 7)
	if report.State != tracker.TrendStable {
		t.Fatalf("state = %q, want stable", report.State)
	}
	if report.Improvement != 0.5 {
		t.Fatalf("improvement = %.4f, want 0.5", report.Improvement)
	}
}

func TestTrendInsufficientData(t *testing.T) {
	day1 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		events []tracker.Event
		points int
	}{
		{"no events", nil, 0},
		{"single measurement", []tracker.Event{
			event("tree_pose", "standing_leg", 170, day1),
		}, 1},
		{"all on one day", []tracker.Event{
			event("tree_pose", "standing_leg", 170, day1),
			event("tree_pose", "standing_leg", 175, day1.Add(time.Hour)),
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tracker.Trend(tt.events, angles.LargerIsBetter, 7)
			if report.State != tracker.TrendInsufficient {
				t.Fatalf("state = %q, want insufficient_data", report.State)
			}
			if report.DataPoints != tt.points {
				t.Fatalf("data points = %d, want %d", report.DataPoints, tt.points)
			}
		})
	}
}

func TestTrendWindowAnchorsAtNewestEvent(t *testing.T) {
	anchor := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	events := []tracker.Event{
		event("warrior_2", "front_knee", 100, anchor.AddDate(0, 0, -10)),
		event("warrior_2", "front_knee", 160, anchor.AddDate(0, 0, -1)),
		event("warrior_2", "front_knee", 170, anchor),
	}

	report := tracker.Trend(events, angles.LargerIsBetter, 7)
	if report.DataPoints != 2 {
		t.Fatalf("data points = %d, want the stale event excluded", report.DataPoints)
	}
	if report.State != tracker.TrendImproving || report.Improvement != 10 {
		t.Fatalf("report = %+v, want improving by 10", report)
	}
}

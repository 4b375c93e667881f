package tracker

import (
	"gonum.org/v1/gonum/stat"

	"vinyasa/internal/angles"
)

// Trend states.
const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// DefaultTrendDays is the trailing window for trend reports.
const DefaultTrendDays = 7

// trendThreshold is the direction-aware gain, in degrees, separating a
// stable trend from a moving one.
const trendThreshold = 1.0

// TrendReport summarizes recent movement for one key.
type TrendReport struct {
	State       string  `json:"trend"`
	Improvement float64 `json:"improvement"`
	RecentMean  float64 `json:"recent_average"`
	Days        int     `json:"days_analyzed"`
	DataPoints  int     `json:"data_points"`
}

// Trend groups the trailing days of events into daily averages, splits
// those into an earlier and a later half, and compares the half means.
// The window is anchored at the newest event's timestamp so replayed
// journals report the same trend regardless of when they are analyzed.
// Fewer than two measurements, or all measurements on one day, yield
// TrendInsufficient.
func Trend(events []Event, direction angles.Direction, days int) TrendReport {
	if days <= 0 {
		days = DefaultTrendDays
	}
	report := TrendReport{State: TrendInsufficient, Days: days}
	if len(events) == 0 {
		return report
	}

	anchor := events[len(events)-1].Timestamp
	cutoff := anchor.AddDate(0, 0, -days)
	var dates []string
	byDate := make(map[string][]float64)
	for _, event := range events {
		if event.Timestamp.Before(cutoff) || event.Timestamp.After(anchor) {
			continue
		}
		date := event.Date()
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], event.Value)
		report.DataPoints++
	}
	if report.DataPoints < 2 || len(dates) < 2 {
		return report
	}

	dailyMeans := make([]float64, len(dates))
	for i, date := range dates {
		dailyMeans[i] = stat.Mean(byDate[date], nil)
	}
	half := len(dailyMeans) / 2
	earlier := stat.Mean(dailyMeans[:half], nil)
	later := stat.Mean(dailyMeans[half:], nil)

	report.Improvement = gain(direction, later, earlier)
	report.RecentMean = later
	switch {
	case report.Improvement > trendThreshold:
		report.State = TrendImproving
	case report.Improvement < -trendThreshold:
		report.State = TrendDeclining
	default:
		report.State = TrendStable
	}
	return report
}

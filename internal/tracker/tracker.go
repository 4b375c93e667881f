// Package tracker maintains the longitudinal performance record: an
// append-only measurement journal with derived personal bests, daily bests,
// and rolling averages.
//
// Every derivation is keyed by event timestamps, never wall clock, so
// replaying a journal reproduces the same aggregates. Rolling means are
// recomputed over the stored window on each read instead of being updated
// in place, which keeps incremental recording and full recomputation
// bit-identical.
package tracker

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"vinyasa/internal/angles"
	"vinyasa/internal/coach"
	"vinyasa/internal/logging"
)

// DefaultWindowDays bounds rolling averages when no window is configured.
const DefaultWindowDays = 30

// Event is one recorded angle measurement. Immutable once journaled.
type Event struct {
	Pose      string    `json:"pose"`
	Angle     string    `json:"angle_name"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// Key returns the aggregate key the event belongs to.
func (e Event) Key() Key {
	return Key{Pose: e.Pose, Angle: e.Angle}
}

// Date returns the event's calendar date, derived from its own timestamp.
func (e Event) Date() string {
	return e.Timestamp.Format("2006-01-02")
}

// Key identifies one tracked angle within one pose.
type Key struct {
	Pose  string
	Angle string
}

func (k Key) String() string {
	return k.Pose + "/" + k.Angle
}

// Best is a record value together with a reference to the event that set it.
type Best struct {
	Pose      string    `json:"pose"`
	Angle     string    `json:"angle_name"`
	Value     float64   `json:"value"`
	Date      string    `json:"date"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats compares one measurement against the record as it stood before the
// measurement was folded in. The feedback selector turns these into spoken
// achievements, so prior values ride along for message arguments.
type Stats struct {
	Key   Key
	Value float64

	First        bool  // no prior events for the key
	PersonalBest bool  // beats the prior all-time best
	PriorBest    *Best // nil when First
	DailyBest    bool  // first of the day or beats the prior daily best; false when First
	PriorDaily   *Best // nil when nothing was recorded on the event's date

	RollingMean  float64 // window mean over prior events, excluding this one
	RollingCount int
	Improvement  float64 // direction-aware gain over RollingMean

	Updated Aggregate // record state after the event
}

// Aggregate is the derived state for one key.
type Aggregate struct {
	Key          Key
	Count        int
	PersonalBest *Best
	DailyBest    *Best   // for the newest event's date
	RollingMean  float64 // window mean ending at the newest event
	RollingCount int
}

// Journal persists events as they are recorded.
type Journal interface {
	AppendEvent(event Event) error
}

// Options tune the tracker.
type Options struct {
	// WindowDays is the trailing window for rolling averages.
	WindowDays int
	// Journal receives every recorded event. Nil keeps the record in
	// memory only.
	Journal Journal
}

// Tracker holds the in-memory performance record. It is mutated only from
// the evaluation cycle; no internal locking.
type Tracker struct {
	defs    *angles.Definitions
	window  int
	journal Journal
	logger  *slog.Logger

	events map[Key][]Event
	bests  map[Key]Best
	daily  map[Key]map[string]Best
}

// New builds an empty tracker. A nil catalog uses the built-in poses; the
// catalog supplies each angle's improvement direction.
func New(defs *angles.Definitions, opts Options, logger *slog.Logger) *Tracker {
	if defs == nil {
		defs = angles.Builtin()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		defs:    defs,
		window:  opts.WindowDays,
		journal: opts.Journal,
		logger:  logger,
		events:  make(map[Key][]Event),
		bests:   make(map[Key]Best),
		daily:   make(map[Key]map[string]Best),
	}
}

// Record folds an event into the record and journals it. The returned stats
// describe the transition; Stats.Updated carries the post-event aggregate.
// A journal failure is retried once and then reported as a warning and an
// advisory persistence error — the in-memory record stays authoritative
// either way, so callers may continue the session on a non-nil error.
func (t *Tracker) Record(event Event) (Stats, error) {
	key := event.Key()
	direction := t.direction(key)
	stats := Stats{Key: key, Value: event.Value}

	prior := t.events[key]
	if len(prior) == 0 {
		stats.First = true
	} else {
		if best, ok := t.bests[key]; ok {
			b := best
			stats.PriorBest = &b
			stats.PersonalBest = direction.Better(event.Value, best.Value)
		}
		if dayBest, ok := t.daily[key][event.Date()]; ok {
			b := dayBest
			stats.PriorDaily = &b
			stats.DailyBest = direction.Better(event.Value, dayBest.Value)
		} else {
			stats.DailyBest = true
		}
		mean, count := windowMean(prior, event.Timestamp, t.window)
		stats.RollingMean = mean
		stats.RollingCount = count
		if count > 0 {
			stats.Improvement = gain(direction, event.Value, mean)
		}
	}

	t.fold(event, direction)
	stats.Updated = t.aggregate(key)

	return stats, t.persist(event)
}

// Aggregates returns the current aggregate for a key without mutating the
// record. The second return is false when the key has no events.
func (t *Tracker) Aggregates(key Key) (Aggregate, bool) {
	if len(t.events[key]) == 0 {
		return Aggregate{Key: key}, false
	}
	return t.aggregate(key), true
}

// Keys lists every key with at least one event, sorted by pose then angle.
func (t *Tracker) Keys() []Key {
	keys := make([]Key, 0, len(t.events))
	for key := range t.events {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Pose != keys[j].Pose {
			return keys[i].Pose < keys[j].Pose
		}
		return keys[i].Angle < keys[j].Angle
	})
	return keys
}

// PersonalBests lists the all-time best per key, sorted by pose then angle.
func (t *Tracker) PersonalBests() []Best {
	bests := make([]Best, 0, len(t.bests))
	for _, best := range t.bests {
		bests = append(bests, best)
	}
	sortBests(bests)
	return bests
}

// DailyBests lists the best per key per calendar date, sorted by date, pose,
// then angle.
func (t *Tracker) DailyBests() []Best {
	var bests []Best
	for _, byDate := range t.daily {
		for _, best := range byDate {
			bests = append(bests, best)
		}
	}
	sort.Slice(bests, func(i, j int) bool {
		if bests[i].Date != bests[j].Date {
			return bests[i].Date < bests[j].Date
		}
		if bests[i].Pose != bests[j].Pose {
			return bests[i].Pose < bests[j].Pose
		}
		return bests[i].Angle < bests[j].Angle
	})
	return bests
}

// RecomputeFromLog discards the current record and rebuilds it from a
// replayed journal. Events must already be in timestamp order; nothing is
// re-journaled. This is the recovery path after a corrupted snapshot, and
// it reproduces incremental aggregates bit for bit.
func (t *Tracker) RecomputeFromLog(events []Event) {
	t.events = make(map[Key][]Event)
	t.bests = make(map[Key]Best)
	t.daily = make(map[Key]map[string]Best)
	for _, event := range events {
		t.fold(event, t.direction(event.Key()))
	}
}

func (t *Tracker) direction(key Key) angles.Direction {
	if req, ok := t.defs.Lookup(key.Pose, key.Angle); ok {
		return req.Direction
	}
	return angles.LargerIsBetter
}

func (t *Tracker) fold(event Event, direction angles.Direction) {
	key := event.Key()
	t.events[key] = append(t.events[key], event)

	if best, ok := t.bests[key]; !ok || direction.Better(event.Value, best.Value) {
		t.bests[key] = asBest(event)
	}

	byDate, ok := t.daily[key]
	if !ok {
		byDate = make(map[string]Best)
		t.daily[key] = byDate
	}
	date := event.Date()
	if current, ok := byDate[date]; !ok || direction.Better(event.Value, current.Value) {
		byDate[date] = asBest(event)
	}
}

func (t *Tracker) aggregate(key Key) Aggregate {
	events := t.events[key]
	agg := Aggregate{Key: key, Count: len(events)}
	if len(events) == 0 {
		return agg
	}
	if best, ok := t.bests[key]; ok {
		b := best
		agg.PersonalBest = &b
	}
	newest := events[len(events)-1]
	if dayBest, ok := t.daily[key][newest.Date()]; ok {
		b := dayBest
		agg.DailyBest = &b
	}
	agg.RollingMean, agg.RollingCount = windowMean(events, newest.Timestamp, t.window)
	return agg
}

func (t *Tracker) persist(event Event) error {
	if t.journal == nil {
		return nil
	}
	err := t.journal.AppendEvent(event)
	if err == nil {
		return nil
	}
	if retryErr := t.journal.AppendEvent(event); retryErr != nil {
		err = retryErr
	} else {
		t.logger.Debug("event journal append succeeded on retry",
			logging.String("key", event.Key().String()))
		return nil
	}

	logging.WarnWithContext(t.logger, "event journal write failed", "event_journal_failed",
		logging.String("key", event.Key().String()),
		logging.Error(err),
		logging.String("error_hint", "check data directory permissions and free space"),
		logging.String(logging.FieldImpact, "measurement kept in memory for this session only"))
	return coach.Wrap(coach.ErrPersistence, "tracker", "record", "journal append for "+event.Key().String(), err)
}

func asBest(event Event) Best {
	return Best{
		Pose:      event.Pose,
		Angle:     event.Angle,
		Value:     event.Value,
		Date:      event.Date(),
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
	}
}

func sortBests(bests []Best) {
	sort.Slice(bests, func(i, j int) bool {
		if bests[i].Pose != bests[j].Pose {
			return bests[i].Pose < bests[j].Pose
		}
		return bests[i].Angle < bests[j].Angle
	})
}

// gain converts a raw value-vs-mean difference into a direction-aware
// improvement where positive always means better.
func gain(direction angles.Direction, value, mean float64) float64 {
	if direction == angles.SmallerIsBetter {
		return mean - value
	}
	return value - mean
}

// windowMean averages the event values inside the trailing window ending at
// anchor. Events after the anchor are ignored so replays stay deterministic.
func windowMean(events []Event, anchor time.Time, windowDays int) (float64, int) {
	cutoff := anchor.AddDate(0, 0, -windowDays)
	values := make([]float64, 0, len(events))
	for _, event := range events {
		if event.Timestamp.Before(cutoff) || event.Timestamp.After(anchor) {
			continue
		}
		values = append(values, event.Value)
	}
	if len(values) == 0 {
		return 0, 0
	}
	return stat.Mean(values, nil), len(values)
}

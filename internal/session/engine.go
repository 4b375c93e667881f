// Package session runs the coaching loop. An Engine owns one practice
// session: it holds the data-directory lock, evaluates keypoint frames
// through the match, analysis, record, and selection stages, queues chosen
// feedback for narration, and writes the session document on close.
//
// An Engine is single threaded. Evaluate, Status, and Close must all be
// called from the same goroutine; only narration runs concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vinyasa/internal/angles"
	"vinyasa/internal/archive"
	"vinyasa/internal/coach"
	"vinyasa/internal/config"
	"vinyasa/internal/feedback"
	"vinyasa/internal/library"
	"vinyasa/internal/logging"
	"vinyasa/internal/narrator"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/pose"
	"vinyasa/internal/scorer"
	"vinyasa/internal/timeutil"
	"vinyasa/internal/tracker"
)

// summarySpeechTimeout bounds the synchronous summary narration at close.
const summarySpeechTimeout = 15 * time.Second

// Options override engine dependencies, mainly for tests.
type Options struct {
	// Clock supplies the time base; nil means the wall clock.
	Clock timeutil.Clock

	// Speaker overrides the speech backend built from the configuration.
	Speaker narrator.Speaker

	// Library overrides loading the reference library from its configured
	// path.
	Library *library.Library

	// Definitions overrides the angle requirement catalog.
	Definitions *angles.Definitions
}

// Engine evaluates one practice session against the reference library and
// the longitudinal performance record.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  timeutil.Clock

	lock     *flock.Flock
	store    *perfstore.Store
	archive  *archive.Store
	scorer   *scorer.Scorer
	analyzer *angles.Analyzer
	tracker  *tracker.Tracker
	selector *feedback.Selector
	voice    *narrator.Narrator

	sessionID    string
	start        time.Time
	measureEvery time.Duration
	lastMeasured map[tracker.Key]time.Time

	frameCount     int
	detected       int
	poseCounts     map[string]int
	formScoreSum   float64
	formScoreCount int
	lastPose       string
	lastConfidence float64
	lastFormScore  float64

	measurements  int
	personalBests int
	dailyBests    int
	improvements  int
	frames        []perfstore.SessionFrame
	events        []tracker.Event

	closed bool
}

// New acquires the session lock, replays the event journal into a fresh
// tracker, and returns an engine ready for Evaluate. Exactly one engine can
// exist per data directory; a second New fails until the first is closed.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("session requires a configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	lib := opts.Library
	if lib == nil {
		loaded, err := library.Load(cfg.Paths.LibraryPath, cfg.Detection.ScaleEpsilon, logger)
		if err != nil {
			return nil, fmt.Errorf("load pose library: %w", err)
		}
		lib = loaded
	}
	defs := opts.Definitions
	if defs == nil {
		if strings.TrimSpace(cfg.Paths.AnglesPath) != "" {
			loaded, err := angles.LoadFile(cfg.Paths.AnglesPath)
			if err != nil {
				return nil, fmt.Errorf("load angle catalog: %w", err)
			}
			defs = loaded
		} else {
			defs = angles.Builtin()
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another coaching session is already running")
	}

	store := perfstore.New(cfg.Paths.DataDir, logger)
	history, err := store.LoadEvents()
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("replay event journal: %w", err)
	}

	start := clock.Now()
	sessionID := start.UTC().Format("20060102T150405") + "_" + uuid.NewString()[:8]
	sessionLogger := logger.With(logging.String(logging.FieldSessionID, sessionID))

	trk := tracker.New(defs, tracker.Options{
		WindowDays: cfg.Tracking.WindowDays,
		Journal:    store,
	}, sessionLogger)
	trk.RecomputeFromLog(history)

	var arch *archive.Store
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Path) != "" {
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			logging.WarnWithContext(sessionLogger, "practice archive unavailable", "archive_open_failed",
				logging.String("path", cfg.Archive.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run vinyasa rebuild once the archive path is writable"),
				logging.String(logging.FieldImpact, "this session will be missing from history and trend queries"))
			arch = nil
		}
	}

	speaker := opts.Speaker
	if speaker == nil {
		speaker = narrator.NewSpeaker(cfg)
	}

	engine := &Engine{
		cfg:     cfg,
		logger:  sessionLogger,
		clock:   clock,
		lock:    lock,
		store:   store,
		archive: arch,
		scorer: scorer.New(lib, scorer.Options{
			Threshold:       cfg.Detection.SimilarityThreshold,
			ConfidenceFloor: cfg.Detection.ConfidenceFloor,
			Hysteresis:      cfg.Detection.HysteresisEpsilon,
			ScaleEpsilon:    cfg.Detection.ScaleEpsilon,
		}, sessionLogger),
		analyzer: angles.NewAnalyzer(defs, sessionLogger),
		tracker:  trk,
		selector: feedback.NewSelector(feedback.Options{
			Cooldown:             seconds(cfg.Narrator.CooldownSeconds),
			EntryCooldown:        seconds(cfg.Narrator.EntryCooldownSeconds),
			MinHold:              seconds(cfg.Detection.MinHoldSeconds),
			ImprovementThreshold: cfg.Tracking.ImprovementThreshold,
			ConfidenceFloor:      cfg.Detection.ConfidenceFloor,
			WindowDays:           cfg.Tracking.WindowDays,
			AnnounceEntry:        cfg.Narrator.AnnouncePoseEntry,
			Clock:                clock,
		}, sessionLogger),
		voice:        narrator.New(speaker, sessionLogger),
		sessionID:    sessionID,
		start:        start,
		measureEvery: seconds(cfg.Tracking.MeasurementIntervalSeconds),
		lastMeasured: make(map[tracker.Key]time.Time),
		poseCounts:   make(map[string]int),
	}

	engine.logger.Info("session started",
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.Int("library_poses", lib.Len()),
		logging.Int("journal_events", len(history)))
	return engine, nil
}

// SessionID returns the identifier events and documents are stamped with.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Evaluate runs one evaluation cycle over frame. The returned candidate,
// when non-nil, has already been queued for narration; callers only need
// it for display. A non-nil error can accompany a usable candidate: journal
// write failures are advisory and the session continues on the in-memory
// record.
func (e *Engine) Evaluate(frame pose.Frame) (*feedback.Candidate, error) {
	if e.closed {
		return nil, errors.New("session already closed")
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = e.clock.Now()
	}
	e.frameCount++

	result, err := e.scorer.Evaluate(frame)
	if err != nil {
		// Frames that cannot be normalized count as no detected pose so
		// the selector resets its hold window.
		e.logger.Debug("frame not evaluable",
			logging.Int("frame", e.frameCount),
			logging.String(logging.FieldErrorHint, coach.ErrorKind(err)),
			logging.Error(err))
	}
	e.lastPose = result.Label
	e.lastConfidence = result.Confidence

	input := feedback.Input{Pose: result.Label, Confidence: result.Confidence}
	var persistErr error
	if result.Known() {
		e.detected++
		e.poseCounts[result.Label]++

		input.Analyses = e.analyzer.Analyze(result.Label, frame)
		if len(input.Analyses) > 0 {
			score, _ := angles.FormScore(input.Analyses)
			e.formScoreSum += score
			e.formScoreCount++
			e.lastFormScore = score
		}
		if e.selector.Measurable(result.Label, result.Confidence) {
			input.Stats, persistErr = e.measure(result.Label, frame.Timestamp, input.Analyses)
		}
		e.recordFrame(frame, result)
	}

	candidate := e.selector.Select(input)
	if candidate != nil {
		e.voice.Announce(candidate.Message)
		e.logger.Info("feedback chosen",
			logging.String("kind", string(candidate.Kind)),
			logging.String(logging.FieldPose, candidate.Pose),
			logging.String(logging.FieldAngle, candidate.Angle),
			logging.String("message", candidate.Message))
	}
	return candidate, persistErr
}

// measure journals one event per analyzed angle, rate limited per key by
// the measurement interval, and tallies achievements for the summary.
func (e *Engine) measure(label string, at time.Time, analyses []angles.Analysis) ([]tracker.Stats, error) {
	var firstErr error
	stats := make([]tracker.Stats, 0, len(analyses))
	for _, analysis := range analyses {
		key := tracker.Key{Pose: label, Angle: analysis.Angle}
		if e.measureEvery > 0 {
			if last, ok := e.lastMeasured[key]; ok && at.Sub(last) < e.measureEvery {
				continue
			}
		}
		event := tracker.Event{
			Pose:      label,
			Angle:     analysis.Angle,
			Value:     analysis.Measured,
			Timestamp: at,
			SessionID: e.sessionID,
		}
		st, err := e.tracker.Record(event)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		e.lastMeasured[key] = at
		e.events = append(e.events, event)
		e.measurements++
		e.tally(st)
		stats = append(stats, st)
	}
	return stats, firstErr
}

// tally counts each measurement's most notable transition, mirroring the
// precedence the selector speaks them with.
func (e *Engine) tally(stats tracker.Stats) {
	switch {
	case stats.First || stats.PersonalBest:
		e.personalBests++
	case stats.DailyBest:
		e.dailyBests++
	case stats.RollingCount > 0 && stats.Improvement >= e.cfg.Tracking.ImprovementThreshold:
		e.improvements++
	}
}

// recordFrame samples every Nth confident frame into the session document
// so the session can be replayed later.
func (e *Engine) recordFrame(frame pose.Frame, result scorer.Result) {
	every := e.cfg.Tracking.RecordEveryNFrames
	if every <= 0 || e.frameCount%every != 0 {
		return
	}
	e.frames = append(e.frames, perfstore.SessionFrame{
		Timestamp:   frame.Timestamp,
		FrameNumber: e.frameCount,
		Pose:        result.Label,
		Score:       result.Score,
		Confidence:  result.Confidence,
		Keypoints:   frame.Landmarks,
	})
}

// Status is a point-in-time view of the running session for display.
type Status struct {
	SessionID     string
	Pose          string
	Confidence    float64
	FormScore     float64
	Frames        int
	Detected      int
	Measurements  int
	PersonalBests int
	DailyBests    int
	Improvements  int
	Elapsed       time.Duration
}

// Status reports the current cycle state. Like Evaluate it must only be
// called from the evaluation goroutine.
func (e *Engine) Status() Status {
	return Status{
		SessionID:     e.sessionID,
		Pose:          e.lastPose,
		Confidence:    e.lastConfidence,
		FormScore:     e.lastFormScore,
		Frames:        e.frameCount,
		Detected:      e.detected,
		Measurements:  e.measurements,
		PersonalBests: e.personalBests,
		DailyBests:    e.dailyBests,
		Improvements:  e.improvements,
		Elapsed:       e.clock.Now().Sub(e.start),
	}
}

// Summary is the end-of-session roll-up returned by Close.
type Summary struct {
	SessionID      string
	Start          time.Time
	End            time.Time
	Duration       time.Duration
	TotalFrames    int
	DetectedFrames int
	Measurements   int
	PersonalBests  int
	DailyBests     int
	Improvements   int
	AverageForm    float64
	FormGrade      string
	PosesPracticed []string
	PoseCounts     map[string]int
	Message        string
	DocumentPath   string
}

// Close ends the session: it snapshots the performance record, writes the
// session document, indexes the archive, narrates the summary, and releases
// the session lock. The summary is returned even when persistence degrades;
// the error then reports the first failed write.
func (e *Engine) Close() (Summary, error) {
	if e.closed {
		return Summary{}, errors.New("session already closed")
	}
	e.closed = true

	end := e.clock.Now()
	summary := e.summarize(end)

	var firstErr error
	if err := e.store.SavePersonalBests(e.tracker.PersonalBests()); err != nil {
		firstErr = coach.Wrap(coach.ErrPersistence, "session", "close", "personal bests snapshot", err)
	}
	if err := e.store.SaveDailyBests(e.tracker.DailyBests()); err != nil && firstErr == nil {
		firstErr = coach.Wrap(coach.ErrPersistence, "session", "close", "daily bests snapshot", err)
	}

	if e.frameCount > 0 {
		doc := e.document(end, summary)
		path, err := e.store.SaveSession(doc)
		if err != nil {
			if firstErr == nil {
				firstErr = coach.Wrap(coach.ErrPersistence, "session", "close", "session document", err)
			}
		} else {
			summary.DocumentPath = path
			e.indexArchive(doc, path)
		}
	}
	if firstErr != nil {
		logging.WarnWithContext(e.logger, "session close left unsaved state", "session_close_degraded",
			logging.Error(firstErr),
			logging.String(logging.FieldErrorHint, "check data directory permissions and free space"),
			logging.String(logging.FieldImpact, "aggregates will be rebuilt from the event journal on next start"))
	}

	e.voice.Close()
	if e.cfg.Narrator.SpeakSummary {
		ctx, cancel := context.WithTimeout(context.Background(), summarySpeechTimeout)
		if err := e.voice.Speak(ctx, summary.Message); err != nil {
			e.logger.Debug("summary narration failed", logging.Error(err))
		}
		cancel()
	}

	if err := e.lock.Unlock(); err != nil {
		logging.WarnWithContext(e.logger, "failed to release session lock", "session_lock_release_failed",
			logging.String("path", e.cfg.LockPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no session is running"),
			logging.String(logging.FieldImpact, "the next session may refuse to start"))
	}
	if e.archive != nil {
		if err := e.archive.Close(); err != nil {
			e.logger.Debug("archive close failed", logging.Error(err))
		}
	}

	e.logger.Info("session complete",
		logging.Duration("duration", summary.Duration),
		logging.Int("frames", summary.TotalFrames),
		logging.Int("measurements", summary.Measurements),
		logging.Int("personal_bests", summary.PersonalBests),
		logging.Int("daily_bests", summary.DailyBests),
		logging.Int("improvements", summary.Improvements))
	return summary, firstErr
}

func (e *Engine) summarize(end time.Time) Summary {
	poses := make([]string, 0, len(e.poseCounts))
	for label := range e.poseCounts {
		poses = append(poses, label)
	}
	sort.Strings(poses)

	averageForm := 0.0
	grade := "No data"
	if e.formScoreCount > 0 {
		averageForm = e.formScoreSum / float64(e.formScoreCount)
		grade = angles.Grade(averageForm)
	}

	duration := end.Sub(e.start)
	return Summary{
		SessionID:      e.sessionID,
		Start:          e.start,
		End:            end,
		Duration:       duration,
		TotalFrames:    e.frameCount,
		DetectedFrames: e.detected,
		Measurements:   e.measurements,
		PersonalBests:  e.personalBests,
		DailyBests:     e.dailyBests,
		Improvements:   e.improvements,
		AverageForm:    averageForm,
		FormGrade:      grade,
		PosesPracticed: poses,
		PoseCounts:     e.poseCounts,
		Message:        feedback.SummaryMessage(e.personalBests, e.dailyBests, e.improvements, duration.Minutes()),
	}
}

func (e *Engine) document(end time.Time, summary Summary) perfstore.SessionDoc {
	return perfstore.SessionDoc{
		SessionID:    e.sessionID,
		Start:        e.start,
		End:          end,
		DurationSecs: summary.Duration.Seconds(),
		TotalFrames:  e.frameCount,
		Frames:       e.frames,
		Summary: perfstore.SessionSummary{
			PersonalBests:  summary.PersonalBests,
			DailyBests:     summary.DailyBests,
			Improvements:   summary.Improvements,
			Measurements:   summary.Measurements,
			PosesPracticed: summary.PosesPracticed,
			AverageForm:    summary.AverageForm,
		},
	}
}

// indexArchive mirrors the session into the sqlite index. Failures are
// logged only; the archive can always be rebuilt from the documents.
func (e *Engine) indexArchive(doc perfstore.SessionDoc, path string) {
	if e.archive == nil {
		return
	}
	ctx := context.Background()
	if err := e.archive.IndexEvents(ctx, e.events); err != nil {
		logging.WarnWithContext(e.logger, "archive event indexing failed", "archive_index_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run vinyasa rebuild to refill the archive"),
			logging.String(logging.FieldImpact, "history and trend queries will miss this session"))
		return
	}
	info := perfstore.SessionInfo{
		SessionID:    doc.SessionID,
		Path:         path,
		Start:        doc.Start,
		DurationSecs: doc.DurationSecs,
		TotalFrames:  doc.TotalFrames,
		Summary:      doc.Summary,
	}
	if err := e.archive.IndexSession(ctx, info); err != nil {
		logging.WarnWithContext(e.logger, "archive session indexing failed", "archive_index_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run vinyasa rebuild to refill the archive"),
			logging.String(logging.FieldImpact, "the sessions view will miss this session"))
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

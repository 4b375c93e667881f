// Package archive maintains a derived sqlite index over the JSON performance
// record for fast history and session queries from the command line.
//
// The JSON documents under the data directory stay authoritative. Anything
// in the archive can be rebuilt from them, so a schema bump never migrates
// data; the index is dropped and reindexed instead.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vinyasa/internal/fileutil"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/tracker"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current index schema. Bump it when schema.sql
// changes; stale archives are rebuilt, never migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the archive was written by a different schema
// version and needs a rebuild.
var ErrSchemaMismatch = errors.New("archive schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is the sqlite-backed practice archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the archive database at path, creating it and its schema
// when missing.
func Open(path string) (*Store, error) {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: archive has version %d, expected %d (run 'vinyasa rebuild' to reindex)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy absorbs short lock contention between a running session and a
// concurrent CLI query against the same archive.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// IndexEvent adds one measurement to the index.
func (s *Store) IndexEvent(ctx context.Context, event tracker.Event) error {
	if err := s.execWithRetry(
		ctx,
		`INSERT INTO events (pose, angle, value, recorded_at, recorded_date, session_id)
         VALUES (?, ?, ?, ?, ?, ?)`,
		event.Pose,
		event.Angle,
		event.Value,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.Date(),
		event.SessionID,
	); err != nil {
		return fmt.Errorf("index event: %w", err)
	}
	return nil
}

// IndexEvents adds a batch of measurements in one transaction.
func (s *Store) IndexEvents(ctx context.Context, events []tracker.Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (pose, angle, value, recorded_at, recorded_date, session_id)
         VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.ExecContext(ctx,
			event.Pose,
			event.Angle,
			event.Value,
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			event.Date(),
			event.SessionID,
		); err != nil {
			return fmt.Errorf("index event batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event batch: %w", err)
	}
	return nil
}

// IndexSession upserts one session summary row.
func (s *Store) IndexSession(ctx context.Context, info perfstore.SessionInfo) error {
	if err := s.execWithRetry(
		ctx,
		`INSERT OR REPLACE INTO sessions (
            session_id, started_at, duration_seconds, total_frames,
            measurements, personal_bests, daily_bests, improvements,
            average_form, poses
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.SessionID,
		info.Start.UTC().Format(time.RFC3339Nano),
		info.DurationSecs,
		info.TotalFrames,
		info.Summary.Measurements,
		info.Summary.PersonalBests,
		info.Summary.DailyBests,
		info.Summary.Improvements,
		info.Summary.AverageForm,
		strings.Join(info.Summary.PosesPracticed, ","),
	); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

// Clear empties the index while keeping the schema, for a rebuild in place.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// HistoryQuery filters the event index. Zero values mean no filter.
type HistoryQuery struct {
	Pose  string
	Angle string
	Since time.Time
	Limit int
}

// History returns indexed measurements, newest first.
func (s *Store) History(ctx context.Context, query HistoryQuery) ([]tracker.Event, error) {
	ctx = ensureContext(ctx)

	var (
		where []string
		args  []any
	)
	if query.Pose != "" {
		where = append(where, "pose = ?")
		args = append(args, query.Pose)
	}
	if query.Angle != "" {
		where = append(where, "angle = ?")
		args = append(args, query.Angle)
	}
	if !query.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, query.Since.UTC().Format(time.RFC3339Nano))
	}

	sqlText := "SELECT pose, angle, value, recorded_at, session_id FROM events"
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += " ORDER BY recorded_at DESC, id DESC"
	if query.Limit > 0 {
		sqlText += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var events []tracker.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (tracker.Event, error) {
	var (
		event      tracker.Event
		recordedAt string
	)
	if err := rows.Scan(&event.Pose, &event.Angle, &event.Value, &recordedAt, &event.SessionID); err != nil {
		return tracker.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return tracker.Event{}, fmt.Errorf("parse event timestamp %q: %w", recordedAt, err)
	}
	event.Timestamp = ts
	return event, nil
}

// SessionRow is one indexed session summary.
type SessionRow struct {
	SessionID    string
	Start        time.Time
	DurationSecs float64
	TotalFrames  int
	Measurements int
	PersonalBest int
	DailyBest    int
	Improvements int
	AverageForm  float64
	Poses        []string
}

// Sessions returns indexed sessions, newest first. A limit of 0 returns all.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionRow, error) {
	ctx = ensureContext(ctx)

	sqlText := `SELECT session_id, started_at, duration_seconds, total_frames,
        measurements, personal_bests, daily_bests, improvements, average_form, poses
        FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		sqlText += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var (
			row       SessionRow
			startedAt string
			poses     string
		)
		if err := rows.Scan(&row.SessionID, &startedAt, &row.DurationSecs, &row.TotalFrames,
			&row.Measurements, &row.PersonalBest, &row.DailyBest, &row.Improvements,
			&row.AverageForm, &poses); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		start, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse session start %q: %w", startedAt, err)
		}
		row.Start = start
		if poses != "" {
			row.Poses = strings.Split(poses, ",")
		}
		sessions = append(sessions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Counts reports the index size for status and rebuild summaries.
type Counts struct {
	Events   int
	Sessions int
}

// Count returns the number of indexed events and sessions.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	ctx = ensureContext(ctx)
	var counts Counts
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM events").Scan(&counts.Events); err != nil {
		return Counts{}, fmt.Errorf("count events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM sessions").Scan(&counts.Sessions); err != nil {
		return Counts{}, fmt.Errorf("count sessions: %w", err)
	}
	return counts, nil
}

// Package sqlite persists camera-direction sessions: per-frame commands and
// diagnostics, confirmed tracks, and track lifecycle events. Recording is an
// optional sink off the frame path; the engine runs fine without it.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/courtcam/internal/vision/frame"
	"github.com/banshee-data/courtcam/internal/vision/track"
)

// Store wraps the session database.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the session database at path and ensures
// the base schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at_nanos BIGINT NOT NULL,
			tuning TEXT
		);
		CREATE TABLE IF NOT EXISTS tracks (
			track_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			label TEXT NOT NULL,
			state TEXT NOT NULL,
			reliability DOUBLE NOT NULL,
			first_seen_nanos BIGINT NOT NULL,
			last_seen_nanos BIGINT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS commands (
			command_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			ts_unix_nanos BIGINT NOT NULL,
			pan_x DOUBLE NOT NULL,
			pan_y DOUBLE NOT NULL,
			zoom DOUBLE NOT NULL,
			state TEXT NOT NULL,
			track_count INTEGER NOT NULL,
			player_count INTEGER NOT NULL,
			referee_count INTEGER NOT NULL,
			timeout_hold INTEGER NOT NULL,
			recovery_mode INTEGER NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS track_events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			ts_unix_nanos BIGINT NOT NULL,
			event TEXT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_commands_session_ts
			ON commands(session_id, ts_unix_nanos);
		CREATE INDEX IF NOT EXISTS idx_track_events_session
			ON track_events(session_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}

	return &Store{db}, nil
}

// CreateSession registers a new recording session. tuning may carry the
// serialized tuning overrides in effect, for later reproduction.
func (s *Store) CreateSession(sessionID string, startedAt time.Time, tuning string) error {
	_, err := s.Exec(
		`INSERT INTO sessions (session_id, started_at_nanos, tuning) VALUES (?, ?, ?)`,
		sessionID, startedAt.UnixNano(), tuning,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpsertTrack writes a track's latest state, updating an existing row in
// place so each track keeps a single row per session.
func (s *Store) UpsertTrack(sessionID string, trk *track.Track) error {
	_, err := s.Exec(`
		INSERT INTO tracks (
			track_id, session_id, label, state, reliability,
			first_seen_nanos, last_seen_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			label = excluded.label,
			state = excluded.state,
			reliability = excluded.reliability,
			last_seen_nanos = excluded.last_seen_nanos`,
		trk.ID, sessionID, string(trk.Label), string(trk.State), trk.Reliability,
		trk.FirstSeen.UnixNano(), trk.LastSeen.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert track %s: %w", trk.ID, err)
	}
	return nil
}

// CommandRow is one persisted per-frame command with its diagnostics.
type CommandRow struct {
	TS           time.Time
	Pan          frame.Point
	Zoom         float64
	State        string
	TrackCount   int
	PlayerCount  int
	RefereeCount int
	TimeoutHold  bool
	RecoveryMode bool
}

// InsertCommand persists one per-frame command.
func (s *Store) InsertCommand(sessionID string, row CommandRow) error {
	_, err := s.Exec(`
		INSERT INTO commands (
			session_id, ts_unix_nanos, pan_x, pan_y, zoom, state,
			track_count, player_count, referee_count, timeout_hold, recovery_mode
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, row.TS.UnixNano(), row.Pan.X, row.Pan.Y, row.Zoom, row.State,
		row.TrackCount, row.PlayerCount, row.RefereeCount,
		boolToInt(row.TimeoutHold), boolToInt(row.RecoveryMode),
	)
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return nil
}

// InsertTrackEvent records a lifecycle event (currently only "deleted").
func (s *Store) InsertTrackEvent(sessionID, trackID string, ts time.Time, event string) error {
	_, err := s.Exec(
		`INSERT INTO track_events (session_id, track_id, ts_unix_nanos, event) VALUES (?, ?, ?, ?)`,
		sessionID, trackID, ts.UnixNano(), event,
	)
	if err != nil {
		return fmt.Errorf("insert track event: %w", err)
	}
	return nil
}

// Commands returns a session's commands in timestamp order.
func (s *Store) Commands(sessionID string) ([]CommandRow, error) {
	rows, err := s.Query(`
		SELECT ts_unix_nanos, pan_x, pan_y, zoom, state,
			track_count, player_count, referee_count, timeout_hold, recovery_mode
		FROM commands WHERE session_id = ? ORDER BY ts_unix_nanos`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRow
	for rows.Next() {
		var r CommandRow
		var nanos int64
		var hold, recovery int
		if err := rows.Scan(&nanos, &r.Pan.X, &r.Pan.Y, &r.Zoom, &r.State,
			&r.TrackCount, &r.PlayerCount, &r.RefereeCount, &hold, &recovery); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		r.TS = time.Unix(0, nanos)
		r.TimeoutHold = hold != 0
		r.RecoveryMode = recovery != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrackEventRow is one persisted track lifecycle event.
type TrackEventRow struct {
	TrackID string
	TS      time.Time
	Event   string
}

// TrackEvents returns a session's track events in timestamp order.
func (s *Store) TrackEvents(sessionID string) ([]TrackEventRow, error) {
	rows, err := s.Query(
		`SELECT track_id, ts_unix_nanos, event FROM track_events
		 WHERE session_id = ? ORDER BY ts_unix_nanos`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query track events: %w", err)
	}
	defer rows.Close()

	var out []TrackEventRow
	for rows.Next() {
		var r TrackEventRow
		var nanos int64
		if err := rows.Scan(&r.TrackID, &nanos, &r.Event); err != nil {
			return nil, fmt.Errorf("scan track event: %w", err)
		}
		r.TS = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrackCount returns how many distinct tracks a session recorded.
func (s *Store) TrackCount(sessionID string) (int, error) {
	var n int
	err := s.QueryRow(
		`SELECT COUNT(*) FROM tracks WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

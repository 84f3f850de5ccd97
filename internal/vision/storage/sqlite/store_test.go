package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/courtcam/internal/monitoring"
	"github.com/banshee-data/courtcam/internal/vision/frame"
	"github.com/banshee-data/courtcam/internal/vision/motion"
	"github.com/banshee-data/courtcam/internal/vision/pipeline"
	"github.com/banshee-data/courtcam/internal/vision/track"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"sessions", "tracks", "commands", "track_events"} {
		var name string
		err := s.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	s := openTestStore(t)

	started := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateSession("ses_test", started, `{"max_zoom": 2.5}`))

	rowIn := CommandRow{
		TS:           started.Add(40 * time.Millisecond),
		Pan:          frame.Point{X: 0.52, Y: 0.48},
		Zoom:         1.8,
		State:        "tracking",
		TrackCount:   6,
		PlayerCount:  5,
		RefereeCount: 1,
		TimeoutHold:  false,
		RecoveryMode: true,
	}
	require.NoError(t, s.InsertCommand("ses_test", rowIn))
	require.NoError(t, s.InsertCommand("ses_test", CommandRow{
		TS:    started.Add(80 * time.Millisecond),
		Pan:   frame.Point{X: 0.53, Y: 0.48},
		Zoom:  1.81,
		State: "tracking",
	}))

	rows, err := s.Commands("ses_test")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	got := rows[0]
	assert.Equal(t, rowIn.TS.UnixNano(), got.TS.UnixNano())
	assert.Equal(t, rowIn.Pan, got.Pan)
	assert.Equal(t, rowIn.Zoom, got.Zoom)
	assert.Equal(t, "tracking", got.State)
	assert.Equal(t, 6, got.TrackCount)
	assert.Equal(t, 5, got.PlayerCount)
	assert.Equal(t, 1, got.RefereeCount)
	assert.False(t, got.TimeoutHold)
	assert.True(t, got.RecoveryMode)
	assert.True(t, rows[1].TS.After(rows[0].TS))
}

func TestUpsertTrackKeepsSingleRow(t *testing.T) {
	s := openTestStore(t)
	started := time.Now()
	require.NoError(t, s.CreateSession("ses_test", started, ""))

	trk := &track.Track{
		ID:          "trk_abc",
		Label:       frame.LabelPlayer,
		State:       track.StateConfirmed,
		Reliability: 0.4,
		FirstSeen:   started,
		LastSeen:    started,
	}
	require.NoError(t, s.UpsertTrack("ses_test", trk))

	trk.Reliability = 0.9
	trk.State = track.StateLost
	trk.LastSeen = started.Add(2 * time.Second)
	require.NoError(t, s.UpsertTrack("ses_test", trk))

	n, err := s.TrackCount("ses_test")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var state string
	var reliability float64
	var lastSeen int64
	require.NoError(t, s.QueryRow(
		`SELECT state, reliability, last_seen_nanos FROM tracks WHERE track_id = ?`, "trk_abc",
	).Scan(&state, &reliability, &lastSeen))
	assert.Equal(t, "lost", state)
	assert.Equal(t, 0.9, reliability)
	assert.Equal(t, trk.LastSeen.UnixNano(), lastSeen)
}

func TestTrackEvents(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	require.NoError(t, s.CreateSession("ses_test", now, ""))

	require.NoError(t, s.InsertTrackEvent("ses_test", "trk_gone", now, "deleted"))

	events, err := s.TrackEvents("ses_test")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "trk_gone", events[0].TrackID)
	assert.Equal(t, "deleted", events[0].Event)
}

func TestMigrateUpAndDown(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "migrated.db"))
	require.NoError(t, err)
	defer s.Close()

	migrationsDir := filepath.Join("..", "..", "..", "..", "migrations")

	require.NoError(t, s.MigrateUp(migrationsDir))

	version, dirty, err := s.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp(migrationsDir))

	require.NoError(t, s.MigrateDown(migrationsDir))
}

func TestRecorderPersistsPipelineOutput(t *testing.T) {
	defer monitoring.Mute()()
	s := openTestStore(t)

	started := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	rec, err := NewRecorder(s, started, "")
	require.NoError(t, err)
	require.Contains(t, rec.SessionID(), "ses_")

	trk := &track.Track{
		ID:          "trk_rec",
		Label:       frame.LabelPlayer,
		State:       track.StateConfirmed,
		Reliability: 0.5,
		FirstSeen:   started,
		LastSeen:    started,
	}
	rec.RecordFrame(pipeline.Output{
		Timestamp: started.Add(40 * time.Millisecond),
		Pan:       frame.Point{X: 0.5, Y: 0.5},
		Zoom:      1.0,
		State:     motion.StateTracking,
		Diagnostics: pipeline.Diagnostics{
			TrackCount:  1,
			PlayerCount: 1,
		},
	}, []*track.Track{trk})

	trk.State = track.StateDeleted
	rec.RecordTrackDeleted(started.Add(5*time.Second), trk)

	rows, err := s.Commands(rec.SessionID())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].TrackCount)

	n, err := s.TrackCount(rec.SessionID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events, err := s.TrackEvents(rec.SessionID())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "trk_rec", events[0].TrackID)
}

package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/courtcam/internal/monitoring"
	"github.com/banshee-data/courtcam/internal/vision/pipeline"
	"github.com/banshee-data/courtcam/internal/vision/track"
)

// Recorder adapts a Store to the pipeline's sink interface. Persistence
// failures are logged and swallowed: recording must never stall or fail the
// frame path.
type Recorder struct {
	store     *Store
	sessionID string
}

var _ pipeline.Sink = (*Recorder)(nil)

// NewRecorder opens a recording session in the store. tuning may carry the
// serialized tuning overrides in effect.
func NewRecorder(store *Store, startedAt time.Time, tuning string) (*Recorder, error) {
	sessionID := fmt.Sprintf("ses_%s", uuid.NewString())
	if err := store.CreateSession(sessionID, startedAt, tuning); err != nil {
		return nil, err
	}
	return &Recorder{store: store, sessionID: sessionID}, nil
}

// SessionID returns the recorder's session identifier.
func (r *Recorder) SessionID() string { return r.sessionID }

// RecordFrame persists the frame's command and the latest state of every
// confirmed track.
func (r *Recorder) RecordFrame(out pipeline.Output, tracks []*track.Track) {
	err := r.store.InsertCommand(r.sessionID, CommandRow{
		TS:           out.Timestamp,
		Pan:          out.Pan,
		Zoom:         out.Zoom,
		State:        string(out.State),
		TrackCount:   out.Diagnostics.TrackCount,
		PlayerCount:  out.Diagnostics.PlayerCount,
		RefereeCount: out.Diagnostics.RefereeCount,
		TimeoutHold:  out.Diagnostics.IsTimeoutHold,
		RecoveryMode: out.Diagnostics.IsInRecoveryMode,
	})
	if err != nil {
		monitoring.Logf("recorder: %v", err)
	}
	for _, trk := range tracks {
		if err := r.store.UpsertTrack(r.sessionID, trk); err != nil {
			monitoring.Logf("recorder: %v", err)
		}
	}
}

// RecordTrackDeleted persists a deleted-track event and the track's final
// state.
func (r *Recorder) RecordTrackDeleted(now time.Time, trk *track.Track) {
	if err := r.store.UpsertTrack(r.sessionID, trk); err != nil {
		monitoring.Logf("recorder: %v", err)
	}
	if err := r.store.InsertTrackEvent(r.sessionID, trk.ID, now, "deleted"); err != nil {
		monitoring.Logf("recorder: %v", err)
	}
}

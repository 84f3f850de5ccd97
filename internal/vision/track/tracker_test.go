package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/courtcam/internal/vision/frame"
)

const testDt = 0.04 // 25 fps

func detAt(cx, cy float64, sig []float64) frame.Detection {
	return frame.Detection{
		Box: frame.Rect{
			MinX: cx - 0.02, MinY: cy - 0.05,
			MaxX: cx + 0.02, MaxY: cy + 0.05,
		},
		Confidence: 0.9,
		Signature:  sig,
	}
}

// fastConfig shortens the lifecycle windows so tests do not need to replay
// hundreds of frames.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.HitsToConfirm = 2
	cfg.MaxMissesTentative = 3
	cfg.MissesToLost = 3
	cfg.MissesToDelete = 10
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max tracks", func(c *Config) { c.MaxTracks = 0 }},
		{"zero hits to confirm", func(c *Config) { c.HitsToConfirm = 0 }},
		{"delete window inside lost window", func(c *Config) { c.MissesToDelete = c.MissesToLost }},
		{"negative association gate", func(c *Config) { c.AssociationGate = -1 }},
		{"appearance weight above one", func(c *Config) { c.AppearanceCostWeight = 1.5 }},
		{"zero re-id similarity", func(c *Config) { c.ReIDSimilarity = 0 }},
		{"zero signature alpha", func(c *Config) { c.SignatureAlpha = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestTrackerConfirmsAfterConsecutiveHits(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	sig := []float64{1, 0, 0.5, 0}
	now := time.Now()

	// Two hits: still warming up, nothing confirmed.
	for i := 0; i < 2; i++ {
		now = now.Add(40 * time.Millisecond)
		confirmed := tr.Update(
			[]frame.Detection{detAt(0.5, 0.5, sig)},
			[]frame.PersonLabel{frame.LabelPlayer},
			testDt, now,
		)
		assert.Empty(t, confirmed, "hit %d should not confirm yet", i+1)
	}

	// Third hit confirms.
	now = now.Add(40 * time.Millisecond)
	confirmed := tr.Update(
		[]frame.Detection{detAt(0.5, 0.5, sig)},
		[]frame.PersonLabel{frame.LabelPlayer},
		testDt, now,
	)
	require.Len(t, confirmed, 1)
	assert.Equal(t, StateConfirmed, confirmed[0].State)
	assert.Equal(t, frame.LabelPlayer, confirmed[0].Label)
	assert.Contains(t, confirmed[0].ID, "trk_")
}

func TestTrackIdentityPersistsWhileMoving(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	sig := []float64{0.2, 0.8, 0.4, 0.1}
	now := time.Now()

	var id string
	for i := 0; i < 20; i++ {
		// Steady rightward motion, well inside the association gate.
		cx := 0.3 + float64(i)*0.005
		now = now.Add(40 * time.Millisecond)
		confirmed := tr.Update(
			[]frame.Detection{detAt(cx, 0.5, sig)},
			[]frame.PersonLabel{frame.LabelPlayer},
			testDt, now,
		)
		if len(confirmed) == 0 {
			continue
		}
		require.Len(t, confirmed, 1, "a single moving target must never split into multiple tracks")
		if id == "" {
			id = confirmed[0].ID
		}
		assert.Equal(t, id, confirmed[0].ID)
	}
	require.NotEmpty(t, id)

	tentative, confirmedCount, lost := tr.CountByState()
	assert.Equal(t, 0, tentative)
	assert.Equal(t, 1, confirmedCount)
	assert.Equal(t, 0, lost)
}

func TestReIdentificationRestoresTrackID(t *testing.T) {
	tr, err := NewTracker(fastConfig())
	require.NoError(t, err)

	sig := []float64{0.9, 0.1, 0.7, 0.2}
	now := time.Now()
	step := func(dets []frame.Detection, labels []frame.PersonLabel) []*Track {
		now = now.Add(40 * time.Millisecond)
		return tr.Update(dets, labels, testDt, now)
	}

	// Confirm the track.
	var id string
	for i := 0; i < 2; i++ {
		confirmed := step(
			[]frame.Detection{detAt(0.5, 0.5, sig)},
			[]frame.PersonLabel{frame.LabelPlayer},
		)
		if len(confirmed) == 1 {
			id = confirmed[0].ID
		}
	}
	require.NotEmpty(t, id)

	// Full occlusion until the track goes Lost.
	for i := 0; i < 3; i++ {
		step(nil, nil)
	}
	_, confirmedCount, lost := tr.CountByState()
	require.Equal(t, 0, confirmedCount)
	require.Equal(t, 1, lost)
	assert.True(t, tr.InRecoveryMode())

	// The player reappears near the predicted position with a matching
	// appearance: same identity, straight back to Confirmed.
	confirmed := step(
		[]frame.Detection{detAt(0.51, 0.5, sig)},
		[]frame.PersonLabel{frame.LabelPlayer},
	)
	require.Len(t, confirmed, 1)
	assert.Equal(t, id, confirmed[0].ID)
	assert.Equal(t, StateConfirmed, confirmed[0].State)
	assert.False(t, tr.InRecoveryMode())
}

func TestBystanderDoesNotStealLostIdentity(t *testing.T) {
	tr, err := NewTracker(fastConfig())
	require.NoError(t, err)

	playerSig := []float64{1, 0, 0, 0}
	bystanderSig := []float64{0, 1, 0, 0} // Orthogonal: similarity 0
	now := time.Now()
	step := func(dets []frame.Detection, labels []frame.PersonLabel) []*Track {
		now = now.Add(40 * time.Millisecond)
		return tr.Update(dets, labels, testDt, now)
	}

	var id string
	for i := 0; i < 2; i++ {
		confirmed := step(
			[]frame.Detection{detAt(0.5, 0.5, playerSig)},
			[]frame.PersonLabel{frame.LabelPlayer},
		)
		if len(confirmed) == 1 {
			id = confirmed[0].ID
		}
	}
	require.NotEmpty(t, id)

	for i := 0; i < 3; i++ {
		step(nil, nil)
	}

	// A visually different person walks through the player's last position.
	step(
		[]frame.Detection{detAt(0.5, 0.5, bystanderSig)},
		[]frame.PersonLabel{frame.LabelUnknown},
	)

	tentative, confirmedCount, lost := tr.CountByState()
	assert.Equal(t, 1, tentative, "the bystander gets a fresh tentative track")
	assert.Equal(t, 0, confirmedCount)
	assert.Equal(t, 1, lost, "the player's track must stay Lost for a real re-identification")
}

func TestValidZoneGatesSpawning(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)
	tr.SetValidZone(frame.Rect{MinX: 0.2, MinY: 0.3, MaxX: 0.8, MaxY: 0.9})

	sig := []float64{1, 0, 1, 0}
	now := time.Now()

	// Scoreboard-height detections, outside the zone: never any track.
	for i := 0; i < 10; i++ {
		now = now.Add(40 * time.Millisecond)
		tr.Update(
			[]frame.Detection{detAt(0.5, 0.08, sig)},
			[]frame.PersonLabel{frame.LabelUnknown},
			testDt, now,
		)
	}
	tentative, confirmed, lost := tr.CountByState()
	assert.Zero(t, tentative+confirmed+lost, "out-of-zone detections must not seed tracks")

	// The same detection inside the zone spawns and confirms normally.
	var id string
	for i := 0; i < 5; i++ {
		now = now.Add(40 * time.Millisecond)
		out := tr.Update(
			[]frame.Detection{detAt(0.5, 0.5, sig)},
			[]frame.PersonLabel{frame.LabelPlayer},
			testDt, now,
		)
		if len(out) == 1 {
			id = out[0].ID
		}
	}
	require.NotEmpty(t, id)

	// A confirmed track that wanders out of the zone keeps its identity:
	// the zone gates spawning, not association.
	var last []*Track
	for i := 1; i <= 15; i++ {
		now = now.Add(40 * time.Millisecond)
		last = tr.Update(
			[]frame.Detection{detAt(0.5, 0.5-float64(i)*0.02, sig)},
			[]frame.PersonLabel{frame.LabelPlayer},
			testDt, now,
		)
	}
	require.Len(t, last, 1)
	assert.Equal(t, id, last[0].ID)
	assert.Less(t, last[0].Position().Y, 0.3, "the track must have left the zone")
}

func TestOcclusionInflationWidensReIDGate(t *testing.T) {
	sig := []float64{0.6, 0.2, 0.9, 0.1}

	// Confirm a stationary track, occlude it past the Lost threshold, then
	// have a matching detection reappear well beyond the static re-id
	// distance gate (0.35 away vs 0.2).
	runScenario := func(t *testing.T, inflation float64) (*Tracker, string, []*Track) {
		cfg := fastConfig()
		cfg.OcclusionInflation = inflation
		tr, err := NewTracker(cfg)
		require.NoError(t, err)

		now := time.Now()
		step := func(dets []frame.Detection) []*Track {
			now = now.Add(40 * time.Millisecond)
			labels := make([]frame.PersonLabel, len(dets))
			for i := range labels {
				labels[i] = frame.LabelPlayer
			}
			return tr.Update(dets, labels, testDt, now)
		}

		var id string
		for i := 0; i < 3; i++ {
			if out := step([]frame.Detection{detAt(0.5, 0.5, sig)}); len(out) == 1 {
				id = out[0].ID
			}
		}
		require.NotEmpty(t, id)

		for i := 0; i < 6; i++ {
			step(nil)
		}
		_, _, lost := tr.CountByState()
		require.Equal(t, 1, lost)

		return tr, id, step([]frame.Detection{detAt(0.85, 0.5, sig)})
	}

	t.Run("inflated covariance reacquires the drifted player", func(t *testing.T) {
		_, id, confirmed := runScenario(t, 0.02)
		require.Len(t, confirmed, 1)
		assert.Equal(t, id, confirmed[0].ID)
	})

	t.Run("without inflation the drifted detection starts fresh", func(t *testing.T) {
		tr, _, confirmed := runScenario(t, 0)
		assert.Empty(t, confirmed)
		tentative, _, lost := tr.CountByState()
		assert.Equal(t, 1, tentative, "a new tentative track, not a revival")
		assert.Equal(t, 1, lost)
	})
}

func TestTentativeTrackDroppedAfterMisses(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	var deleted []string
	tr.OnTrackDeleted(func(trk *Track) { deleted = append(deleted, trk.ID) })

	now := time.Now()
	tr.Update(
		[]frame.Detection{detAt(0.4, 0.4, []float64{1, 1})},
		[]frame.PersonLabel{frame.LabelPlayer},
		testDt, now,
	)

	for i := 0; i < 3; i++ {
		now = now.Add(40 * time.Millisecond)
		tr.Update(nil, nil, testDt, now)
	}

	tentative, confirmed, lost := tr.CountByState()
	assert.Zero(t, tentative+confirmed+lost)
	require.Len(t, deleted, 1)
	assert.Contains(t, deleted[0], "trk_")
}

func TestMaxTracksCapsSpawning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTracks = 2
	tr, err := NewTracker(cfg)
	require.NoError(t, err)

	dets := []frame.Detection{
		detAt(0.1, 0.5, nil),
		detAt(0.4, 0.5, nil),
		detAt(0.7, 0.5, nil),
		detAt(0.9, 0.5, nil),
	}
	labels := make([]frame.PersonLabel, len(dets))
	for i := range labels {
		labels[i] = frame.LabelPlayer
	}

	tr.Update(dets, labels, testDt, time.Now())

	tentative, confirmed, lost := tr.CountByState()
	assert.Equal(t, 2, tentative+confirmed+lost)
}

func TestGroupBoundingBoxAndReliability(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	_, ok := tr.GroupBoundingBox()
	assert.False(t, ok, "no envelope without confirmed tracks")

	now := time.Now()
	dets := []frame.Detection{
		detAt(0.15, 0.5, []float64{1, 0}),
		detAt(0.75, 0.5, []float64{0, 1}),
	}
	labels := []frame.PersonLabel{frame.LabelPlayer, frame.LabelPlayer}
	for i := 0; i < 3; i++ {
		now = now.Add(40 * time.Millisecond)
		tr.Update(dets, labels, testDt, now)
	}

	env, ok := tr.GroupBoundingBox()
	require.True(t, ok)
	assert.InDelta(t, 0.13, env.MinX, 1e-9)
	assert.InDelta(t, 0.77, env.MaxX, 1e-9)
	assert.InDelta(t, 0.45, env.MinY, 1e-9)
	assert.InDelta(t, 0.55, env.MaxY, 1e-9)

	// Three hits apiece at the configured gain.
	assert.InDelta(t, 3*reliabilityGain, tr.AverageReliability(), 1e-9)
}

func TestResetDiscardsAllTracks(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 5; i++ {
		now = now.Add(40 * time.Millisecond)
		tr.Update(
			[]frame.Detection{detAt(0.5, 0.5, []float64{1})},
			[]frame.PersonLabel{frame.LabelPlayer},
			testDt, now,
		)
	}
	_, confirmed, _ := tr.CountByState()
	require.Equal(t, 1, confirmed)

	tr.Reset()

	tentative, confirmed, lost := tr.CountByState()
	assert.Zero(t, tentative+confirmed+lost)
	assert.Empty(t, tr.Confirmed())
	assert.Equal(t, 0.0, tr.AverageReliability())
	assert.False(t, tr.InRecoveryMode())
}

func TestTwoCrossingPlayersKeepIdentities(t *testing.T) {
	tr, err := NewTracker(DefaultConfig())
	require.NoError(t, err)

	sigA := []float64{1, 0, 0.2, 0}
	sigB := []float64{0, 1, 0, 0.2}
	now := time.Now()

	ids := map[string]string{} // signature key → track id
	for i := 0; i < 40; i++ {
		// A runs left to right, B right to left; they cross mid-frame.
		ax := 0.2 + float64(i)*0.01
		bx := 0.8 - float64(i)*0.01
		now = now.Add(40 * time.Millisecond)
		confirmed := tr.Update(
			[]frame.Detection{detAt(ax, 0.5, sigA), detAt(bx, 0.5, sigB)},
			[]frame.PersonLabel{frame.LabelPlayer, frame.LabelPlayer},
			testDt, now,
		)
		for _, trk := range confirmed {
			key := "A"
			if cosineSimilarity(trk.Signature, sigB) > cosineSimilarity(trk.Signature, sigA) {
				key = "B"
			}
			if prev, seen := ids[key]; seen {
				assert.Equal(t, prev, trk.ID, "identity %s swapped at frame %d", key, i)
			} else {
				ids[key] = trk.ID
			}
		}
	}
	assert.Len(t, ids, 2)
	assert.NotEqual(t, ids["A"], ids["B"])
}

// Package track implements SORT-style multi-object tracking over person
// detections: constant-velocity Kalman prediction, optimal bipartite
// association with a combined spatial/appearance cost, an explicit lifecycle
// state machine, and appearance-based re-identification so a lost player can
// be reacquired without the id churn that bystanders would otherwise cause.
package track

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// Reliability/occlusion score dynamics. Scores are clamped to [0,1]; the
// exact rates shape how quickly downstream weighting reacts, not whether a
// track survives (lifecycle counters own that).
const (
	reliabilityGain  = 0.08 // Added per successful association
	reliabilityDecay = 0.94 // Multiplied per missed frame
	occlusionDecay   = 0.5  // Multiplied per successful association
)

// revivalGate is the squared-Mahalanobis ceiling for re-identification, the
// chi-square 0.95 quantile with two degrees of freedom. Covariance inflation
// grows a lost track's innovation covariance while it coasts, so this gate
// reaches further the longer the occlusion lasts.
const revivalGate = 5.991

// Config holds tracker tuning parameters.
type Config struct {
	MaxTracks          int // Maximum concurrent tracks
	HitsToConfirm      int // Consecutive hits to confirm a tentative track
	MaxMissesTentative int // Misses before a tentative track is dropped
	MissesToLost       int // Misses before a confirmed track goes Lost
	MissesToDelete     int // Misses before a lost track is deleted

	AssociationGate      float64 // Max normalized distance for association
	AppearanceCostWeight float64 // Appearance share of the combined cost [0,1]
	ReIDSimilarity       float64 // Min appearance similarity to revive a lost track
	ReIDDistanceGate     float64 // Max predicted distance for re-identification
	SignatureAlpha       float64 // EMA factor for appearance updates

	ProcessNoisePos  float64 // Kalman process noise, position (σ²)
	ProcessNoiseVel  float64 // Kalman process noise, velocity (σ²)
	MeasurementNoise float64 // Kalman measurement noise (σ²)
	// OcclusionInflation is extra position covariance added per missed
	// frame so coasting tracks keep a widening association gate.
	OcclusionInflation float64
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MaxTracks:            40,
		HitsToConfirm:        3,
		MaxMissesTentative:   3,
		MissesToLost:         15,
		MissesToDelete:       90,
		AssociationGate:      0.25,
		AppearanceCostWeight: 0.35,
		ReIDSimilarity:       0.85,
		ReIDDistanceGate:     0.2,
		SignatureAlpha:       0.2,
		ProcessNoisePos:      0.0001,
		ProcessNoiseVel:      0.001,
		MeasurementNoise:     0.0004,
		OcclusionInflation:   0.0005,
	}
}

// ConfigFromTuning builds a tracker Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	c := DefaultConfig()
	c.MaxTracks = cfg.GetMaxTracks()
	c.HitsToConfirm = cfg.GetHitsToConfirm()
	c.MissesToLost = cfg.GetMissesToLost()
	c.MissesToDelete = cfg.GetMissesToDelete()
	c.AssociationGate = cfg.GetAssociationGate()
	c.AppearanceCostWeight = cfg.GetAppearanceCostWeight()
	c.ReIDSimilarity = cfg.GetReIDSimilarity()
	c.ReIDDistanceGate = cfg.GetReIDDistanceGate()
	c.SignatureAlpha = cfg.GetSignatureAlpha()
	c.ProcessNoisePos = cfg.GetProcessNoisePos()
	c.ProcessNoiseVel = cfg.GetProcessNoiseVel()
	c.MeasurementNoise = cfg.GetMeasurementNoise()
	return c
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.MaxTracks < 1 {
		return fmt.Errorf("max tracks must be positive, got %d", c.MaxTracks)
	}
	if c.HitsToConfirm < 1 {
		return fmt.Errorf("hits to confirm must be positive, got %d", c.HitsToConfirm)
	}
	if c.MissesToLost < 1 || c.MissesToDelete <= c.MissesToLost {
		return fmt.Errorf("miss windows invalid: lost=%d delete=%d", c.MissesToLost, c.MissesToDelete)
	}
	if c.AssociationGate <= 0 {
		return fmt.Errorf("association gate must be positive, got %f", c.AssociationGate)
	}
	if c.AppearanceCostWeight < 0 || c.AppearanceCostWeight > 1 {
		return fmt.Errorf("appearance cost weight must be in [0,1], got %f", c.AppearanceCostWeight)
	}
	if c.ReIDSimilarity <= 0 || c.ReIDSimilarity > 1 {
		return fmt.Errorf("re-id similarity must be in (0,1], got %f", c.ReIDSimilarity)
	}
	if c.SignatureAlpha <= 0 || c.SignatureAlpha > 1 {
		return fmt.Errorf("signature alpha must be in (0,1], got %f", c.SignatureAlpha)
	}
	return nil
}

func (c Config) lifecycle() LifecycleConfig {
	return LifecycleConfig{
		HitsToConfirm:      c.HitsToConfirm,
		MaxMissesTentative: c.MaxMissesTentative,
		MissesToLost:       c.MissesToLost,
		MissesToDelete:     c.MissesToDelete,
	}
}

// Track is one persistent hypothesis that detections across frames represent
// the same physical person. Tracks are owned exclusively by the Tracker; no
// other component may mutate Kalman state or scores.
type Track struct {
	ID    string
	Label frame.PersonLabel
	State State

	// Lifecycle counters (consecutive)
	Hits   int
	Misses int

	// Scores, clamped to [0,1]. Reliability decays on missed association
	// and grows on successful ones; occlusion rises while the prediction
	// persists without matching detections.
	Reliability float64
	Occlusion   float64

	// Signature is the EMA-smoothed appearance of recent matched detections.
	Signature []float64

	// Box is the most recent matched detection's bounding box.
	Box frame.Rect

	FirstSeen time.Time
	LastSeen  time.Time

	kf kalmanState
}

// Position returns the current (filtered or predicted) position.
func (t *Track) Position() frame.Point { return frame.Point{X: t.kf.X, Y: t.kf.Y} }

// Velocity returns the current velocity in normalized units per second.
func (t *Track) Velocity() (vx, vy float64) { return t.kf.VX, t.kf.VY }

// Speed returns the velocity magnitude in normalized units per second.
func (t *Track) Speed() float64 {
	return math.Sqrt(t.kf.VX*t.kf.VX + t.kf.VY*t.kf.VY)
}

// Tracker manages the track set. All mutation happens in Update, which the
// pipeline calls from a single execution context; the mutex exists so
// diagnostic readers on other goroutines see consistent state.
type Tracker struct {
	cfg Config

	mu     sync.RWMutex
	tracks map[string]*Track

	// validZone, when set, bounds where new tracks may spawn. It is fed
	// from the play-area learner, not tuned directly.
	validZone frame.Rect
	hasZone   bool

	// onDeleted, when set, is invoked for every track that ages out.
	// Recovery failure is an event, not an error (it feeds telemetry).
	onDeleted func(*Track)
}

// NewTracker creates a tracker, validating the configuration.
func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}
	return &Tracker{
		cfg:    cfg,
		tracks: make(map[string]*Track),
	}, nil
}

// SetValidZone restricts where new tracks may spawn. The play-area learner
// feeds its current region here every frame; detections whose centers fall
// outside never seed a track, so scoreboard and crowd detections cannot pull
// the camera. Existing tracks keep associating wherever they travel.
func (tr *Tracker) SetValidZone(r frame.Rect) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.validZone = r
	tr.hasZone = true
}

// OnTrackDeleted registers a callback invoked when a track is removed.
func (tr *Tracker) OnTrackDeleted(fn func(*Track)) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.onDeleted = fn
}

// Update advances all tracks by dt seconds, associates the detections, and
// returns the confirmed tracks. labels must be parallel to dets (one
// PersonLabel per detection); dt is true elapsed wall-clock time since the
// previous update, never an assumed constant.
func (tr *Tracker) Update(dets []frame.Detection, labels []frame.PersonLabel, dt float64, now time.Time) []*Track {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	// Step 1: predict. Lost tracks get extra covariance so their gate
	// keeps widening while they coast.
	for _, t := range tr.tracks {
		if t.State == StateDeleted {
			continue
		}
		t.kf.predict(dt, tr.cfg.ProcessNoisePos, tr.cfg.ProcessNoiseVel)
		if t.State == StateLost && tr.cfg.OcclusionInflation > 0 {
			t.kf.inflate(tr.cfg.OcclusionInflation)
		}
	}

	// Step 2: associate detections to tentative+confirmed tracks.
	active := tr.collect(StateTentative, StateConfirmed)
	assignment := tr.associate(dets, active)

	matchedDets := make([]bool, len(dets))
	matchedTracks := make(map[string]bool, len(active))
	for di, ti := range assignment {
		if ti < 0 {
			continue
		}
		tr.applyMatch(active[ti], dets[di], labelAt(labels, di), now)
		matchedDets[di] = true
		matchedTracks[active[ti].ID] = true
	}

	// Step 3: re-identification. Unmatched detections may revive a Lost
	// track when prediction and appearance both agree; the high appearance
	// bar is what keeps bystanders from stealing a lost player's id.
	lost := tr.collect(StateLost)
	if len(lost) > 0 {
		for di := range dets {
			if matchedDets[di] {
				continue
			}
			if best := tr.bestRevival(dets[di], lost); best != nil && !matchedTracks[best.ID] {
				diagf("track %s re-identified after %d misses", best.ID, best.Misses)
				tr.applyMatch(best, dets[di], labelAt(labels, di), now)
				matchedDets[di] = true
				matchedTracks[best.ID] = true
			}
		}
	}

	// Step 4: unmatched tracks miss a frame.
	for _, t := range tr.tracks {
		if t.State == StateDeleted || matchedTracks[t.ID] {
			continue
		}
		t.Misses++
		t.Hits = 0
		t.Reliability = clamp01(t.Reliability * reliabilityDecay)
		t.Occlusion = clamp01(t.Occlusion + 1.0/float64(tr.cfg.MissesToLost))
		t.State = NextState(t.State, false, t.Hits, t.Misses, tr.cfg.lifecycle())
	}

	// Step 5: spawn tentative tracks from leftover detections inside the
	// valid zone.
	for di, det := range dets {
		if matchedDets[di] || len(tr.tracks) >= tr.cfg.MaxTracks {
			continue
		}
		if c := det.Box.Center(); tr.hasZone && !tr.validZone.Contains(c) {
			tracef("detection at (%.3f, %.3f) outside the valid zone, not spawned", c.X, c.Y)
			continue
		}
		tr.spawn(det, labelAt(labels, di), now)
	}

	// Step 6: remove deleted tracks, reporting each once.
	for id, t := range tr.tracks {
		if t.State != StateDeleted {
			continue
		}
		if tr.onDeleted != nil {
			tr.onDeleted(t)
		}
		delete(tr.tracks, id)
	}

	return tr.confirmedLocked()
}

// associate builds the combined cost matrix and solves the assignment.
// Returns assignment[detIdx] = track index into active, or -1.
func (tr *Tracker) associate(dets []frame.Detection, active []*Track) []int {
	if len(dets) == 0 || len(active) == 0 {
		out := make([]int, len(dets))
		for i := range out {
			out[i] = -1
		}
		return out
	}

	cost := make([][]float64, len(dets))
	for di, det := range dets {
		row := make([]float64, len(active))
		center := det.Box.Center()
		for ti, t := range active {
			dist := center.DistanceTo(t.Position())
			if dist > tr.cfg.AssociationGate {
				row[ti] = forbiddenCost
				continue
			}
			// Normalize the spatial term by the gate so both terms live
			// on [0,1] before weighting.
			spatial := dist / tr.cfg.AssociationGate
			appearance := 1 - clamp01(cosineSimilarity(t.Signature, det.Signature))
			w := tr.cfg.AppearanceCostWeight
			row[ti] = (1-w)*spatial + w*appearance
		}
		cost[di] = row
	}
	return hungarianAssign(cost)
}

// bestRevival returns the lost track best matching the detection under the
// re-identification gates, or nil. Position is admitted by the static
// distance gate or by the covariance-widened Mahalanobis gate, whichever is
// more generous for this track.
func (tr *Tracker) bestRevival(det frame.Detection, lost []*Track) *Track {
	center := det.Box.Center()
	var best *Track
	bestSim := tr.cfg.ReIDSimilarity
	for _, t := range lost {
		if center.DistanceTo(t.Position()) > tr.cfg.ReIDDistanceGate &&
			t.kf.gatingDistance(center.X, center.Y, tr.cfg.MeasurementNoise) > revivalGate {
			continue
		}
		sim := cosineSimilarity(t.Signature, det.Signature)
		if sim >= bestSim {
			best = t
			bestSim = sim
		}
	}
	return best
}

// applyMatch folds a matched detection into the track.
func (tr *Tracker) applyMatch(t *Track, det frame.Detection, label frame.PersonLabel, now time.Time) {
	center := det.Box.Center()
	t.kf.update(center.X, center.Y, tr.cfg.MeasurementNoise)
	t.Signature = blendSignature(t.Signature, det.Signature, tr.cfg.SignatureAlpha)
	t.Box = det.Box
	if label != frame.LabelUnknown {
		t.Label = label
	}
	t.Hits++
	t.Misses = 0
	t.Reliability = clamp01(t.Reliability + reliabilityGain)
	t.Occlusion = clamp01(t.Occlusion * occlusionDecay)
	t.LastSeen = now
	t.State = NextState(t.State, true, t.Hits, t.Misses, tr.cfg.lifecycle())
}

// spawn creates a new tentative track from an unmatched detection.
func (tr *Tracker) spawn(det frame.Detection, label frame.PersonLabel, now time.Time) {
	center := det.Box.Center()
	t := &Track{
		ID:          fmt.Sprintf("trk_%s", uuid.NewString()),
		Label:       label,
		State:       StateTentative,
		Hits:        1,
		Reliability: reliabilityGain,
		Signature:   blendSignature(nil, det.Signature, tr.cfg.SignatureAlpha),
		Box:         det.Box,
		FirstSeen:   now,
		LastSeen:    now,
		kf:          newKalmanState(center.X, center.Y),
	}
	tr.tracks[t.ID] = t
	tracef("spawned track %s at (%.3f, %.3f)", t.ID, center.X, center.Y)
}

// Confirmed returns the confirmed tracks.
func (tr *Tracker) Confirmed() []*Track {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.confirmedLocked()
}

func (tr *Tracker) confirmedLocked() []*Track {
	out := make([]*Track, 0, len(tr.tracks))
	for _, t := range tr.tracks {
		if t.State == StateConfirmed {
			out = append(out, t)
		}
	}
	return out
}

// collect returns tracks in any of the given states.
func (tr *Tracker) collect(states ...State) []*Track {
	out := make([]*Track, 0, len(tr.tracks))
	for _, t := range tr.tracks {
		for _, s := range states {
			if t.State == s {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// GroupBoundingBox returns the envelope of all confirmed tracks' boxes and
// whether any confirmed track exists.
func (tr *Tracker) GroupBoundingBox() (frame.Rect, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	var env frame.Rect
	found := false
	for _, t := range tr.tracks {
		if t.State != StateConfirmed {
			continue
		}
		env = env.Union(t.Box)
		found = true
	}
	return env, found
}

// AverageReliability returns the mean reliability of confirmed tracks, or 0
// when none are confirmed.
func (tr *Tracker) AverageReliability() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	var sum float64
	var n int
	for _, t := range tr.tracks {
		if t.State == StateConfirmed {
			sum += t.Reliability
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// InRecoveryMode reports whether the primary track (the most reliable track
// currently known) is Lost. The host UI may surface this diagnostic.
func (tr *Tracker) InRecoveryMode() bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	var primary *Track
	for _, t := range tr.tracks {
		if t.State == StateDeleted {
			continue
		}
		if primary == nil || t.Reliability > primary.Reliability {
			primary = t
		}
	}
	return primary != nil && primary.State == StateLost
}

// CountByState returns counts of live tracks by lifecycle state.
func (tr *Tracker) CountByState() (tentative, confirmed, lost int) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	for _, t := range tr.tracks {
		switch t.State {
		case StateTentative:
			tentative++
		case StateConfirmed:
			confirmed++
		case StateLost:
			lost++
		case StateDeleted:
		}
	}
	return
}

// Reset discards every track. Learned calibration lives elsewhere; this only
// clears momentary tracking state.
func (tr *Tracker) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.tracks = make(map[string]*Track)
}

func labelAt(labels []frame.PersonLabel, i int) frame.PersonLabel {
	if i < len(labels) {
		return labels[i]
	}
	return frame.LabelUnknown
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

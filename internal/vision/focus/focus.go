// Package focus estimates the action center of the game: the point the
// camera should attend to, derived from confirmed tracks and the optional
// ball signal. The estimator is deliberately sticky — proximity weighting
// anchors it to the current focal point so action on the far side of the
// frame has to persist before the camera commits to it.
package focus

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// minProximityWeight floors the proximity term so distant tracks still
// contribute rather than vanishing entirely.
const minProximityWeight = 0.1

// Subject is one confirmed track reduced to what the estimator needs.
type Subject struct {
	Position frame.Point
	Speed    float64 // Normalized units per second
	Label    frame.PersonLabel
}

// Config holds focus estimator tuning parameters.
type Config struct {
	// ProximityFalloff scales how quickly a track's weight drops with
	// distance from the current focal point.
	ProximityFalloff float64
	// MomentumGain scales how much a track's speed raises its weight.
	MomentumGain float64
	// RefereeWeight multiplies the contribution of referee tracks.
	RefereeWeight float64
	// BallBlendWeight is the ball's share of the focal point when a
	// confident ball signal and player tracks coexist.
	BallBlendWeight float64
	// BallMinConfidence gates the ball blend.
	BallMinConfidence float64
}

// DefaultConfig returns the default focus estimator configuration.
func DefaultConfig() Config {
	return Config{
		ProximityFalloff:  1.5,
		MomentumGain:      2.0,
		RefereeWeight:     0.3,
		BallBlendWeight:   0.3,
		BallMinConfidence: 0.4,
	}
}

// ConfigFromTuning builds a focus Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		ProximityFalloff:  cfg.GetProximityFalloff(),
		MomentumGain:      cfg.GetMomentumGain(),
		RefereeWeight:     cfg.GetRefereeWeight(),
		BallBlendWeight:   cfg.GetBallBlendWeight(),
		BallMinConfidence: cfg.GetBallMinConfidence(),
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.ProximityFalloff < 0 {
		return fmt.Errorf("proximity falloff must be non-negative, got %f", c.ProximityFalloff)
	}
	if c.MomentumGain < 0 {
		return fmt.Errorf("momentum gain must be non-negative, got %f", c.MomentumGain)
	}
	if c.RefereeWeight < 0 || c.RefereeWeight > 1 {
		return fmt.Errorf("referee weight must be in [0,1], got %f", c.RefereeWeight)
	}
	if c.BallBlendWeight < 0 || c.BallBlendWeight > 1 {
		return fmt.Errorf("ball blend weight must be in [0,1], got %f", c.BallBlendWeight)
	}
	if c.BallMinConfidence < 0 || c.BallMinConfidence > 1 {
		return fmt.Errorf("ball min confidence must be in [0,1], got %f", c.BallMinConfidence)
	}
	return nil
}

// Estimator tracks the current focal point and spread across frames.
type Estimator struct {
	cfg    Config
	focal  frame.Point
	spread float64
}

// NewEstimator creates an estimator centered on the frame.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("focus config: %w", err)
	}
	return &Estimator{
		cfg:   cfg,
		focal: frame.Point{X: 0.5, Y: 0.5},
	}, nil
}

// Focal returns the current focal point.
func (e *Estimator) Focal() frame.Point { return e.focal }

// Spread returns the current weighted spread of subjects about the focal
// point (the zoom controller's clustering signal).
func (e *Estimator) Spread() float64 { return e.spread }

// Estimate updates the focal point and spread from this frame's confirmed
// subjects and the optional ball signal, and returns both. With no subjects
// the previous focal point is held unchanged; the estimator never snaps back
// to frame center on a dropout.
func (e *Estimator) Estimate(subjects []Subject, ball *frame.BallSignal) (frame.Point, float64) {
	eligible, hasPlayers := e.selectSubjects(subjects)
	if len(eligible) == 0 {
		return e.focal, e.spread
	}

	xs := make([]float64, len(eligible))
	ys := make([]float64, len(eligible))
	ws := make([]float64, len(eligible))
	for i, s := range eligible {
		xs[i] = s.Position.X
		ys[i] = s.Position.Y
		ws[i] = e.weight(s)
	}

	centroid := frame.Point{
		X: stat.Mean(xs, ws),
		Y: stat.Mean(ys, ws),
	}

	focal := centroid
	if ball != nil && ball.Confidence >= e.cfg.BallMinConfidence && hasPlayers {
		// Players are the steadier signal; the ball only pulls the focal
		// point, it never owns it.
		w := e.cfg.BallBlendWeight
		focal = frame.Point{
			X: w*ball.Position.X + (1-w)*centroid.X,
			Y: w*ball.Position.Y + (1-w)*centroid.Y,
		}
	}
	focal = focal.Clamp01()

	// Weighted RMS distance of subjects about the focal point.
	d2 := make([]float64, len(eligible))
	for i, s := range eligible {
		dx := s.Position.X - focal.X
		dy := s.Position.Y - focal.Y
		d2[i] = dx*dx + dy*dy
	}
	spread := math.Sqrt(stat.Mean(d2, ws))

	e.focal = focal
	e.spread = spread
	return focal, spread
}

// Reset returns the estimator to its initial centered state.
func (e *Estimator) Reset() {
	e.focal = frame.Point{X: 0.5, Y: 0.5}
	e.spread = 0
}

// selectSubjects applies the label policy: players and referees always
// participate; adults and unknowns only when no player is tracked.
func (e *Estimator) selectSubjects(subjects []Subject) (eligible []Subject, hasPlayers bool) {
	for _, s := range subjects {
		if s.Label == frame.LabelPlayer {
			hasPlayers = true
			break
		}
	}
	for _, s := range subjects {
		switch s.Label {
		case frame.LabelPlayer, frame.LabelReferee:
			eligible = append(eligible, s)
		case frame.LabelAdult, frame.LabelUnknown:
			if !hasPlayers {
				eligible = append(eligible, s)
			}
		}
	}
	return eligible, hasPlayers
}

// weight computes a subject's contribution: proximity to the current focal
// point times momentum, with referees scaled down.
func (e *Estimator) weight(s Subject) float64 {
	proximity := 1 - s.Position.DistanceTo(e.focal)*e.cfg.ProximityFalloff
	if proximity < minProximityWeight {
		proximity = minProximityWeight
	}
	momentum := 1 + s.Speed*e.cfg.MomentumGain
	w := proximity * momentum
	if s.Label == frame.LabelReferee {
		w *= e.cfg.RefereeWeight
	}
	return w
}

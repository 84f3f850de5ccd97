// Package motion turns the focus estimate into smoothed pan and zoom
// commands. It is the only continuously-running state machine in the
// engine: Idle until a target is accepted, Tracking while following play,
// and TimeoutHold when the players cluster at the frame edges (bench rush,
// timeout) and chasing sideline activity would be wrong.
package motion

import (
	"fmt"
	"math"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// State is the controller's operating state.
type State string

const (
	StateIdle        State = "idle"         // No target accepted yet
	StateTracking    State = "tracking"     // Following the action center
	StateTimeoutHold State = "timeout_hold" // Edge-clustered players, motion frozen
)

// nominalFrameDt is the frame interval the smoothing coefficients are
// expressed against (25 fps). Actual updates scale by dt/nominalFrameDt so
// behavior is independent of delivery cadence.
const nominalFrameDt = 0.04

// minSpreadTracks is the fewest tracked subjects whose spread is meaningful;
// below it the controller stays wide rather than trusting a spread of zero.
const minSpreadTracks = 2

// Config holds motion controller tuning parameters.
type Config struct {
	// Pan smoothing
	PanDeadZone float64 // Error magnitude below which movement is suppressed
	PanGain     float64 // Velocity accumulation per nominal frame
	PanDamping  float64 // Exponential velocity damping per nominal frame
	PanMaxSpeed float64 // Velocity clamp, normalized frame widths per second

	// Target acceptance
	TargetStreak    int     // Consecutive frames a far candidate must persist
	TargetStreakGap float64 // Distance beyond which a target counts as new

	// Zoom policy
	ZoomGain          float64 // Zoom approach per nominal frame
	MinZoom           float64
	MaxZoom           float64
	WideSpread        float64 // Spread at or above this zooms out to MinZoom
	TightSpread       float64 // Spread at or below this may zoom in to MaxZoom
	BallMinConfidence float64 // Ball confidence needed for the zoom-in band

	// Timeout hold
	EdgeBandFraction  float64 // Outer frame-width fraction counting as "edge"
	EdgeMajority      float64 // Player fraction at edges that triggers the hold
	TimeoutMinPlayers int     // Minimum tracked players for a hold
	TimeoutGainScale  float64 // Gain multiplier while holding
}

// DefaultConfig returns the default motion controller configuration.
func DefaultConfig() Config {
	return Config{
		PanDeadZone:       0.04,
		PanGain:           0.01,
		PanDamping:        0.8,
		PanMaxSpeed:       0.35,
		TargetStreak:      7,
		TargetStreakGap:   0.12,
		ZoomGain:          0.004,
		MinZoom:           1.0,
		MaxZoom:           3.0,
		WideSpread:        0.06,
		TightSpread:       0.015,
		BallMinConfidence: 0.4,
		EdgeBandFraction:  0.15,
		EdgeMajority:      0.6,
		TimeoutMinPlayers: 3,
		TimeoutGainScale:  0.3,
	}
}

// ConfigFromTuning builds a motion Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		PanDeadZone:       cfg.GetPanDeadZone(),
		PanGain:           cfg.GetPanGain(),
		PanDamping:        cfg.GetPanDamping(),
		PanMaxSpeed:       cfg.GetPanMaxSpeed(),
		TargetStreak:      cfg.GetTargetStreak(),
		TargetStreakGap:   cfg.GetTargetStreakGap(),
		ZoomGain:          cfg.GetZoomGain(),
		MinZoom:           cfg.GetMinZoom(),
		MaxZoom:           cfg.GetMaxZoom(),
		WideSpread:        cfg.GetWideSpread(),
		TightSpread:       cfg.GetTightSpread(),
		BallMinConfidence: cfg.GetBallMinConfidence(),
		EdgeBandFraction:  cfg.GetEdgeBandFraction(),
		EdgeMajority:      cfg.GetEdgeMajority(),
		TimeoutMinPlayers: cfg.GetTimeoutMinPlayers(),
		TimeoutGainScale:  cfg.GetTimeoutGainScale(),
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.PanDeadZone < 0 {
		return fmt.Errorf("pan dead zone must be non-negative, got %f", c.PanDeadZone)
	}
	if c.PanGain <= 0 || c.ZoomGain <= 0 {
		return fmt.Errorf("gains must be positive, got pan=%f zoom=%f", c.PanGain, c.ZoomGain)
	}
	if c.PanDamping <= 0 || c.PanDamping >= 1 {
		return fmt.Errorf("pan damping must be in (0,1), got %f", c.PanDamping)
	}
	if c.PanMaxSpeed <= 0 {
		return fmt.Errorf("pan max speed must be positive, got %f", c.PanMaxSpeed)
	}
	if c.TargetStreak < 1 {
		return fmt.Errorf("target streak must be positive, got %d", c.TargetStreak)
	}
	if c.MinZoom <= 0 || c.MinZoom > c.MaxZoom {
		return fmt.Errorf("zoom range invalid: min=%f max=%f", c.MinZoom, c.MaxZoom)
	}
	if c.TightSpread < 0 || c.WideSpread <= c.TightSpread {
		return fmt.Errorf("spread bands invalid: tight=%f wide=%f", c.TightSpread, c.WideSpread)
	}
	if c.EdgeBandFraction <= 0 || c.EdgeBandFraction >= 0.5 {
		return fmt.Errorf("edge band fraction must be in (0,0.5), got %f", c.EdgeBandFraction)
	}
	if c.EdgeMajority <= 0 || c.EdgeMajority > 1 {
		return fmt.Errorf("edge majority must be in (0,1], got %f", c.EdgeMajority)
	}
	if c.TimeoutMinPlayers < 1 {
		return fmt.Errorf("timeout min players must be positive, got %d", c.TimeoutMinPlayers)
	}
	if c.TimeoutGainScale <= 0 || c.TimeoutGainScale > 1 {
		return fmt.Errorf("timeout gain scale must be in (0,1], got %f", c.TimeoutGainScale)
	}
	return nil
}

// Frame is the per-frame input to the controller.
type Frame struct {
	Target         frame.Point   // Desired focal point from the estimator
	HasTarget      bool          // False when no confirmed tracks exist
	Spread         float64       // Weighted spread about the focal point
	TrackCount     int           // Confirmed tracks backing the estimate
	Players        []frame.Point // Confirmed player positions (edge test)
	BallConfidence float64
}

// Command is the controller's per-frame output to the camera-control layer.
type Command struct {
	Pan   frame.Point
	Zoom  float64
	State State
}

// Controller smooths pan and zoom across frames. It never returns an error
// from Update: missing input means "hold current state".
type Controller struct {
	cfg Config

	state State

	pan  frame.Point
	vx   float64
	vy   float64
	zoom float64

	accepted    frame.Point
	hasAccepted bool
	candidate   frame.Point
	streak      int
}

// NewController creates a controller centered at frame middle and fully
// zoomed out.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("motion config: %w", err)
	}
	c := &Controller{cfg: cfg}
	c.reset()
	return c, nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.pan = frame.Point{X: 0.5, Y: 0.5}
	c.vx, c.vy = 0, 0
	c.zoom = c.cfg.MinZoom
	c.hasAccepted = false
	c.streak = 0
}

// Reset returns the controller to its initial state.
func (c *Controller) Reset() { c.reset() }

// State returns the current operating state.
func (c *Controller) State() State { return c.state }

// Update advances the controller by dt seconds and returns the command.
func (c *Controller) Update(in Frame, dt float64) Command {
	if dt <= 0 {
		return Command{Pan: c.pan, Zoom: c.zoom, State: c.state}
	}
	steps := dt / nominalFrameDt

	c.transition(in)

	gainScale := 1.0
	if c.state == StateTimeoutHold {
		gainScale = c.cfg.TimeoutGainScale
	}

	if in.HasTarget {
		c.acceptTarget(in.Target)
	}
	if c.hasAccepted {
		c.stepPan(steps, gainScale)
	}
	c.stepZoom(in, steps, gainScale)

	return Command{Pan: c.pan, Zoom: c.zoom, State: c.state}
}

// transition evaluates the edge-clustering condition and moves between
// states. The hold fires when enough players stand in the outer band of the
// frame at once; it clears as soon as they disperse.
func (c *Controller) transition(in Frame) {
	prev := c.state
	if c.edgeClustered(in.Players) {
		c.state = StateTimeoutHold
	} else if c.hasAccepted || in.HasTarget {
		c.state = StateTracking
	} else {
		c.state = StateIdle
	}
	if c.state != prev {
		if c.state == StateTimeoutHold {
			opsf("timeout hold engaged (players=%d)", len(in.Players))
		} else {
			diagf("state %s -> %s (players=%d)", prev, c.state, len(in.Players))
		}
	}
}

func (c *Controller) edgeClustered(players []frame.Point) bool {
	if len(players) < c.cfg.TimeoutMinPlayers {
		return false
	}
	band := c.cfg.EdgeBandFraction
	edge := 0
	for _, p := range players {
		if p.X <= band || p.X >= 1-band {
			edge++
		}
	}
	return float64(edge)/float64(len(players)) > c.cfg.EdgeMajority
}

// acceptTarget applies the confidence-streak rule: a target near the
// accepted one updates it immediately, while a far candidate must persist
// for TargetStreak consecutive frames before the camera redirects. This is
// what keeps single-frame detection flicker from yanking the shot.
func (c *Controller) acceptTarget(target frame.Point) {
	if !c.hasAccepted {
		c.accepted = target
		c.hasAccepted = true
		return
	}
	if target.DistanceTo(c.accepted) <= c.cfg.TargetStreakGap {
		c.accepted = target
		c.streak = 0
		return
	}
	if c.streak > 0 && target.DistanceTo(c.candidate) <= c.cfg.TargetStreakGap {
		c.streak++
	} else {
		c.candidate = target
		c.streak = 1
	}
	if c.streak >= c.cfg.TargetStreak {
		diagf("target redirected to (%.3f, %.3f) after %d-frame streak", c.candidate.X, c.candidate.Y, c.streak)
		c.accepted = c.candidate
		c.streak = 0
	}
}

// stepPan runs one smoothing step: dead-zone, velocity accumulation,
// exponential damping, speed clamp, integration.
func (c *Controller) stepPan(steps, gainScale float64) {
	ex := c.accepted.X - c.pan.X
	ey := c.accepted.Y - c.pan.Y
	if math.Sqrt(ex*ex+ey*ey) < c.cfg.PanDeadZone {
		// Inside the dead zone the error is noise, not motion.
		ex, ey = 0, 0
	}

	gain := c.cfg.PanGain * gainScale
	c.vx += ex * gain * steps
	c.vy += ey * gain * steps

	damp := math.Pow(c.cfg.PanDamping, steps)
	c.vx *= damp
	c.vy *= damp

	// Velocity is held per nominal frame; the clamp converts the
	// per-second speed limit into the same units.
	maxV := c.cfg.PanMaxSpeed * nominalFrameDt
	speed := math.Sqrt(c.vx*c.vx + c.vy*c.vy)
	if speed > maxV {
		scale := maxV / speed
		c.vx *= scale
		c.vy *= scale
	}

	c.pan = frame.Point{
		X: c.pan.X + c.vx*steps,
		Y: c.pan.Y + c.vy*steps,
	}.Clamp01()
}

// stepZoom picks the discrete policy band and eases the zoom toward it.
// Zoom jitter reads worse than pan jitter, so the approach coefficient is
// far slower than the pan gain.
func (c *Controller) stepZoom(in Frame, steps, gainScale float64) {
	var target float64
	switch {
	case c.state == StateTimeoutHold:
		target = c.cfg.MinZoom
	case !in.HasTarget:
		target = c.zoom // Hold
	case in.TrackCount < minSpreadTracks:
		target = c.cfg.MinZoom
	case in.Spread >= c.cfg.WideSpread:
		target = c.cfg.MinZoom
	case in.Spread <= c.cfg.TightSpread && in.BallConfidence >= c.cfg.BallMinConfidence:
		target = c.cfg.MaxZoom
	default:
		target = c.cfg.MinZoom + 0.5*(c.cfg.MaxZoom-c.cfg.MinZoom)
	}

	c.zoom += (target - c.zoom) * c.cfg.ZoomGain * gainScale * steps
	if c.zoom < c.cfg.MinZoom {
		c.zoom = c.cfg.MinZoom
	}
	if c.zoom > c.cfg.MaxZoom {
		c.zoom = c.cfg.MaxZoom
	}
}

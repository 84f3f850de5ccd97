// Package pipeline wires the per-frame processing chain: classification,
// court learning, tracking, focus estimation and motion smoothing. The
// Director owns every component; all mutable state is mutated from a single
// execution context per frame.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/ball"
	"github.com/banshee-data/courtcam/internal/vision/classify"
	"github.com/banshee-data/courtcam/internal/vision/court"
	"github.com/banshee-data/courtcam/internal/vision/focus"
	"github.com/banshee-data/courtcam/internal/vision/frame"
	"github.com/banshee-data/courtcam/internal/vision/motion"
	"github.com/banshee-data/courtcam/internal/vision/track"
)

// defaultFrameDt seeds the very first frame, before a timestamp delta
// exists.
const defaultFrameDt = 0.04

// Config aggregates every component configuration.
type Config struct {
	Classifier classify.Config
	Court      court.Config
	Tracker    track.Config
	Focus      focus.Config
	Motion     motion.Config
	Ball       ball.Config
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Classifier: classify.DefaultConfig(),
		Court:      court.DefaultConfig(),
		Tracker:    track.DefaultConfig(),
		Focus:      focus.DefaultConfig(),
		Motion:     motion.DefaultConfig(),
		Ball:       ball.DefaultConfig(),
	}
}

// ConfigFromTuning builds a pipeline Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Classifier: classify.ConfigFromTuning(cfg),
		Court:      court.ConfigFromTuning(cfg),
		Tracker:    track.ConfigFromTuning(cfg),
		Focus:      focus.ConfigFromTuning(cfg),
		Motion:     motion.ConfigFromTuning(cfg),
		Ball:       ball.ConfigFromTuning(cfg),
	}
}

// Diagnostics is the per-frame telemetry surface for the host UI.
type Diagnostics struct {
	TrackCount       int
	PlayerCount      int
	RefereeCount     int
	IsTimeoutHold    bool
	IsInRecoveryMode bool
}

// Output is the per-frame result handed to the camera-control layer.
type Output struct {
	Timestamp   time.Time
	Pan         frame.Point
	Zoom        float64
	State       motion.State
	Diagnostics Diagnostics
}

// Sink receives per-frame results and track lifecycle events, typically for
// session recording. Implementations must not block the frame path.
type Sink interface {
	RecordFrame(out Output, tracks []*track.Track)
	RecordTrackDeleted(now time.Time, trk *track.Track)
}

// Director runs the full per-frame chain and owns all component state.
type Director struct {
	classifier *classify.Classifier
	learner    *court.Learner
	tracker    *track.Tracker
	estimator  *focus.Estimator
	controller *motion.Controller
	ballDet    *ball.Detector

	sink   Sink
	lastTS time.Time
}

// NewDirector constructs the pipeline, validating every component
// configuration. This is the only point where configuration errors surface;
// nothing in the per-frame path returns an error.
func NewDirector(cfg Config) (*Director, error) {
	classifier, err := classify.NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	learner, err := court.NewLearner(cfg.Court)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	tracker, err := track.NewTracker(cfg.Tracker)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	estimator, err := focus.NewEstimator(cfg.Focus)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	controller, err := motion.NewController(cfg.Motion)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	ballDet, err := ball.NewDetector(cfg.Ball)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Director{
		classifier: classifier,
		learner:    learner,
		tracker:    tracker,
		estimator:  estimator,
		controller: controller,
		ballDet:    ballDet,
	}, nil
}

// SetSink attaches a recording sink. Deleted-track events flow through it;
// recovery failure is telemetry, never an error.
func (d *Director) SetSink(s Sink) {
	d.sink = s
	d.tracker.OnTrackDeleted(func(trk *track.Track) {
		if d.sink != nil {
			d.sink.RecordTrackDeleted(d.lastTS, trk)
		}
	})
}

// CourtRegion returns the currently learned play-area bound.
func (d *Director) CourtRegion() frame.Rect { return d.learner.Region() }

// CourtCells returns a copy of the occupancy grid and its dimensions, for
// after-run reporting.
func (d *Director) CourtCells() ([]float64, int, int) {
	rows, cols := d.learner.GridSize()
	return d.learner.Cells(), rows, cols
}

// BaselineSamples returns how many height observations back the classifier's
// rolling median.
func (d *Director) BaselineSamples() int { return d.classifier.SampleCount() }

// ProcessFrame runs the chain for one sampled frame. dt is derived from the
// input timestamps; delivery cadence is never assumed uniform.
func (d *Director) ProcessFrame(in frame.Input) Output {
	dt := defaultFrameDt
	if !d.lastTS.IsZero() {
		dt = in.Timestamp.Sub(d.lastTS).Seconds()
		if dt <= 0 {
			opsf("non-monotonic frame timestamp (dt=%.4fs), substituting nominal interval", dt)
			dt = defaultFrameDt
		}
	}
	d.lastTS = in.Timestamp

	labels := d.classifier.Classify(in.Detections, in.Image)
	d.learner.Update(in.Detections, in.Timestamp)
	d.tracker.SetValidZone(d.learner.Region())
	confirmed := d.tracker.Update(in.Detections, labels, dt, in.Timestamp)

	ballSig := in.Ball
	if ballSig == nil && in.Image != nil {
		ballSig = d.ballDet.Detect(in.Image, d.learner.Region())
	}

	subjects := make([]focus.Subject, len(confirmed))
	players := make([]frame.Point, 0, len(confirmed))
	diag := Diagnostics{TrackCount: len(confirmed)}
	for i, t := range confirmed {
		subjects[i] = focus.Subject{
			Position: t.Position(),
			Speed:    t.Speed(),
			Label:    t.Label,
		}
		switch t.Label {
		case frame.LabelPlayer:
			diag.PlayerCount++
			players = append(players, t.Position())
		case frame.LabelReferee:
			diag.RefereeCount++
		case frame.LabelAdult, frame.LabelUnknown:
		}
	}

	focal, spread := d.estimator.Estimate(subjects, ballSig)

	var ballConfidence float64
	if ballSig != nil {
		ballConfidence = ballSig.Confidence
	}
	cmd := d.controller.Update(motion.Frame{
		Target:         focal,
		HasTarget:      len(confirmed) > 0,
		Spread:         spread,
		TrackCount:     len(confirmed),
		Players:        players,
		BallConfidence: ballConfidence,
	}, dt)

	diag.IsTimeoutHold = cmd.State == motion.StateTimeoutHold
	diag.IsInRecoveryMode = d.tracker.InRecoveryMode()

	out := Output{
		Timestamp:   in.Timestamp,
		Pan:         cmd.Pan,
		Zoom:        cmd.Zoom,
		State:       cmd.State,
		Diagnostics: diag,
	}
	if d.sink != nil {
		d.sink.RecordFrame(out, confirmed)
	}
	return out
}

// ResetTrackingState clears momentary tracking state (tracks, focus
// momentum, motion smoothing) while preserving the learned court region and
// the classifier's height baseline. Calling it repeatedly is equivalent to
// calling it once.
func (d *Director) ResetTrackingState() {
	d.tracker.Reset()
	d.estimator.Reset()
	d.controller.Reset()
	d.lastTS = time.Time{}
	diagf("tracking state reset (court region and height baseline preserved)")
}

// Run processes frames from in on a dedicated goroutine, buffering through a
// bounded drop-oldest queue: when the queue is full the oldest pending frame
// is discarded, because timeliness matters more than completeness. The
// returned channel closes when in closes or ctx is cancelled.
func (d *Director) Run(ctx context.Context, in <-chan frame.Input, queueLen int) <-chan Output {
	if queueLen < 1 {
		queueLen = 1
	}
	queue := make(chan frame.Input, queueLen)
	out := make(chan Output, queueLen)

	go func() {
		defer close(queue)
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-in:
				if !ok {
					return
				}
			enqueue:
				for {
					select {
					case queue <- f:
						break enqueue
					default:
						select {
						case <-queue:
							opsf("frame queue full, dropped oldest frame")
						default:
						}
					}
				}
			}
		}
	}()

	go func() {
		defer close(out)
		for f := range queue {
			o := d.ProcessFrame(f)
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

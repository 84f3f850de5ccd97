// Package classify labels person detections as player, referee, adult or
// unknown. Size classification works against a rolling median of observed
// box heights; referees are recognised by the alternating light/dark stripe
// pattern of their torso regardless of size.
package classify

import (
	"fmt"
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// Config holds classifier tuning parameters.
type Config struct {
	AdultHeightRatio     float64 // Height ratio over the rolling median that classifies Adult
	StripeMinTransitions int     // Brightness-polarity transitions that classify Referee
	HeightBufferCapacity int     // Rolling height buffer size
	HeightMinSamples     int     // Below this many samples, everything classifies Player
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		AdultHeightRatio:     1.25,
		StripeMinTransitions: 3,
		HeightBufferCapacity: 100,
		HeightMinSamples:     5,
	}
}

// ConfigFromTuning builds a classifier Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		AdultHeightRatio:     cfg.GetAdultHeightRatio(),
		StripeMinTransitions: cfg.GetStripeMinTransitions(),
		HeightBufferCapacity: cfg.GetHeightBufferCapacity(),
		HeightMinSamples:     cfg.GetHeightMinSamples(),
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.AdultHeightRatio <= 1.0 {
		return fmt.Errorf("adult height ratio must exceed 1.0, got %f", c.AdultHeightRatio)
	}
	if c.StripeMinTransitions < 1 {
		return fmt.Errorf("stripe min transitions must be at least 1, got %d", c.StripeMinTransitions)
	}
	if c.HeightBufferCapacity < c.HeightMinSamples {
		return fmt.Errorf("height buffer capacity (%d) below min samples (%d)",
			c.HeightBufferCapacity, c.HeightMinSamples)
	}
	return nil
}

// Classifier labels detections per frame. Its only cross-frame state is the
// rolling height buffer; it performs no other side effects.
type Classifier struct {
	cfg Config

	// Rolling buffer of observed box heights (normalized units). Oldest
	// entries are overwritten once the buffer is full.
	heights []float64
	next    int
	count   int
}

// NewClassifier creates a classifier, validating the configuration.
func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	return &Classifier{
		cfg:     cfg,
		heights: make([]float64, cfg.HeightBufferCapacity),
	}, nil
}

// Classify labels each detection. img provides pixel access for the stripe
// test and may be nil, in which case the stripe test is skipped.
// The rolling height buffer is updated from every detection.
func (cl *Classifier) Classify(dets []frame.Detection, img image.Image) []frame.PersonLabel {
	labels := make([]frame.PersonLabel, len(dets))

	// Median of the history before this frame's heights are folded in, so
	// a burst of adults entering frame cannot lift its own threshold.
	median, ok := cl.medianHeight()

	for i, det := range dets {
		switch {
		case !ok:
			// Startup: too little height history to separate adults from
			// players. Defaulting to Player avoids over-filtering.
			labels[i] = frame.LabelPlayer
		case img != nil && cl.stripeTransitions(det.Box, img) >= cl.cfg.StripeMinTransitions:
			labels[i] = frame.LabelReferee
		case det.Box.Height() >= cl.cfg.AdultHeightRatio*median:
			labels[i] = frame.LabelAdult
		default:
			labels[i] = frame.LabelPlayer
		}
		cl.observeHeight(det.Box.Height())
	}
	return labels
}

// SampleCount returns the number of heights currently in the rolling buffer.
func (cl *Classifier) SampleCount() int { return cl.count }

// MedianHeight returns the rolling median height and whether enough samples
// exist to trust it.
func (cl *Classifier) MedianHeight() (float64, bool) { return cl.medianHeight() }

// ResetBaseline clears the rolling height buffer. This is only called for an
// explicit full recalibration; normal tracking resets preserve the baseline.
func (cl *Classifier) ResetBaseline() {
	cl.next = 0
	cl.count = 0
}

func (cl *Classifier) observeHeight(h float64) {
	if h <= 0 {
		return
	}
	cl.heights[cl.next] = h
	cl.next = (cl.next + 1) % len(cl.heights)
	if cl.count < len(cl.heights) {
		cl.count++
	}
}

func (cl *Classifier) medianHeight() (float64, bool) {
	if cl.count < cl.cfg.HeightMinSamples {
		return 0, false
	}
	sorted := make([]float64, cl.count)
	copy(sorted, cl.heights[:cl.count])
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil), true
}

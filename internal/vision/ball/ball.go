// Package ball implements the colour/shape heuristic that produces one
// low-confidence ball position per frame. The output is a weak secondary
// signal for the focus estimator; it is never a primary camera target.
package ball

import (
	"fmt"
	"image"
	"math"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// Config holds ball detector tuning parameters.
type Config struct {
	HueMin        float64 // Lower hue bound, degrees [0,360)
	HueMax        float64 // Upper hue bound, degrees
	MinSaturation float64 // Minimum saturation for a ball-coloured pixel
	SampleStride  int     // Pixels between sampled points when scanning
}

// DefaultConfig returns defaults tuned for an orange game ball.
func DefaultConfig() Config {
	return Config{
		HueMin:        10,
		HueMax:        40,
		MinSaturation: 0.45,
		SampleStride:  8,
	}
}

// ConfigFromTuning builds a ball detector Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		HueMin:        cfg.GetBallHueMin(),
		HueMax:        cfg.GetBallHueMax(),
		MinSaturation: cfg.GetBallMinSaturation(),
		SampleStride:  cfg.GetBallSampleStride(),
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.HueMin < 0 || c.HueMax > 360 || c.HueMin >= c.HueMax {
		return fmt.Errorf("hue range [%f, %f] invalid", c.HueMin, c.HueMax)
	}
	if c.MinSaturation < 0 || c.MinSaturation > 1 {
		return fmt.Errorf("min saturation must be in [0,1], got %f", c.MinSaturation)
	}
	if c.SampleStride < 1 {
		return fmt.Errorf("sample stride must be at least 1, got %d", c.SampleStride)
	}
	return nil
}

// Shape/confidence constants. A real ball is a compact blob of modest size;
// large or scattered hue matches are court markings and jerseys.
const (
	minMatchSamples   = 3    // Fewer hue matches than this is noise
	maxAreaFraction   = 0.02 // Matched fraction of the scanned region above this is not a ball
	spreadScale       = 10.0 // Converts match spread into a confidence penalty
	confidenceCeiling = 0.8  // A colour heuristic never reports full confidence
)

// Detector scans frames for a compact blob of ball-coloured pixels.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector, validating the configuration.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ball detector config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Detect scans the region of the frame inside the given court bound and
// returns a ball signal, or nil when no plausible ball is visible.
// A nil image always yields nil.
func (d *Detector) Detect(img image.Image, court frame.Rect) *frame.BallSignal {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	x0 := bounds.Min.X + int(court.MinX*float64(w))
	x1 := bounds.Min.X + int(court.MaxX*float64(w))
	y0 := bounds.Min.Y + int(court.MinY*float64(h))
	y1 := bounds.Min.Y + int(court.MaxY*float64(h))

	var sumX, sumY float64
	var matches int
	var sampled int
	for y := y0; y < y1; y += d.cfg.SampleStride {
		for x := x0; x < x1; x += d.cfg.SampleStride {
			sampled++
			hue, sat, val := hsv(img, x, y)
			if sat < d.cfg.MinSaturation || val < 0.2 {
				continue
			}
			if hue < d.cfg.HueMin || hue > d.cfg.HueMax {
				continue
			}
			sumX += float64(x)
			sumY += float64(y)
			matches++
		}
	}
	if matches < minMatchSamples || sampled == 0 {
		return nil
	}

	// Too much matched area means jerseys or court floor, not a ball.
	if float64(matches)/float64(sampled) > maxAreaFraction {
		return nil
	}

	cx := sumX / float64(matches)
	cy := sumY / float64(matches)

	// Compactness: mean distance of matches from the centroid, normalized by
	// frame width. A tight blob scores high, scattered matches score low.
	var spread float64
	for y := y0; y < y1; y += d.cfg.SampleStride {
		for x := x0; x < x1; x += d.cfg.SampleStride {
			hue, sat, val := hsv(img, x, y)
			if sat < d.cfg.MinSaturation || val < 0.2 {
				continue
			}
			if hue < d.cfg.HueMin || hue > d.cfg.HueMax {
				continue
			}
			dx := (float64(x) - cx) / float64(w)
			dy := (float64(y) - cy) / float64(h)
			spread += math.Sqrt(dx*dx + dy*dy)
		}
	}
	spread /= float64(matches)

	confidence := confidenceCeiling - spread*spreadScale
	if confidence <= 0 {
		return nil
	}

	return &frame.BallSignal{
		Position: frame.Point{
			X: (cx - float64(bounds.Min.X)) / float64(w),
			Y: (cy - float64(bounds.Min.Y)) / float64(h),
		}.Clamp01(),
		Confidence: confidence,
	}
}

// hsv returns hue (degrees), saturation and value for the pixel.
func hsv(img image.Image, x, y int) (hue, sat, val float64) {
	r16, g16, b16, _ := img.At(x, y).RGBA()
	r := float64(r16) / 65535
	g := float64(g16) / 65535
	b := float64(b16) / 65535

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	val = maxC
	if maxC == 0 {
		return 0, 0, 0
	}
	d := maxC - minC
	sat = d / maxC
	if d == 0 {
		return 0, sat, val
	}
	switch maxC {
	case r:
		hue = 60 * math.Mod((g-b)/d, 6)
	case g:
		hue = 60 * ((b-r)/d + 2)
	default:
		hue = 60 * ((r-g)/d + 4)
	}
	if hue < 0 {
		hue += 360
	}
	return hue, sat, val
}

package frame

import (
	"image"
	"math"
	"time"
)

// PersonLabel classifies a detection into one of the closed set of person
// categories the engine reasons about. The motion and focus layers switch
// exhaustively on this type.
type PersonLabel string

const (
	LabelPlayer  PersonLabel = "player"  // Game participant, primary camera target
	LabelReferee PersonLabel = "referee" // Striped officials, reduced focus weight
	LabelAdult   PersonLabel = "adult"   // Oversized relative to player baseline (coaches, parents)
	LabelUnknown PersonLabel = "unknown" // Not yet classifiable
)

// Point is a position in normalized frame coordinates [0,1]×[0,1].
type Point struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Clamp01 returns the point with both coordinates clamped into [0,1].
func (p Point) Clamp01() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// Rect is an axis-aligned rectangle in normalized frame coordinates.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// FullFrame is the rectangle covering the entire normalized frame.
var FullFrame = Rect{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Area returns the rectangle area.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle has no interior.
func (r Rect) Empty() bool { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Contains reports whether p lies inside the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Union returns the smallest rectangle containing both r and s.
// An empty rectangle acts as the identity.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, s.MinX),
		MinY: math.Min(r.MinY, s.MinY),
		MaxX: math.Max(r.MaxX, s.MaxX),
		MaxY: math.Max(r.MaxY, s.MaxY),
	}
}

// Pad grows the rectangle by m on every side, clamped to [0,1].
func (r Rect) Pad(m float64) Rect {
	return Rect{
		MinX: clamp01(r.MinX - m),
		MinY: clamp01(r.MinY - m),
		MaxX: clamp01(r.MaxX + m),
		MaxY: clamp01(r.MaxY + m),
	}
}

// Clamp01 returns the rectangle intersected with the full frame.
func (r Rect) Clamp01() Rect {
	return Rect{
		MinX: clamp01(r.MinX),
		MinY: clamp01(r.MinY),
		MaxX: clamp01(r.MaxX),
		MaxY: clamp01(r.MaxY),
	}
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

// Detection is one observed object in one frame, as delivered by the
// external object detector. Detections are ephemeral: they are consumed by
// the tracker and never stored across frames.
type Detection struct {
	Box        Rect      // Bounding box, normalized coordinates
	Confidence float64   // Detector confidence [0,1]
	Signature  []float64 // Raw appearance signature (quantized color histogram)
}

// BallSignal is the optional low-confidence ball position for a frame.
type BallSignal struct {
	Position   Point
	Confidence float64
}

// Input bundles everything the pipeline consumes for one sampled frame.
// Image may be nil when no pixel access is available; the classifier then
// skips the stripe test and the ball detector is bypassed.
type Input struct {
	Timestamp  time.Time
	Detections []Detection
	Ball       *BallSignal // nil when the external ball detector produced nothing
	Image      image.Image // nil when pixel access is unavailable
}

// Package court learns the active play area from where people cluster over
// time. It maintains a fixed-resolution occupancy grid over normalized frame
// space and periodically derives a bounding region from the hot cells. The
// region is derived only from detections, never from line or geometry
// detection, so it adapts when play migrates across the frame.
package court

import (
	"fmt"
	"time"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// Config holds court learner tuning parameters.
type Config struct {
	GridCols          int           // Occupancy grid columns
	GridRows          int           // Occupancy grid rows
	CellThreshold     float64       // Fraction of the max cell count a cell must reach
	DecayFactor       float64       // Multiplicative decay applied at each recompute
	TopExclusion      float64       // Fraction of frame height excluded at the top (rafters)
	BottomExclusion   float64       // Fraction excluded at the bottom (operator's feet)
	Padding           float64       // Margin added around the derived region
	RecomputeInterval time.Duration // How often the region is rederived
}

// DefaultConfig returns the default court learner configuration.
func DefaultConfig() Config {
	return Config{
		GridCols:          20,
		GridRows:          20,
		CellThreshold:     0.4,
		DecayFactor:       0.95,
		TopExclusion:      0.28,
		BottomExclusion:   0.05,
		Padding:           0.03,
		RecomputeInterval: 3 * time.Second,
	}
}

// ConfigFromTuning builds a court learner Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		GridCols:          cfg.GetCourtGridCols(),
		GridRows:          cfg.GetCourtGridRows(),
		CellThreshold:     cfg.GetCourtCellThreshold(),
		DecayFactor:       cfg.GetCourtDecayFactor(),
		TopExclusion:      cfg.GetCourtTopExclusion(),
		BottomExclusion:   cfg.GetCourtBottomExclusion(),
		Padding:           cfg.GetCourtPadding(),
		RecomputeInterval: cfg.GetCourtRecomputeInterval(),
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if c.GridCols < 2 || c.GridRows < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", c.GridCols, c.GridRows)
	}
	if c.CellThreshold <= 0 || c.CellThreshold > 1 {
		return fmt.Errorf("cell threshold must be in (0,1], got %f", c.CellThreshold)
	}
	if c.DecayFactor <= 0 || c.DecayFactor > 1 {
		return fmt.Errorf("decay factor must be in (0,1], got %f", c.DecayFactor)
	}
	if c.TopExclusion+c.BottomExclusion >= 1 {
		return fmt.Errorf("vertical exclusions leave no usable band (top %f, bottom %f)",
			c.TopExclusion, c.BottomExclusion)
	}
	if c.RecomputeInterval <= 0 {
		return fmt.Errorf("recompute interval must be positive, got %v", c.RecomputeInterval)
	}
	return nil
}

// DefaultRegion is the generous startup region used before any occupancy has
// accumulated: full width, with the configured vertical exclusions applied.
func (c Config) DefaultRegion() frame.Rect {
	return frame.Rect{MinX: 0, MinY: c.TopExclusion, MaxX: 1, MaxY: 1 - c.BottomExclusion}
}

// Learner accumulates the occupancy grid and derives the play region.
// It is owned by the pipeline and mutated from one execution context only.
type Learner struct {
	cfg Config

	// cells holds occupancy counts, len = GridRows*GridCols, row-major.
	cells []float64

	region        frame.Rect
	lastRecompute time.Time
}

// NewLearner creates a learner, validating the configuration. The region
// starts at the generous default and only ever moves by learning.
func NewLearner(cfg Config) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("court learner config: %w", err)
	}
	return &Learner{
		cfg:    cfg,
		cells:  make([]float64, cfg.GridRows*cfg.GridCols),
		region: cfg.DefaultRegion(),
	}, nil
}

// Idx maps a grid row and column to the flat cell index.
func (l *Learner) Idx(row, col int) int { return row*l.cfg.GridCols + col }

// Update accumulates the detections into the occupancy grid and, at most
// once per RecomputeInterval, rederives the region and decays the grid.
func (l *Learner) Update(dets []frame.Detection, now time.Time) {
	for _, det := range dets {
		l.accumulate(det.Box)
	}

	if l.lastRecompute.IsZero() {
		l.lastRecompute = now
		return
	}
	if now.Sub(l.lastRecompute) < l.cfg.RecomputeInterval {
		return
	}
	l.lastRecompute = now
	l.recompute()
}

// Region returns the current learned play region. It is never empty and
// never exceeds the full frame.
func (l *Learner) Region() frame.Rect { return l.region }

// Cells returns a copy of the occupancy grid for diagnostics and plotting.
func (l *Learner) Cells() []float64 {
	out := make([]float64, len(l.cells))
	copy(out, l.cells)
	return out
}

// GridSize returns the grid dimensions (rows, cols).
func (l *Learner) GridSize() (rows, cols int) { return l.cfg.GridRows, l.cfg.GridCols }

// Recalibrate clears all learned occupancy and restores the default region.
// Only an explicit caller request reaches this; normal tracking resets never
// touch the learned region.
func (l *Learner) Recalibrate() {
	for i := range l.cells {
		l.cells[i] = 0
	}
	l.region = l.cfg.DefaultRegion()
	l.lastRecompute = time.Time{}
}

// accumulate increments every grid cell the box overlaps.
func (l *Learner) accumulate(box frame.Rect) {
	box = box.Clamp01()
	if box.Empty() {
		return
	}
	c0 := l.colOf(box.MinX)
	c1 := l.colOf(box.MaxX)
	r0 := l.rowOf(box.MinY)
	r1 := l.rowOf(box.MaxY)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			l.cells[l.Idx(r, c)]++
		}
	}
}

// recompute derives the region from the hot cells, then decays the grid so
// stale occupancy fades across halftime and end changes.
func (l *Learner) recompute() {
	maxCount := 0.0
	for _, v := range l.cells {
		if v > maxCount {
			maxCount = v
		}
	}

	if maxCount > 0 {
		threshold := maxCount * l.cfg.CellThreshold

		// Restrict to the usable vertical band: the top rows image rafters
		// and scoreboards, the bottom edge the operator's own feet.
		rowTop := l.rowOf(l.cfg.TopExclusion)
		rowBot := l.rowOf(1 - l.cfg.BottomExclusion)

		minCol, maxCol := -1, -1
		minRow, maxRow := -1, -1
		for r := rowTop; r <= rowBot; r++ {
			for c := 0; c < l.cfg.GridCols; c++ {
				if l.cells[l.Idx(r, c)] < threshold {
					continue
				}
				if minCol == -1 || c < minCol {
					minCol = c
				}
				if c > maxCol {
					maxCol = c
				}
				if minRow == -1 || r < minRow {
					minRow = r
				}
				if r > maxRow {
					maxRow = r
				}
			}
		}

		// No cell passed threshold inside the band: the previous region
		// stands. A region never collapses to empty.
		if minCol != -1 {
			cellW := 1.0 / float64(l.cfg.GridCols)
			cellH := 1.0 / float64(l.cfg.GridRows)
			derived := frame.Rect{
				MinX: float64(minCol) * cellW,
				MinY: float64(minRow) * cellH,
				MaxX: float64(maxCol+1) * cellW,
				MaxY: float64(maxRow+1) * cellH,
			}.Pad(l.cfg.Padding)
			if !derived.Empty() {
				l.region = derived
				diagf("region recomputed: [%.2f,%.2f]x[%.2f,%.2f] (max count %.0f)",
					derived.MinX, derived.MaxX, derived.MinY, derived.MaxY, maxCount)
			}
		}
	}

	for i := range l.cells {
		l.cells[i] *= l.cfg.DecayFactor
	}
}

func (l *Learner) colOf(x float64) int {
	c := int(x * float64(l.cfg.GridCols))
	if c < 0 {
		c = 0
	}
	if c >= l.cfg.GridCols {
		c = l.cfg.GridCols - 1
	}
	return c
}

func (l *Learner) rowOf(y float64) int {
	r := int(y * float64(l.cfg.GridRows))
	if r < 0 {
		r = 0
	}
	if r >= l.cfg.GridRows {
		r = l.cfg.GridRows - 1
	}
	return r
}

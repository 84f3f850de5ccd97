package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// The file documents every tunable; the Get* accessors below carry the same
// defaults in code so a missing file never changes behaviour.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for all tunable parameters of the
// camera-direction engine. Every field is a pointer: nil means "use the
// default", so partial JSON configs are safe and the same schema can be used
// for both startup configuration and runtime updates.
type TuningConfig struct {
	// Classifier params
	AdultHeightRatio     *float64 `json:"adult_height_ratio,omitempty"`
	StripeMinTransitions *int     `json:"stripe_min_transitions,omitempty"`
	HeightBufferCapacity *int     `json:"height_buffer_capacity,omitempty"`
	HeightMinSamples     *int     `json:"height_min_samples,omitempty"`

	// Court region learner params
	CourtGridCols          *int     `json:"court_grid_cols,omitempty"`
	CourtGridRows          *int     `json:"court_grid_rows,omitempty"`
	CourtCellThreshold     *float64 `json:"court_cell_threshold,omitempty"`
	CourtDecayFactor       *float64 `json:"court_decay_factor,omitempty"`
	CourtTopExclusion      *float64 `json:"court_top_exclusion,omitempty"`
	CourtBottomExclusion   *float64 `json:"court_bottom_exclusion,omitempty"`
	CourtPadding           *float64 `json:"court_padding,omitempty"`
	CourtRecomputeInterval *string  `json:"court_recompute_interval,omitempty"` // duration string like "3s"

	// Tracker params
	HitsToConfirm        *int     `json:"hits_to_confirm,omitempty"`
	MissesToLost         *int     `json:"misses_to_lost,omitempty"`
	MissesToDelete       *int     `json:"misses_to_delete,omitempty"`
	AssociationGate      *float64 `json:"association_gate,omitempty"`
	AppearanceCostWeight *float64 `json:"appearance_cost_weight,omitempty"`
	ReIDSimilarity       *float64 `json:"reid_similarity,omitempty"`
	ReIDDistanceGate     *float64 `json:"reid_distance_gate,omitempty"`
	SignatureAlpha       *float64 `json:"signature_alpha,omitempty"`
	ProcessNoisePos      *float64 `json:"process_noise_pos,omitempty"`
	ProcessNoiseVel      *float64 `json:"process_noise_vel,omitempty"`
	MeasurementNoise     *float64 `json:"measurement_noise,omitempty"`
	MaxTracks            *int     `json:"max_tracks,omitempty"`

	// Focus (action center) params
	ProximityFalloff  *float64 `json:"proximity_falloff,omitempty"`
	MomentumGain      *float64 `json:"momentum_gain,omitempty"`
	RefereeWeight     *float64 `json:"referee_weight,omitempty"`
	BallBlendWeight   *float64 `json:"ball_blend_weight,omitempty"`
	BallMinConfidence *float64 `json:"ball_min_confidence,omitempty"`

	// Motion smoother params (pan)
	PanDeadZone     *float64 `json:"pan_dead_zone,omitempty"`
	PanGain         *float64 `json:"pan_gain,omitempty"`
	PanDamping      *float64 `json:"pan_damping,omitempty"`
	PanMaxSpeed     *float64 `json:"pan_max_speed,omitempty"`
	TargetStreak    *int     `json:"target_streak,omitempty"`
	TargetStreakGap *float64 `json:"target_streak_gap,omitempty"`

	// Zoom controller params
	ZoomGain    *float64 `json:"zoom_gain,omitempty"`
	MinZoom     *float64 `json:"min_zoom,omitempty"`
	MaxZoom     *float64 `json:"max_zoom,omitempty"`
	WideSpread  *float64 `json:"wide_spread,omitempty"`
	TightSpread *float64 `json:"tight_spread,omitempty"`

	// Timeout hold params
	EdgeBandFraction    *float64 `json:"edge_band_fraction,omitempty"`
	EdgeMajority        *float64 `json:"edge_majority,omitempty"`
	TimeoutMinPlayers   *int     `json:"timeout_min_players,omitempty"`
	TimeoutGainScale    *float64 `json:"timeout_gain_scale,omitempty"`

	// Ball signal detector params
	BallHueMin        *float64 `json:"ball_hue_min,omitempty"`
	BallHueMax        *float64 `json:"ball_hue_max,omitempty"`
	BallMinSaturation *float64 `json:"ball_min_saturation,omitempty"`
	BallSampleStride  *int     `json:"ball_sample_stride,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a JSON file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file size.
// Fields omitted from the JSON retain their defaults, so partial configs
// are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all set configuration values are within valid ranges.
// This is the only place a bad tuning value is allowed to abort startup;
// nothing in the per-frame path validates or fails.
func (c *TuningConfig) Validate() error {
	checkFraction := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
		return nil
	}
	checkPositive := func(name string, v *float64) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
		return nil
	}
	checkPositiveInt := func(name string, v *int) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
		return nil
	}

	fractions := map[string]*float64{
		"court_cell_threshold":   c.CourtCellThreshold,
		"court_decay_factor":     c.CourtDecayFactor,
		"court_top_exclusion":    c.CourtTopExclusion,
		"court_bottom_exclusion": c.CourtBottomExclusion,
		"appearance_cost_weight": c.AppearanceCostWeight,
		"reid_similarity":        c.ReIDSimilarity,
		"signature_alpha":        c.SignatureAlpha,
		"referee_weight":         c.RefereeWeight,
		"ball_blend_weight":      c.BallBlendWeight,
		"ball_min_confidence":    c.BallMinConfidence,
		"pan_damping":            c.PanDamping,
		"edge_band_fraction":     c.EdgeBandFraction,
		"edge_majority":          c.EdgeMajority,
		"timeout_gain_scale":     c.TimeoutGainScale,
	}
	for name, v := range fractions {
		if err := checkFraction(name, v); err != nil {
			return err
		}
	}

	positives := map[string]*float64{
		"adult_height_ratio": c.AdultHeightRatio,
		"association_gate":   c.AssociationGate,
		"reid_distance_gate": c.ReIDDistanceGate,
		"pan_gain":           c.PanGain,
		"pan_max_speed":      c.PanMaxSpeed,
		"zoom_gain":          c.ZoomGain,
		"min_zoom":           c.MinZoom,
		"max_zoom":           c.MaxZoom,
	}
	for name, v := range positives {
		if err := checkPositive(name, v); err != nil {
			return err
		}
	}

	positiveInts := map[string]*int{
		"stripe_min_transitions": c.StripeMinTransitions,
		"height_buffer_capacity": c.HeightBufferCapacity,
		"court_grid_cols":        c.CourtGridCols,
		"court_grid_rows":        c.CourtGridRows,
		"hits_to_confirm":        c.HitsToConfirm,
		"misses_to_lost":         c.MissesToLost,
		"misses_to_delete":       c.MissesToDelete,
		"max_tracks":             c.MaxTracks,
		"target_streak":          c.TargetStreak,
		"timeout_min_players":    c.TimeoutMinPlayers,
	}
	for name, v := range positiveInts {
		if err := checkPositiveInt(name, v); err != nil {
			return err
		}
	}

	if c.MinZoom != nil && c.MaxZoom != nil && *c.MinZoom > *c.MaxZoom {
		return fmt.Errorf("min_zoom (%f) must not exceed max_zoom (%f)", *c.MinZoom, *c.MaxZoom)
	}
	if c.MissesToLost != nil && c.MissesToDelete != nil && *c.MissesToLost >= *c.MissesToDelete {
		return fmt.Errorf("misses_to_lost (%d) must be below misses_to_delete (%d)", *c.MissesToLost, *c.MissesToDelete)
	}
	if c.CourtRecomputeInterval != nil && *c.CourtRecomputeInterval != "" {
		if _, err := parseDuration(*c.CourtRecomputeInterval); err != nil {
			return fmt.Errorf("invalid court_recompute_interval '%s': %w", *c.CourtRecomputeInterval, err)
		}
	}

	return nil
}

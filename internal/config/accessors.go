package config

import "time"

func parseDuration(s string) (time.Duration, error) { return time.ParseDuration(s) }

// Classifier accessors.

// GetAdultHeightRatio returns the adult_height_ratio value or the default.
// A detection taller than median height × this ratio is classified Adult.
func (c *TuningConfig) GetAdultHeightRatio() float64 {
	if c.AdultHeightRatio == nil {
		return 1.25
	}
	return *c.AdultHeightRatio
}

// GetStripeMinTransitions returns the stripe_min_transitions value or the default.
func (c *TuningConfig) GetStripeMinTransitions() int {
	if c.StripeMinTransitions == nil {
		return 3
	}
	return *c.StripeMinTransitions
}

// GetHeightBufferCapacity returns the height_buffer_capacity value or the default.
func (c *TuningConfig) GetHeightBufferCapacity() int {
	if c.HeightBufferCapacity == nil {
		return 100
	}
	return *c.HeightBufferCapacity
}

// GetHeightMinSamples returns the height_min_samples value or the default.
// Below this many observed heights, every detection classifies as Player.
func (c *TuningConfig) GetHeightMinSamples() int {
	if c.HeightMinSamples == nil {
		return 5
	}
	return *c.HeightMinSamples
}

// Court region learner accessors.

// GetCourtGridCols returns the court_grid_cols value or the default.
func (c *TuningConfig) GetCourtGridCols() int {
	if c.CourtGridCols == nil {
		return 20
	}
	return *c.CourtGridCols
}

// GetCourtGridRows returns the court_grid_rows value or the default.
func (c *TuningConfig) GetCourtGridRows() int {
	if c.CourtGridRows == nil {
		return 20
	}
	return *c.CourtGridRows
}

// GetCourtCellThreshold returns the court_cell_threshold value or the default.
func (c *TuningConfig) GetCourtCellThreshold() float64 {
	if c.CourtCellThreshold == nil {
		return 0.4
	}
	return *c.CourtCellThreshold
}

// GetCourtDecayFactor returns the court_decay_factor value or the default.
func (c *TuningConfig) GetCourtDecayFactor() float64 {
	if c.CourtDecayFactor == nil {
		return 0.95
	}
	return *c.CourtDecayFactor
}

// GetCourtTopExclusion returns the court_top_exclusion value or the default.
func (c *TuningConfig) GetCourtTopExclusion() float64 {
	if c.CourtTopExclusion == nil {
		return 0.28
	}
	return *c.CourtTopExclusion
}

// GetCourtBottomExclusion returns the court_bottom_exclusion value or the default.
func (c *TuningConfig) GetCourtBottomExclusion() float64 {
	if c.CourtBottomExclusion == nil {
		return 0.05
	}
	return *c.CourtBottomExclusion
}

// GetCourtPadding returns the court_padding value or the default.
func (c *TuningConfig) GetCourtPadding() float64 {
	if c.CourtPadding == nil {
		return 0.03
	}
	return *c.CourtPadding
}

// GetCourtRecomputeInterval parses and returns court_recompute_interval.
func (c *TuningConfig) GetCourtRecomputeInterval() time.Duration {
	if c.CourtRecomputeInterval == nil || *c.CourtRecomputeInterval == "" {
		return 3 * time.Second
	}
	d, err := parseDuration(*c.CourtRecomputeInterval)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// Tracker accessors.

// GetHitsToConfirm returns the hits_to_confirm value or the default.
func (c *TuningConfig) GetHitsToConfirm() int {
	if c.HitsToConfirm == nil {
		return 3
	}
	return *c.HitsToConfirm
}

// GetMissesToLost returns the misses_to_lost value or the default.
// ~0.5s at a 30 Hz detection cadence.
func (c *TuningConfig) GetMissesToLost() int {
	if c.MissesToLost == nil {
		return 15
	}
	return *c.MissesToLost
}

// GetMissesToDelete returns the misses_to_delete value or the default.
func (c *TuningConfig) GetMissesToDelete() int {
	if c.MissesToDelete == nil {
		return 90
	}
	return *c.MissesToDelete
}

// GetAssociationGate returns the association_gate value or the default.
// Combined costs above this reject the match (normalized frame units).
func (c *TuningConfig) GetAssociationGate() float64 {
	if c.AssociationGate == nil {
		return 0.25
	}
	return *c.AssociationGate
}

// GetAppearanceCostWeight returns the appearance_cost_weight value or the default.
func (c *TuningConfig) GetAppearanceCostWeight() float64 {
	if c.AppearanceCostWeight == nil {
		return 0.35
	}
	return *c.AppearanceCostWeight
}

// GetReIDSimilarity returns the reid_similarity value or the default.
func (c *TuningConfig) GetReIDSimilarity() float64 {
	if c.ReIDSimilarity == nil {
		return 0.85
	}
	return *c.ReIDSimilarity
}

// GetReIDDistanceGate returns the reid_distance_gate value or the default.
func (c *TuningConfig) GetReIDDistanceGate() float64 {
	if c.ReIDDistanceGate == nil {
		return 0.2
	}
	return *c.ReIDDistanceGate
}

// GetSignatureAlpha returns the signature_alpha value or the default.
func (c *TuningConfig) GetSignatureAlpha() float64 {
	if c.SignatureAlpha == nil {
		return 0.2
	}
	return *c.SignatureAlpha
}

// GetProcessNoisePos returns the process_noise_pos value or the default.
func (c *TuningConfig) GetProcessNoisePos() float64 {
	if c.ProcessNoisePos == nil {
		return 0.0001
	}
	return *c.ProcessNoisePos
}

// GetProcessNoiseVel returns the process_noise_vel value or the default.
func (c *TuningConfig) GetProcessNoiseVel() float64 {
	if c.ProcessNoiseVel == nil {
		return 0.001
	}
	return *c.ProcessNoiseVel
}

// GetMeasurementNoise returns the measurement_noise value or the default.
func (c *TuningConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 0.0004
	}
	return *c.MeasurementNoise
}

// GetMaxTracks returns the max_tracks value or the default.
func (c *TuningConfig) GetMaxTracks() int {
	if c.MaxTracks == nil {
		return 40
	}
	return *c.MaxTracks
}

// Focus estimator accessors.

// GetProximityFalloff returns the proximity_falloff value or the default.
func (c *TuningConfig) GetProximityFalloff() float64 {
	if c.ProximityFalloff == nil {
		return 1.5
	}
	return *c.ProximityFalloff
}

// GetMomentumGain returns the momentum_gain value or the default.
func (c *TuningConfig) GetMomentumGain() float64 {
	if c.MomentumGain == nil {
		return 2.0
	}
	return *c.MomentumGain
}

// GetRefereeWeight returns the referee_weight value or the default.
func (c *TuningConfig) GetRefereeWeight() float64 {
	if c.RefereeWeight == nil {
		return 0.3
	}
	return *c.RefereeWeight
}

// GetBallBlendWeight returns the ball_blend_weight value or the default.
// Fraction of the focal point taken from the ball signal when both ball and
// player tracks exist; the rest comes from the player centroid.
func (c *TuningConfig) GetBallBlendWeight() float64 {
	if c.BallBlendWeight == nil {
		return 0.3
	}
	return *c.BallBlendWeight
}

// GetBallMinConfidence returns the ball_min_confidence value or the default.
func (c *TuningConfig) GetBallMinConfidence() float64 {
	if c.BallMinConfidence == nil {
		return 0.4
	}
	return *c.BallMinConfidence
}

// Motion smoother accessors.

// GetPanDeadZone returns the pan_dead_zone value or the default.
func (c *TuningConfig) GetPanDeadZone() float64 {
	if c.PanDeadZone == nil {
		return 0.04
	}
	return *c.PanDeadZone
}

// GetPanGain returns the pan_gain value or the default.
func (c *TuningConfig) GetPanGain() float64 {
	if c.PanGain == nil {
		return 0.01
	}
	return *c.PanGain
}

// GetPanDamping returns the pan_damping value or the default.
func (c *TuningConfig) GetPanDamping() float64 {
	if c.PanDamping == nil {
		return 0.8
	}
	return *c.PanDamping
}

// GetPanMaxSpeed returns the pan_max_speed value or the default
// (normalized frame widths per second).
func (c *TuningConfig) GetPanMaxSpeed() float64 {
	if c.PanMaxSpeed == nil {
		return 0.35
	}
	return *c.PanMaxSpeed
}

// GetTargetStreak returns the target_streak value or the default.
func (c *TuningConfig) GetTargetStreak() int {
	if c.TargetStreak == nil {
		return 7
	}
	return *c.TargetStreak
}

// GetTargetStreakGap returns the target_streak_gap value or the default.
// A candidate target further than this from the accepted target must sustain
// a streak before it is adopted.
func (c *TuningConfig) GetTargetStreakGap() float64 {
	if c.TargetStreakGap == nil {
		return 0.12
	}
	return *c.TargetStreakGap
}

// Zoom accessors.

// GetZoomGain returns the zoom_gain value or the default.
func (c *TuningConfig) GetZoomGain() float64 {
	if c.ZoomGain == nil {
		return 0.004
	}
	return *c.ZoomGain
}

// GetMinZoom returns the min_zoom value or the default.
func (c *TuningConfig) GetMinZoom() float64 {
	if c.MinZoom == nil {
		return 1.0
	}
	return *c.MinZoom
}

// GetMaxZoom returns the max_zoom value or the default.
func (c *TuningConfig) GetMaxZoom() float64 {
	if c.MaxZoom == nil {
		return 3.0
	}
	return *c.MaxZoom
}

// GetWideSpread returns the wide_spread value or the default.
func (c *TuningConfig) GetWideSpread() float64 {
	if c.WideSpread == nil {
		return 0.06
	}
	return *c.WideSpread
}

// GetTightSpread returns the tight_spread value or the default.
func (c *TuningConfig) GetTightSpread() float64 {
	if c.TightSpread == nil {
		return 0.015
	}
	return *c.TightSpread
}

// Timeout hold accessors.

// GetEdgeBandFraction returns the edge_band_fraction value or the default.
func (c *TuningConfig) GetEdgeBandFraction() float64 {
	if c.EdgeBandFraction == nil {
		return 0.15
	}
	return *c.EdgeBandFraction
}

// GetEdgeMajority returns the edge_majority value or the default.
func (c *TuningConfig) GetEdgeMajority() float64 {
	if c.EdgeMajority == nil {
		return 0.6
	}
	return *c.EdgeMajority
}

// GetTimeoutMinPlayers returns the timeout_min_players value or the default.
func (c *TuningConfig) GetTimeoutMinPlayers() int {
	if c.TimeoutMinPlayers == nil {
		return 3
	}
	return *c.TimeoutMinPlayers
}

// GetTimeoutGainScale returns the timeout_gain_scale value or the default.
func (c *TuningConfig) GetTimeoutGainScale() float64 {
	if c.TimeoutGainScale == nil {
		return 0.3
	}
	return *c.TimeoutGainScale
}

// Ball signal detector accessors.

// GetBallHueMin returns the ball_hue_min value or the default (degrees).
func (c *TuningConfig) GetBallHueMin() float64 {
	if c.BallHueMin == nil {
		return 10.0
	}
	return *c.BallHueMin
}

// GetBallHueMax returns the ball_hue_max value or the default (degrees).
func (c *TuningConfig) GetBallHueMax() float64 {
	if c.BallHueMax == nil {
		return 40.0
	}
	return *c.BallHueMax
}

// GetBallMinSaturation returns the ball_min_saturation value or the default.
func (c *TuningConfig) GetBallMinSaturation() float64 {
	if c.BallMinSaturation == nil {
		return 0.45
	}
	return *c.BallMinSaturation
}

// GetBallSampleStride returns the ball_sample_stride value or the default
// (pixels between sampled points when scanning a frame).
func (c *TuningConfig) GetBallSampleStride() int {
	if c.BallSampleStride == nil {
		return 8
	}
	return *c.BallSampleStride
}

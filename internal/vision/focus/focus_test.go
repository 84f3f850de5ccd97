package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/courtcam/internal/vision/frame"
)

func player(x, y, speed float64) Subject {
	return Subject{Position: frame.Point{X: x, Y: y}, Speed: speed, Label: frame.LabelPlayer}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative proximity falloff", func(c *Config) { c.ProximityFalloff = -1 }},
		{"negative momentum gain", func(c *Config) { c.MomentumGain = -0.5 }},
		{"referee weight above one", func(c *Config) { c.RefereeWeight = 1.2 }},
		{"ball blend above one", func(c *Config) { c.BallBlendWeight = 2 }},
		{"negative ball confidence", func(c *Config) { c.BallMinConfidence = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestEstimateHoldsFocalWithoutSubjects(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	first, _ := e.Estimate([]Subject{player(0.3, 0.6, 0)}, nil)
	require.InDelta(t, 0.3, first.X, 1e-9)
	require.InDelta(t, 0.6, first.Y, 1e-9)

	// Detection dropout: the focal point must not snap back to center.
	held, _ := e.Estimate(nil, nil)
	assert.Equal(t, first, held)
}

func TestAdultsExcludedWhenPlayerExists(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	// Three stationary adults clustered on one side, one player on the
	// other: the estimate must fall to the player, not the adults' centroid.
	subjects := []Subject{
		{Position: frame.Point{X: 0.8, Y: 0.4}, Label: frame.LabelAdult},
		{Position: frame.Point{X: 0.82, Y: 0.45}, Label: frame.LabelAdult},
		{Position: frame.Point{X: 0.84, Y: 0.5}, Label: frame.LabelAdult},
		player(0.3, 0.5, 0),
	}

	focal, _ := e.Estimate(subjects, nil)
	assert.InDelta(t, 0.3, focal.X, 1e-9)
	assert.InDelta(t, 0.5, focal.Y, 1e-9)
}

func TestAdultsUsedWhenNoPlayers(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	subjects := []Subject{
		{Position: frame.Point{X: 0.4, Y: 0.5}, Label: frame.LabelAdult},
		{Position: frame.Point{X: 0.6, Y: 0.5}, Label: frame.LabelUnknown},
	}

	focal, _ := e.Estimate(subjects, nil)
	assert.InDelta(t, 0.5, focal.X, 1e-9, "graceful degradation averages whoever is available")
	assert.InDelta(t, 0.5, focal.Y, 1e-9)
}

func TestMomentumFavorsMovingPlayers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MomentumGain = 2.0
	cfg.ProximityFalloff = 1.5
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	// Equidistant from the centered focal point; the runner at x=0.7 with
	// speed 1.0 carries weight 0.7*(1+2)=2.1 vs the stander's 0.7.
	focal, _ := e.Estimate([]Subject{
		player(0.3, 0.5, 0),
		player(0.7, 0.5, 1.0),
	}, nil)

	assert.InDelta(t, 0.6, focal.X, 1e-9)
}

func TestRefereeContributesAtReducedWeight(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	focal, _ := e.Estimate([]Subject{
		player(0.4, 0.5, 0),
		{Position: frame.Point{X: 0.6, Y: 0.5}, Label: frame.LabelReferee},
	}, nil)

	// Weights 0.85 (player) vs 0.85*0.3 (referee): the focal point leans
	// toward the player but still acknowledges the referee.
	assert.InDelta(t, 0.4462, focal.X, 1e-3)
}

func TestBallBlend(t *testing.T) {
	t.Run("confident ball pulls the focal point", func(t *testing.T) {
		e, err := NewEstimator(DefaultConfig())
		require.NoError(t, err)

		ball := &frame.BallSignal{Position: frame.Point{X: 0.8, Y: 0.5}, Confidence: 0.9}
		focal, _ := e.Estimate([]Subject{player(0.4, 0.5, 0)}, ball)

		assert.InDelta(t, 0.3*0.8+0.7*0.4, focal.X, 1e-9)
	})

	t.Run("low-confidence ball is ignored", func(t *testing.T) {
		e, err := NewEstimator(DefaultConfig())
		require.NoError(t, err)

		ball := &frame.BallSignal{Position: frame.Point{X: 0.8, Y: 0.5}, Confidence: 0.2}
		focal, _ := e.Estimate([]Subject{player(0.4, 0.5, 0)}, ball)

		assert.InDelta(t, 0.4, focal.X, 1e-9)
	})

	t.Run("ball needs player tracks to blend", func(t *testing.T) {
		e, err := NewEstimator(DefaultConfig())
		require.NoError(t, err)

		ball := &frame.BallSignal{Position: frame.Point{X: 0.9, Y: 0.5}, Confidence: 0.9}
		focal, _ := e.Estimate([]Subject{
			{Position: frame.Point{X: 0.4, Y: 0.5}, Label: frame.LabelAdult},
		}, ball)

		assert.InDelta(t, 0.4, focal.X, 1e-9)
	})
}

func TestSpreadMeasuresClustering(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	// Symmetric pair about center: focal stays at 0.5, RMS distance 0.1.
	_, spread := e.Estimate([]Subject{
		player(0.4, 0.5, 0),
		player(0.6, 0.5, 0),
	}, nil)
	assert.InDelta(t, 0.1, spread, 1e-9)

	// A tighter pair yields a smaller spread.
	e2, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)
	_, tight := e2.Estimate([]Subject{
		player(0.48, 0.5, 0),
		player(0.52, 0.5, 0),
	}, nil)
	assert.Less(t, tight, spread)
}

func TestReset(t *testing.T) {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)

	e.Estimate([]Subject{player(0.2, 0.8, 0)}, nil)
	require.NotEqual(t, frame.Point{X: 0.5, Y: 0.5}, e.Focal())

	e.Reset()
	assert.Equal(t, frame.Point{X: 0.5, Y: 0.5}, e.Focal())
	assert.Equal(t, 0.0, e.Spread())
}

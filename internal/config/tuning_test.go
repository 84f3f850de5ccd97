package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	assert.Equal(t, 1.25, cfg.GetAdultHeightRatio())
	assert.Equal(t, 3, cfg.GetStripeMinTransitions())
	assert.Equal(t, 100, cfg.GetHeightBufferCapacity())
	assert.Equal(t, 20, cfg.GetCourtGridCols())
	assert.Equal(t, 0.4, cfg.GetCourtCellThreshold())
	assert.Equal(t, 0.95, cfg.GetCourtDecayFactor())
	assert.Equal(t, 3, cfg.GetHitsToConfirm())
	assert.Equal(t, 15, cfg.GetMissesToLost())
	assert.Equal(t, 0.85, cfg.GetReIDSimilarity())
	assert.Equal(t, 0.3, cfg.GetBallBlendWeight())
	assert.Equal(t, 0.01, cfg.GetPanGain())
	assert.Equal(t, 0.8, cfg.GetPanDamping())
	assert.Equal(t, 7, cfg.GetTargetStreak())
	assert.Equal(t, 1.0, cfg.GetMinZoom())
	assert.Equal(t, 3.0, cfg.GetMaxZoom())
	assert.Equal(t, 0.15, cfg.GetEdgeBandFraction())
	assert.Equal(t, 0.6, cfg.GetEdgeMajority())
	assert.Equal(t, 3, cfg.GetTimeoutMinPlayers())
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*TuningConfig)
	}{
		{"zoom order inverted", func(c *TuningConfig) {
			c.MinZoom = ptrFloat64(4.0)
			c.MaxZoom = ptrFloat64(2.0)
		}},
		{"negative cell threshold", func(c *TuningConfig) {
			c.CourtCellThreshold = ptrFloat64(-0.1)
		}},
		{"edge majority above one", func(c *TuningConfig) {
			c.EdgeMajority = ptrFloat64(1.5)
		}},
		{"zero hits to confirm", func(c *TuningConfig) {
			c.HitsToConfirm = ptrInt(0)
		}},
		{"lost window at delete window", func(c *TuningConfig) {
			c.MissesToLost = ptrInt(30)
			c.MissesToDelete = ptrInt(30)
		}},
		{"bad recompute interval", func(c *TuningConfig) {
			c.CourtRecomputeInterval = ptrString("three seconds")
		}},
		{"negative pan gain", func(c *TuningConfig) {
			c.PanGain = ptrFloat64(-0.01)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EmptyTuningConfig()
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadTuningConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	body := `{"adult_height_ratio": 1.4, "min_zoom": 1.2, "max_zoom": 2.5, "target_streak": 6}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1.4, cfg.GetAdultHeightRatio())
	assert.Equal(t, 1.2, cfg.GetMinZoom())
	assert.Equal(t, 2.5, cfg.GetMaxZoom())
	assert.Equal(t, 6, cfg.GetTargetStreak())
	// Untouched fields keep defaults.
	assert.Equal(t, 0.04, cfg.GetPanDeadZone())
}

func TestLoadTuningConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "tuning.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuningConfig(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"min_zoom": 5.0, "max_zoom": 2.0}`), 0o644))
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"min_zoom": `), 0o644))
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})
}

func TestDefaultsFileMatchesSchema(t *testing.T) {
	// The canonical defaults file must stay loadable and valid; it documents
	// every knob even though the in-code defaults are authoritative.
	candidates := []string{
		DefaultConfigPath,
		filepath.Join("..", "..", DefaultConfigPath),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadTuningConfig(path)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			return
		}
	}
	t.Skip("tuning defaults file not found from test working directory")
}

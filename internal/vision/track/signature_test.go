package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled copy", []float64{1, 0}, []float64{5, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"empty a", nil, []float64{1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestBlendSignature(t *testing.T) {
	t.Run("nil stored adopts copy", func(t *testing.T) {
		obs := []float64{1, 2}
		got := blendSignature(nil, obs, 0.2)
		assert.Equal(t, obs, got)
		obs[0] = 99
		assert.Equal(t, 1.0, got[0], "stored signature must not alias the observation")
	})

	t.Run("ema blend", func(t *testing.T) {
		stored := []float64{1, 0}
		got := blendSignature(stored, []float64{0, 1}, 0.25)
		assert.InDelta(t, 0.75, got[0], 1e-9)
		assert.InDelta(t, 0.25, got[1], 1e-9)
	})

	t.Run("empty observation is a no-op", func(t *testing.T) {
		stored := []float64{1, 2}
		got := blendSignature(stored, nil, 0.25)
		assert.Equal(t, []float64{1, 2}, got)
	})
}

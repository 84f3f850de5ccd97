package track

import "math"

// Appearance signatures are fixed-size numeric vectors (quantized color
// histograms) supplied by the external detector. Tracks keep an exponential
// moving average so one noisy frame cannot corrupt the stored appearance.

// cosineSimilarity returns the cosine similarity of two signatures in [−1,1],
// or 0 when either vector is empty, zero, or the lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// blendSignature folds an observed signature into the stored one with EMA
// factor alpha, in place. A nil stored signature adopts a copy of the
// observation.
func blendSignature(stored, observed []float64, alpha float64) []float64 {
	if len(observed) == 0 {
		return stored
	}
	if len(stored) != len(observed) {
		out := make([]float64, len(observed))
		copy(out, observed)
		return out
	}
	for i := range stored {
		stored[i] = (1-alpha)*stored[i] + alpha*observed[i]
	}
	return stored
}

package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKalmanPredictAdvancesPosition(t *testing.T) {
	k := newKalmanState(0.2, 0.3)
	k.VX = 0.1
	k.VY = -0.2

	k.predict(0.1, 0.0001, 0.001)

	assert.InDelta(t, 0.21, k.X, 1e-9)
	assert.InDelta(t, 0.28, k.Y, 1e-9)
}

func TestKalmanPredictClampsLongGaps(t *testing.T) {
	k := newKalmanState(0.5, 0.5)
	k.VX = 0.1

	// A multi-second stall must not launch the track across the frame.
	k.predict(10, 0.0001, 0.001)

	assert.InDelta(t, 0.5+0.1*maxPredictDt, k.X, 1e-9)
}

func TestKalmanPredictIgnoresNonPositiveDt(t *testing.T) {
	k := newKalmanState(0.5, 0.5)
	k.VX = 0.1
	before := k

	k.predict(0, 0.0001, 0.001)
	assert.Equal(t, before, k)

	k.predict(-0.1, 0.0001, 0.001)
	assert.Equal(t, before, k)
}

func TestKalmanUpdatePullsTowardMeasurement(t *testing.T) {
	k := newKalmanState(0.2, 0.2)

	// Initial position covariance is large relative to measurement noise,
	// so a single update should move almost all the way to the measurement.
	k.update(0.3, 0.3, 0.0004)

	assert.InDelta(t, 0.3, k.X, 0.01)
	assert.InDelta(t, 0.3, k.Y, 0.01)
	assert.Less(t, k.P[0], 0.05, "position variance must shrink after an update")
}

func TestKalmanUpdateConverges(t *testing.T) {
	k := newKalmanState(0.5, 0.5)

	// A target moving right at 0.1 units/s sampled at 25 fps.
	dt := 0.04
	x := 0.5
	for i := 0; i < 50; i++ {
		k.predict(dt, 0.0001, 0.001)
		x += 0.1 * dt
		k.update(x, 0.5, 0.0004)
	}

	assert.InDelta(t, x, k.X, 0.01)
	assert.InDelta(t, 0.1, k.VX, 0.05, "velocity estimate should approach the true motion")
	assert.InDelta(t, 0.0, k.VY, 0.05)
}

func TestGatingDistanceOrdersByProximity(t *testing.T) {
	k := newKalmanState(0.5, 0.5)

	near := k.gatingDistance(0.51, 0.5, 0.0004)
	far := k.gatingDistance(0.8, 0.5, 0.0004)

	require.Less(t, near, far)
	assert.Greater(t, far, 0.0)
}

func TestInflateWidensGate(t *testing.T) {
	k := newKalmanState(0.5, 0.5)
	before := k.gatingDistance(0.6, 0.5, 0.0004)

	k.inflate(0.05)
	after := k.gatingDistance(0.6, 0.5, 0.0004)

	assert.Less(t, after, before, "extra covariance must make the same offset less surprising")
}

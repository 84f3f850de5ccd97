package track

// Constant-velocity Kalman filter over normalized frame coordinates.
// State vector is [x, y, vx, vy]; covariance is a 4x4 row-major array.
// The measurement extracts position only (H = [I2 0]).

// Numerical stability constants, not user-tunable.
const (
	// minDeterminant is the minimum determinant for innovation covariance
	// inversion; below it the update is skipped.
	minDeterminant = 1e-12
	// singularDistance is returned for gating when covariance is singular.
	singularDistance = 1e9
	// maxPredictDt caps a single prediction step so a long stall does not
	// launch tracks across the frame.
	maxPredictDt = 0.5
)

type kalmanState struct {
	X, Y   float64
	VX, VY float64
	P      [16]float64
}

// newKalmanState initialises a filter at the given position with zero
// velocity and high position uncertainty.
func newKalmanState(x, y float64) kalmanState {
	return kalmanState{
		X: x, Y: y,
		P: [16]float64{
			0.05, 0, 0, 0,
			0, 0.05, 0, 0,
			0, 0, 0.01, 0,
			0, 0, 0, 0.01,
		},
	}
}

// predict advances the state by dt seconds under the constant-velocity
// model and adds process noise.
func (k *kalmanState) predict(dt, qPos, qVel float64) {
	if dt <= 0 {
		return
	}
	if dt > maxPredictDt {
		dt = maxPredictDt
	}

	// x' = F x
	k.X += k.VX * dt
	k.Y += k.VY * dt

	// P' = F P F^T + Q, computed directly for the CV transition matrix.
	P := k.P
	var FP [16]float64
	for j := 0; j < 4; j++ {
		FP[0*4+j] = P[0*4+j] + dt*P[2*4+j]
		FP[1*4+j] = P[1*4+j] + dt*P[3*4+j]
		FP[2*4+j] = P[2*4+j]
		FP[3*4+j] = P[3*4+j]
	}
	for i := 0; i < 4; i++ {
		k.P[i*4+0] = FP[i*4+0] + dt*FP[i*4+2]
		k.P[i*4+1] = FP[i*4+1] + dt*FP[i*4+3]
		k.P[i*4+2] = FP[i*4+2]
		k.P[i*4+3] = FP[i*4+3]
	}

	k.P[0*4+0] += qPos
	k.P[1*4+1] += qPos
	k.P[2*4+2] += qVel
	k.P[3*4+3] += qVel
}

// inflate adds extra position covariance, widening the association gate for
// occluded tracks that are coasting on prediction alone.
func (k *kalmanState) inflate(amount float64) {
	k.P[0*4+0] += amount
	k.P[1*4+1] += amount
}

// gatingDistance returns the squared Mahalanobis distance between the
// predicted position and a measurement.
func (k *kalmanState) gatingDistance(zx, zy, rMeas float64) float64 {
	dx := zx - k.X
	dy := zy - k.Y

	// S = H P H^T + R
	s00 := k.P[0*4+0] + rMeas
	s01 := k.P[0*4+1]
	s10 := k.P[1*4+0]
	s11 := k.P[1*4+1] + rMeas

	det := s00*s11 - s01*s10
	if det < minDeterminant {
		return singularDistance
	}
	inv00 := s11 / det
	inv01 := -s01 / det
	inv10 := -s10 / det
	inv11 := s00 / det

	return dx*dx*inv00 + dx*dy*(inv01+inv10) + dy*dy*inv11
}

// update applies the Kalman correction for a position measurement.
func (k *kalmanState) update(zx, zy, rMeas float64) {
	yX := zx - k.X
	yY := zy - k.Y

	s00 := k.P[0*4+0] + rMeas
	s01 := k.P[0*4+1]
	s10 := k.P[1*4+0]
	s11 := k.P[1*4+1] + rMeas

	det := s00*s11 - s01*s10
	if det < minDeterminant {
		return // Singular covariance, skip the correction
	}
	inv00 := s11 / det
	inv01 := -s01 / det
	inv10 := -s10 / det
	inv11 := s00 / det

	// Kalman gain K = P H^T S^-1 (4x2)
	var K [8]float64
	for i := 0; i < 4; i++ {
		K[i*2+0] = k.P[i*4+0]*inv00 + k.P[i*4+1]*inv10
		K[i*2+1] = k.P[i*4+0]*inv01 + k.P[i*4+1]*inv11
	}

	k.X += K[0*2+0]*yX + K[0*2+1]*yY
	k.Y += K[1*2+0]*yX + K[1*2+1]*yY
	k.VX += K[2*2+0]*yX + K[2*2+1]*yY
	k.VY += K[3*2+0]*yX + K[3*2+1]*yY

	// P' = (I - K H) P. With H selecting position, (KH)[i][0]=K[i][0],
	// (KH)[i][1]=K[i][1], other columns zero.
	var iKH [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var id float64
			if i == j {
				id = 1
			}
			var kh float64
			switch j {
			case 0:
				kh = K[i*2+0]
			case 1:
				kh = K[i*2+1]
			}
			iKH[i*4+j] = id - kh
		}
	}
	var newP [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for m := 0; m < 4; m++ {
				sum += iKH[i*4+m] * k.P[m*4+j]
			}
			newP[i*4+j] = sum
		}
	}
	k.P = newP
}

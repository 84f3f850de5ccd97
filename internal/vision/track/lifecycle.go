package track

// State represents the lifecycle state of a track.
type State string

const (
	StateTentative State = "tentative" // New track, needs consecutive hits to confirm
	StateConfirmed State = "confirmed" // Stable track returned to downstream consumers
	StateLost      State = "lost"      // Confirmed track that stopped matching; re-ID candidate
	StateDeleted   State = "deleted"   // Track marked for removal
)

// LifecycleConfig holds the counter thresholds driving state transitions.
type LifecycleConfig struct {
	HitsToConfirm      int // Consecutive hits to promote Tentative → Confirmed
	MaxMissesTentative int // Consecutive misses before a Tentative track is dropped
	MissesToLost       int // Consecutive misses before Confirmed → Lost
	MissesToDelete     int // Consecutive misses before Lost → Deleted
}

// NextState is the pure transition function of the track lifecycle. It maps
// (current state, match outcome, counters) to the next state; counters must
// already reflect the outcome (hits incremented on match, misses on miss).
// Keeping this pure makes the lifecycle testable without running the full
// association pipeline.
func NextState(s State, matched bool, hits, misses int, cfg LifecycleConfig) State {
	switch s {
	case StateTentative:
		if matched {
			if hits >= cfg.HitsToConfirm {
				return StateConfirmed
			}
			return StateTentative
		}
		if misses >= cfg.MaxMissesTentative {
			return StateDeleted
		}
		return StateTentative

	case StateConfirmed:
		if matched {
			return StateConfirmed
		}
		if misses >= cfg.MissesToLost {
			return StateLost
		}
		return StateConfirmed

	case StateLost:
		if matched {
			// Only a re-identified detection reaches a Lost track; the
			// association layer has already applied the appearance gate.
			return StateConfirmed
		}
		if misses >= cfg.MissesToDelete {
			return StateDeleted
		}
		return StateLost

	case StateDeleted:
		return StateDeleted
	}
	return s
}

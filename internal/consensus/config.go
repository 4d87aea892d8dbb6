package consensus

import "time"

// Default protocol parameters.
const (
	// DefaultBFTThreshold is the fraction of the estimated peer
	// population whose votes are required to decide a transaction.
	DefaultBFTThreshold = 0.67

	// DefaultEstimatedPeers is a conservative fixed estimate of the
	// local neighborhood size. It is an approximation of true quorum
	// sizing, not a live membership count; calibrate it against the
	// expected number of participants in range.
	DefaultEstimatedPeers = 4

	// DefaultMaxTxAge is the age beyond which an inbound transaction
	// is dropped as expired.
	DefaultMaxTxAge = 10 * time.Second

	// DefaultCorruptionProbability is the chance an adversarial
	// participant corrupts a self-originated payload.
	DefaultCorruptionProbability = 0.3
)

// Config holds the per-participant protocol parameters.
type Config struct {
	// Self is this participant's identifier.
	Self ParticipantID

	// EstimatedPeers is the assumed peer population for threshold
	// computation.
	EstimatedPeers int

	// BFTThreshold is the required vote fraction in (0, 1].
	BFTThreshold float64

	// MaxTxAge drops inbound transactions older than this bound.
	MaxTxAge time.Duration

	// CorruptionProbability applies only when Self is adversarial.
	CorruptionProbability float64

	// PBFTComparison runs the probabilistic PBFT baseline next to
	// every verification for side-by-side evaluation. It never drives
	// finalization.
	PBFTComparison bool

	// UsePBFT models authentication latency with the PBFT multi-round
	// cost instead of the single-digest cost.
	UsePBFT bool
}

// DefaultConfig returns the standard protocol parameters for self.
func DefaultConfig(self ParticipantID) Config {
	return Config{
		Self:                  self,
		EstimatedPeers:        DefaultEstimatedPeers,
		BFTThreshold:          DefaultBFTThreshold,
		MaxTxAge:              DefaultMaxTxAge,
		CorruptionProbability: DefaultCorruptionProbability,
	}
}

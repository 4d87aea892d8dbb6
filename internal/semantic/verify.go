package semantic

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Default verification thresholds.
const (
	// DefaultVarianceLimit is the population-variance ceiling; clean
	// standard-normal vectors rarely exceed it, multiplicatively
	// corrupted ones often do.
	DefaultVarianceLimit = 2.0

	// DefaultCosineThreshold is the minimum cosine similarity a
	// top-k concept must reach against a reference vector.
	DefaultCosineThreshold = 0.2

	// topKSalience is the absolute dimension value above which a
	// concept counts as high-salience.
	topKSalience = 0.8
)

// Stage identifies which check of the verification funnel rejected a
// vector.
type Stage int

const (
	StageNone       Stage = iota // accepted, no rejection
	StageDigest                  // attested digest does not match
	StageVariance                // population variance above limit
	StageSimilarity              // top-k cosine similarity below threshold
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageDigest:
		return "digest"
	case StageVariance:
		return "variance"
	case StageSimilarity:
		return "similarity"
	default:
		return "unknown"
	}
}

// Result is the outcome of a verification.
type Result struct {
	OK    bool  // OK is true if all checks passed
	Stage Stage // Stage is the rejecting check when OK is false
}

// Config holds the verifier parameters.
type Config struct {
	// Enabled turns semantic verification on. When false every
	// transaction is accepted unchecked.
	Enabled bool

	// VarianceLimit is the population-variance ceiling.
	VarianceLimit float64

	// CosineThreshold is the minimum similarity for top-k concepts.
	CosineThreshold float64
}

// DefaultConfig returns the standard verifier parameters.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		VarianceLimit:   DefaultVarianceLimit,
		CosineThreshold: DefaultCosineThreshold,
	}
}

// Verifier checks a concept vector against its attested digest and the
// statistical corruption signatures. It never reads the ground-truth
// Corrupted flag.
type Verifier struct {
	cfg Config
	rng *rand.Rand // rng generates reference vectors for the similarity check
}

// NewVerifier creates a verifier with the given parameters.
func NewVerifier(cfg Config, rng *rand.Rand) *Verifier {
	return &Verifier{cfg: cfg, rng: rng}
}

// Verify runs the three-stage funnel over a vector and its attested
// digest:
//
//  1. Recompute the digest; reject on mismatch.
//  2. Reject if the population variance of the dimensions exceeds the
//     limit (corruption signature).
//  3. For top-k concepts only, reject if the cosine similarity against
//     a freshly generated reference vector is below the threshold.
//
// Each stage strictly narrows acceptance; the order only matters for
// fail-fast, not for the final outcome. Verify never panics and
// returns a Result for any input.
func (vf *Verifier) Verify(v *Vector, attested string) Result {
	if !vf.cfg.Enabled {
		return Result{OK: true}
	}

	if Digest(v) != attested {
		return Result{Stage: StageDigest}
	}

	if stat.PopVariance(v.Data[:], nil) > vf.cfg.VarianceLimit {
		return Result{Stage: StageVariance}
	}

	if IsTopKConcept(v) {
		ref := Generate(v.Owner, time.Time{}, vf.rng)
		if CosineSimilarity(v.Data[:], ref.Data[:]) < vf.cfg.CosineThreshold {
			return Result{Stage: StageSimilarity}
		}
	}

	return Result{OK: true}
}

// IsTopKConcept reports whether the vector represents a high-salience
// concept: any dimension above the salience threshold in magnitude, or
// the TopK flag already set.
func IsTopKConcept(v *Vector) bool {
	if v.TopK {
		return true
	}

	for _, d := range v.Data {
		if d > topKSalience || d < -topKSalience {
			return true
		}
	}

	return false
}

// CosineSimilarity returns the cosine similarity of two vectors.
// Returns 0 on dimension mismatch or when either vector has zero norm;
// it never panics.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 0
	}

	return floats.Dot(a, b) / (normA * normB)
}

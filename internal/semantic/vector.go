package semantic

import (
	"math"
	"math/rand"
	"time"
)

// Dims is the fixed dimensionality of the concept space.
// A vector keeps exactly Dims dimensions for its whole lifetime.
const Dims = 10

// Vector is the numeric fingerprint of an observed concept, attached to
// every transaction and used as the object of integrity verification.
//
// Corrupted and TopK are ground-truth flags known only to the adversary
// and the evaluation harness. The verification path never reads
// Corrupted; treating it as an input would turn the verifier into an
// oracle and void every false-positive measurement.
type Vector struct {
	Data      [Dims]float64 // Data holds the concept dimensions
	Owner     uint64        // Owner is the originating participant
	Timestamp time.Time     // Timestamp is the creation time
	Corrupted bool          // Corrupted marks adversarial mutation (ground truth)
	TopK      bool          // TopK marks a high-salience concept (ground truth)
}

// Generate draws a fresh concept vector for the given participant.
// Dimensions are independent standard-normal samples.
func Generate(owner uint64, now time.Time, rng *rand.Rand) Vector {
	v := Vector{
		Owner:     owner,
		Timestamp: now,
	}

	for i := range v.Data {
		v.Data[i] = rng.NormFloat64()
	}

	return v
}

// Finite reports whether every dimension is a finite real number.
func (v *Vector) Finite() bool {
	for _, d := range v.Data {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}

	return true
}

// MaxAbsIndex returns the index of the maximum-magnitude dimension.
func (v *Vector) MaxAbsIndex() int {
	idx := 0
	max := math.Abs(v.Data[0])

	for i := 1; i < Dims; i++ {
		if a := math.Abs(v.Data[i]); a > max {
			max = a
			idx = i
		}
	}

	return idx
}

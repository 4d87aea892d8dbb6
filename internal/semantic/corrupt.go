package semantic

import "math/rand"

// Adversarial mutation probabilities and ranges. These model an
// attacker that perturbs a legitimate vector before attesting it,
// including a variant that tries to survive a naive salience check.
const (
	extremeValueProbability = 0.5 // chance InjectMalformed overwrites one dimension
	topKManipProbability    = 0.3 // chance InjectMalformed also manipulates top-k
)

// Corrupt perturbs every dimension by a multiplicative factor in
// [0.5, 1.5] and marks the vector as corrupted. Mutates in place.
func Corrupt(v *Vector, rng *rand.Rand) {
	v.Corrupted = true

	for i := range v.Data {
		v.Data[i] *= 1.0 + uniform(rng, -0.5, 0.5)
	}
}

// InjectMalformed applies the full adversarial mutation: systematic
// corruption, with probability 0.5 an extreme value in one uniformly
// chosen dimension, and with probability 0.3 a top-k manipulation.
func InjectMalformed(v *Vector, rng *rand.Rand) {
	Corrupt(v, rng)

	if rng.Float64() < extremeValueProbability {
		idx := rng.Intn(Dims)
		v.Data[idx] = uniform(rng, -10, 10)
	}

	if rng.Float64() < topKManipProbability {
		ManipulateTopK(v, rng)
	}
}

// ManipulateTopK forges a high-salience concept: the maximum-magnitude
// dimension is amplified by a factor in [1.5, 3.0] and every other
// dimension gets small noise in [-0.1, 0.1]. The result still trips a
// naive "any dimension above threshold" salience test while being
// numerically inconsistent with its attested digest.
func ManipulateTopK(v *Vector, rng *rand.Rand) {
	v.TopK = true
	v.Corrupted = true

	idx := v.MaxAbsIndex()
	v.Data[idx] *= uniform(rng, 1.5, 3.0)

	for i := range v.Data {
		if i == idx {
			continue
		}
		v.Data[i] += uniform(rng, -0.1, 0.1)
	}
}

// uniform draws from U(lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

package sim

import (
	"math"
	"math/rand"

	"cocochain/internal/consensus"
)

// Default highway geometry, in meters.
const (
	// DefaultHighwayLength is the length of the simulated road.
	DefaultHighwayLength = 20_000.0

	// DefaultCoverageRadius is an authority's radio coverage.
	DefaultCoverageRadius = 1_000.0
)

// Vehicle speed range in km/h.
const (
	minSpeedKmh = 100.0
	maxSpeedKmh = 130.0
)

// Post is a roadside authority at a fixed position.
type Post struct {
	ID       consensus.ParticipantID
	Position float64 // Position along the road in meters
}

// Highway is the road geometry: a one-dimensional loop with roadside
// authorities at fixed positions.
type Highway struct {
	Length   float64 // Length of the road in meters
	Coverage float64 // Coverage radius of each authority in meters
	Posts    []Post
}

// NewHighway places the given authorities evenly along the default road,
// centered in equal segments. Five authorities land at the 2, 6, 10, 14
// and 18 km marks.
func NewHighway(authorities []consensus.ParticipantID, coverage float64) Highway {
	if coverage == 0 {
		coverage = DefaultCoverageRadius
	}

	h := Highway{
		Length:   DefaultHighwayLength,
		Coverage: coverage,
		Posts:    make([]Post, len(authorities)),
	}

	n := float64(len(authorities))
	for i, id := range authorities {
		h.Posts[i] = Post{
			ID:       id,
			Position: h.Length * (2*float64(i) + 1) / (2 * n),
		}
	}

	return h
}

// Nearest returns the authority closest to pos, regardless of coverage.
func (h *Highway) Nearest(pos float64) consensus.ParticipantID {
	best := h.Posts[0].ID
	bestDist := h.distance(pos, h.Posts[0].Position)

	for _, p := range h.Posts[1:] {
		if d := h.distance(pos, p.Position); d < bestDist {
			best = p.ID
			bestDist = d
		}
	}

	return best
}

// NearestInRange returns the authority whose coverage contains pos, or
// false when the vehicle is in a coverage gap.
func (h *Highway) NearestInRange(pos float64) (consensus.ParticipantID, bool) {
	id := h.Nearest(pos)

	for _, p := range h.Posts {
		if p.ID == id {
			return id, h.distance(pos, p.Position) <= h.Coverage
		}
	}

	return 0, false
}

// Wrap normalizes a position onto the looped road.
func (h *Highway) Wrap(pos float64) float64 {
	pos = math.Mod(pos, h.Length)
	if pos < 0 {
		pos += h.Length
	}

	return pos
}

// distance is the shortest separation on the loop.
func (h *Highway) distance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > h.Length/2 {
		d = h.Length - d
	}

	return d
}

// DrawSpeed samples a vehicle speed from U(100, 130) km/h, returned in
// meters per second.
func DrawSpeed(rng *rand.Rand) float64 {
	kmh := minSpeedKmh + rng.Float64()*(maxSpeedKmh-minSpeedKmh)
	return kmh / 3.6
}

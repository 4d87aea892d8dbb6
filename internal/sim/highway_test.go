package sim

import (
	"math/rand"
	"testing"

	"cocochain/internal/consensus"
)

// fiveAuthorities builds the standard five-post layout.
func fiveAuthorities() Highway {
	ids := []consensus.ParticipantID{1001, 1002, 1003, 1004, 1005}
	return NewHighway(ids, 0)
}

// TestNewHighway_PostPositions tests the even placement of five posts.
func TestNewHighway_PostPositions(t *testing.T) {
	h := fiveAuthorities()

	want := []float64{2000, 6000, 10000, 14000, 18000}
	for i, p := range h.Posts {
		if p.Position != want[i] {
			t.Errorf("post %d position: got %v, want %v", i, p.Position, want[i])
		}
	}
}

// TestNearestInRange tests coverage lookup inside and between cells.
func TestNearestInRange(t *testing.T) {
	h := fiveAuthorities()

	id, ok := h.NearestInRange(2500)
	if !ok || id != 1001 {
		t.Errorf("pos 2500: got (%d, %v), want (1001, true)", id, ok)
	}

	// 4000 m is 2 km from both neighbors, outside either coverage.
	if _, ok := h.NearestInRange(4000); ok {
		t.Error("coverage gap reported as covered")
	}

	id, ok = h.NearestInRange(17200)
	if !ok || id != 1005 {
		t.Errorf("pos 17200: got (%d, %v), want (1005, true)", id, ok)
	}
}

// TestHighway_LoopDistance tests that nearest lookup wraps around the
// road ends.
func TestHighway_LoopDistance(t *testing.T) {
	h := fiveAuthorities()

	// 19500 m is 2.5 km from post 1001 going through the wrap point,
	// but only 1.5 km from post 1005 the direct way.
	if id := h.Nearest(19500); id != 1005 {
		t.Errorf("nearest to 19500: got %d, want 1005", id)
	}

	if got := h.Wrap(20500); got != 500 {
		t.Errorf("wrap 20500: got %v, want 500", got)
	}

	if got := h.Wrap(-500); got != 19500 {
		t.Errorf("wrap -500: got %v, want 19500", got)
	}
}

// TestDrawSpeed tests the sampled speed range in m/s.
func TestDrawSpeed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	lo := minSpeedKmh / 3.6
	hi := maxSpeedKmh / 3.6

	for i := 0; i < 100; i++ {
		s := DrawSpeed(rng)
		if s < lo || s > hi {
			t.Fatalf("speed %v m/s outside [%v, %v]", s, lo, hi)
		}
	}
}

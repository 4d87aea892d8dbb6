package sim

import (
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
)

// Vehicle is one moving participant: a consensus engine plus a handover
// coordinator, with position and speed on the highway loop.
type Vehicle struct {
	ID          consensus.ParticipantID
	Engine      *consensus.Engine
	Coordinator *handover.Coordinator

	Position float64 // Position along the road in meters
	Speed    float64 // Speed in meters per second

	nextEmit time.Time // nextEmit is when the next transaction is due
}

// Move advances the vehicle by dt on the looped road.
func (v *Vehicle) Move(h *Highway, dt time.Duration) {
	v.Position = h.Wrap(v.Position + v.Speed*dt.Seconds())
}

// RoadsideUnit is a fixed authority: a handover evaluator at a position
// on the road.
type RoadsideUnit struct {
	ID       consensus.ParticipantID
	Handler  *handover.Authority
	Position float64
}

package handover

import (
	"errors"
	"sync"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/logger"
)

// ErrHandoverInProgress rejects a new request while one is in flight.
// The caller may retry after the current handover completes; requests
// are never queued.
var ErrHandoverInProgress = errors.New("handover already in progress")

// RequestSink forwards a handover request toward the target authority.
type RequestSink interface {
	SendHandoverRequest(ctx *Context)
}

// Coordinator is the vehicle-side handover state machine. It tracks
// the vehicle's current authority and at most one in-flight handover.
// An unanswered request stays in flight indefinitely; there is no
// timeout.
type Coordinator struct {
	vehicle consensus.ParticipantID
	clock   func() time.Time
	sink    RequestSink

	mu        sync.Mutex
	authority consensus.ParticipantID // authority currently responsible for the vehicle
	current   *Context                // current is the in-flight handover, nil when stable
}

// NewCoordinator creates a coordinator with the vehicle's initial
// authority.
func NewCoordinator(vehicle, authority consensus.ParticipantID, clock func() time.Time, sink RequestSink) *Coordinator {
	return &Coordinator{
		vehicle:   vehicle,
		clock:     clock,
		sink:      sink,
		authority: authority,
	}
}

// Authority returns the authority currently responsible for the
// vehicle.
func (c *Coordinator) Authority() consensus.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.authority
}

// InProgress reports whether a handover is awaiting its response.
func (c *Coordinator) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current != nil
}

// Request starts a handover to target, carrying the vehicle's pending
// transaction ids. Returns ErrHandoverInProgress if one is already in
// flight; the existing context is left untouched.
func (c *Coordinator) Request(target consensus.ParticipantID, pending []consensus.TxID) (*Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil, ErrHandoverInProgress
	}

	now := c.clock()
	ctx := &Context{
		Vehicle:    c.vehicle,
		Source:     c.authority,
		Target:     target,
		Timestamp:  now,
		PendingTxs: pending,
		Token:      NewToken(c.vehicle, c.authority, target, now),
		InProgress: true,
	}

	c.current = ctx
	c.sink.SendHandoverRequest(ctx)
	logger.Debug("handover requested",
		"vehicle", uint64(c.vehicle), "source", uint64(ctx.Source), "target", uint64(target))

	return ctx, nil
}

// Complete applies an authority's response. Ignored when no handover is
// in flight or when the responding authority is not the recorded
// target, which guards against stale and misrouted responses. Success
// moves the current-authority pointer to the target; failure only
// clears the in-flight state.
func (c *Coordinator) Complete(authority consensus.ParticipantID, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || authority != c.current.Target {
		return
	}

	if success {
		c.authority = c.current.Target
	}

	c.current.InProgress = false
	c.current = nil

	logger.Debug("handover completed",
		"vehicle", uint64(c.vehicle), "authority", uint64(authority), "success", success)
}

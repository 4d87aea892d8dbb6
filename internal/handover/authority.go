package handover

import (
	"math/rand"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/logger"
	"cocochain/internal/metrics"
)

// ProtocolHandover labels handover authentication latency samples.
const ProtocolHandover = "handover"

// DefaultRangeCheckProbability models the chance a requesting vehicle
// is actually inside the target's coverage when the request arrives.
const DefaultRangeCheckProbability = 0.95

// Modeled handover authentication cost per accepted request.
const (
	handoverAuthMin = 2 * time.Millisecond
	handoverAuthMax = 8 * time.Millisecond
)

// ResponseSink delivers a handover verdict back to the vehicle.
type ResponseSink interface {
	SendHandoverResponse(vehicle consensus.ParticipantID, success bool)
}

// Authority is the target-side handover evaluator.
type Authority struct {
	id        consensus.ParticipantID
	rangeProb float64
	rng       *rand.Rand
	rec       metrics.Recorder
	sink      ResponseSink
}

// NewAuthority creates an evaluator for the given authority id.
func NewAuthority(id consensus.ParticipantID, rangeProb float64, rng *rand.Rand, rec metrics.Recorder, sink ResponseSink) *Authority {
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &Authority{
		id:        id,
		rangeProb: rangeProb,
		rng:       rng,
		rec:       rec,
		sink:      sink,
	}
}

// HandleRequest evaluates one inbound handover request. Requests
// addressed to another authority are ignored without a response; a
// forged token is answered with failure. Otherwise the request is
// accepted iff the range check passes, the outcome is recorded and a
// response is sent. Accepted requests also emit the modeled
// authentication latency.
func (a *Authority) HandleRequest(ctx *Context) bool {
	if ctx.Target != a.id {
		return false
	}

	if !VerifyToken(ctx) {
		logger.Warn("handover token mismatch",
			"vehicle", uint64(ctx.Vehicle), "source", uint64(ctx.Source))
		a.rec.HandoverOutcome(false)
		a.sink.SendHandoverResponse(ctx.Vehicle, false)
		return false
	}

	success := a.rng.Float64() < a.rangeProb

	a.rec.HandoverOutcome(success)
	if success {
		a.rec.AuthLatency(ProtocolHandover, uniformDuration(a.rng, handoverAuthMin, handoverAuthMax))
	}

	a.sink.SendHandoverResponse(ctx.Vehicle, success)
	logger.Debug("handover evaluated",
		"vehicle", uint64(ctx.Vehicle), "target", uint64(a.id), "success", success)

	return success
}

// uniformDuration draws from U(lo, hi).
func uniformDuration(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	return lo + time.Duration(rng.Float64()*float64(hi-lo))
}

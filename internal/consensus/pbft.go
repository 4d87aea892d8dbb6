package consensus

// pbftAcceptProbability models a PBFT round reaching agreement.
const pbftAcceptProbability = 0.67

// pbftDecision is the comparison baseline: a probabilistic stand-in for
// a full PBFT exchange, not a real protocol. It accepts clean payloads
// with fixed probability and corrupted ones never. Reading ground truth
// is what makes it evaluation-only; the verdict must never drive
// finalization.
func (e *Engine) pbftDecision(tx *Transaction) bool {
	return e.deps.Rng.Float64() < pbftAcceptProbability && !e.isCorrupted(tx)
}

// isCorrupted resolves ground truth through the injected ledger when
// one is present. The wire codec strips the corruption flag, so the
// in-memory field is trusted only as a fallback for transactions that
// never crossed a codec.
func (e *Engine) isCorrupted(tx *Transaction) bool {
	if e.deps.GroundTruth != nil {
		return e.deps.GroundTruth(tx.ID)
	}

	return tx.Vector.Corrupted
}

// runPBFTBaseline produces the side-by-side PBFT signal for one inbound
// transaction: a modeled multi-round latency sample and a log line when
// the two protocols disagree.
func (e *Engine) runPBFTBaseline(tx *Transaction, semanticOK bool) {
	accepted := e.pbftDecision(tx)
	e.deps.Recorder.AuthLatency(ProtocolPBFT, uniformDuration(e.deps.Rng, pbftAuthMin, pbftAuthMax))

	if accepted != semanticOK {
		e.log.Debug("baseline disagreement",
			"tx", uint64(tx.ID), "pbft", accepted, "semantic", semanticOK)
	}
}

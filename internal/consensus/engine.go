package consensus

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"cocochain/internal/logger"
	"cocochain/internal/metrics"
	"cocochain/internal/semantic"
)

// Protocol labels for modeled authentication latency.
const (
	ProtocolCoCoChain = "cocochain"
	ProtocolPBFT      = "pbft"
)

// Modeled authentication cost per decision: a single digest check for
// the semantic protocol, a multi-round exchange for the PBFT baseline.
const (
	cocoAuthMin = 1 * time.Millisecond
	cocoAuthMax = 5 * time.Millisecond
	pbftAuthMin = 10 * time.Millisecond
	pbftAuthMax = 50 * time.Millisecond
)

// Sink receives the engine's outbound messages. Implementations decide
// addressing and delivery; the engine never sees the transport.
type Sink interface {
	// SendTransaction broadcasts a new transaction to all peers.
	SendTransaction(tx *Transaction)

	// SendVote broadcasts a vote to all peers.
	SendVote(msg *ConsensusMessage)
}

// Deps are the engine's injected collaborators.
type Deps struct {
	// Clock is the time source. The engine never reads wall-clock
	// time directly.
	Clock func() time.Time

	// Sink receives outbound messages.
	Sink Sink

	// Verifier checks inbound payloads.
	Verifier *semantic.Verifier

	// Recorder receives metric events. Nil means metrics.Nop.
	Recorder metrics.Recorder

	// Meter tracks confirmed-transaction throughput. Optional.
	Meter *metrics.Meter

	// Rng drives corruption draws and modeled latencies.
	Rng *rand.Rand

	// Adversaries is the fixed adversarial membership for the run.
	Adversaries AdversarySet

	// GroundTruth resolves the ground-truth corruption flag for a
	// transaction id. The flag never crosses the wire, so inbound
	// transactions always carry it cleared; the evaluation harness
	// injects its truth ledger here. Nil falls back to the in-memory
	// flag, which is only meaningful for locally built transactions.
	GroundTruth func(id TxID) bool

	// VerifyObserver, when set, sees every verification outcome. Used
	// by the evaluation harness for false-positive accounting; it is
	// the only place ground-truth flags may be read.
	VerifyObserver func(tx *Transaction, res semantic.Result)
}

// pendingTx is a transaction awaiting threshold votes.
type pendingTx struct {
	tx    *Transaction
	votes map[ParticipantID]bool // votes holds at most one verdict per voter
}

// Engine is one participant's consensus state machine. All handlers
// complete synchronously; the mutex only serializes callers, there is
// no internal parallelism.
type Engine struct {
	cfg  Config
	deps Deps

	mu        sync.Mutex
	counter   uint64 // counter feeds NewTxID for self-originated transactions
	pending   map[TxID]*pendingTx
	confirmed map[TxID]struct{}
	log       *slog.Logger
}

// New creates an engine for cfg.Self.
func New(cfg Config, deps Deps) *Engine {
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}

	return &Engine{
		cfg:       cfg,
		deps:      deps,
		pending:   make(map[TxID]*pendingTx),
		confirmed: make(map[TxID]struct{}),
		log:       logger.With("participant", uint64(cfg.Self)),
	}
}

// CreateTransaction builds, registers and broadcasts a new transaction.
// Adversarial participants corrupt the payload with the configured
// probability before attesting the digest, so the digest matches the
// corrupted data and only the statistical checks can catch it.
func (e *Engine) CreateTransaction() *Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counter++
	now := e.deps.Clock()

	v := semantic.Generate(uint64(e.cfg.Self), now, e.deps.Rng)
	if e.deps.Adversaries.Contains(e.cfg.Self) && e.deps.Rng.Float64() < e.cfg.CorruptionProbability {
		semantic.InjectMalformed(&v, e.deps.Rng)
	}

	tx := &Transaction{
		ID:         NewTxID(e.cfg.Self, e.counter),
		Originator: e.cfg.Self,
		Timestamp:  now,
		Vector:     v,
		Digest:     semantic.Digest(&v),
	}

	// The originator tracks its own transaction as pending so inbound
	// votes can confirm it; it casts no vote itself.
	e.assertDisjoint(tx.ID)
	e.pending[tx.ID] = &pendingTx{
		tx:    tx,
		votes: make(map[ParticipantID]bool),
	}

	e.deps.Sink.SendTransaction(tx)
	e.log.Debug("transaction sent", "tx", uint64(tx.ID), "corrupted", v.Corrupted)

	return tx
}

// HandleTransaction processes an inbound transaction: drop own echoes
// and expired payloads, verify, then either register it as pending and
// broadcast an accepting vote or record the detection and stop.
func (e *Engine) HandleTransaction(tx *Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deps.Recorder.ConsensusOverhead()

	if tx.Originator == e.cfg.Self {
		return
	}

	now := e.deps.Clock()
	if age := now.Sub(tx.Timestamp); age > e.cfg.MaxTxAge {
		e.log.Debug("transaction expired", "tx", uint64(tx.ID), "age", age)
		return
	}

	e.assertDisjoint(tx.ID)

	// Duplicate delivery of a known or decided transaction is a no-op.
	if _, ok := e.pending[tx.ID]; ok {
		return
	}
	if _, ok := e.confirmed[tx.ID]; ok {
		return
	}

	res := e.deps.Verifier.Verify(&tx.Vector, tx.Digest)
	if e.deps.VerifyObserver != nil {
		e.deps.VerifyObserver(tx, res)
	}

	e.recordAuthLatency()
	if e.cfg.PBFTComparison {
		e.runPBFTBaseline(tx, res.OK)
	}

	if !res.OK {
		e.deps.Recorder.MalformedDetected()
		e.log.Debug("transaction rejected by verification",
			"tx", uint64(tx.ID), "stage", res.Stage.String())
		return
	}

	e.pending[tx.ID] = &pendingTx{
		tx:    tx,
		votes: make(map[ParticipantID]bool),
	}

	e.deps.Sink.SendVote(&ConsensusMessage{
		TxID:      tx.ID,
		Voter:     e.cfg.Self,
		Accept:    true,
		Timestamp: now,
		Digest:    tx.Digest,
	})
}

// HandleVote tallies an inbound vote. Votes for unknown or decided
// transactions are ignored; a voter's second vote on the same
// transaction never shifts the tally.
func (e *Engine) HandleVote(msg *ConsensusMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deps.Recorder.ConsensusOverhead()
	e.assertDisjoint(msg.TxID)

	p, ok := e.pending[msg.TxID]
	if !ok {
		return
	}

	if _, dup := p.votes[msg.Voter]; dup {
		return
	}
	p.votes[msg.Voter] = msg.Accept

	required := e.requiredVotes()

	positive := 0
	for _, accept := range p.votes {
		if accept {
			positive++
		}
	}

	if len(p.votes) < required {
		return
	}

	if positive >= required {
		e.finalize(p.tx)
	} else {
		e.reject(p.tx)
	}
}

// requiredVotes is the decision threshold: ceil(estimatedPeers × ratio).
func (e *Engine) requiredVotes() int {
	return int(math.Ceil(float64(e.cfg.EstimatedPeers) * e.cfg.BFTThreshold))
}

// finalize confirms a transaction. Idempotent: a second call for the
// same id changes nothing and emits no metric. The end-to-end latency
// is emitted only by the originator.
func (e *Engine) finalize(tx *Transaction) {
	if _, ok := e.confirmed[tx.ID]; ok {
		delete(e.pending, tx.ID)
		return
	}

	delete(e.pending, tx.ID)
	e.confirmed[tx.ID] = struct{}{}

	if tx.Originator == e.cfg.Self {
		e.deps.Recorder.EndToEndLatency(e.deps.Clock().Sub(tx.Timestamp))
	}

	if e.deps.Meter != nil {
		e.deps.Meter.Confirmed()
	}

	e.log.Debug("transaction confirmed", "tx", uint64(tx.ID))
}

// reject drops a transaction that failed the vote threshold, discarding
// its vote history.
func (e *Engine) reject(tx *Transaction) {
	delete(e.pending, tx.ID)
	e.log.Debug("transaction rejected by vote", "tx", uint64(tx.ID))
}

// recordAuthLatency emits the modeled authentication cost for one
// consensus decision.
func (e *Engine) recordAuthLatency() {
	if e.cfg.UsePBFT {
		e.deps.Recorder.AuthLatency(ProtocolPBFT, uniformDuration(e.deps.Rng, pbftAuthMin, pbftAuthMax))
		return
	}

	e.deps.Recorder.AuthLatency(ProtocolCoCoChain, uniformDuration(e.deps.Rng, cocoAuthMin, cocoAuthMax))
}

// assertDisjoint panics if id is simultaneously pending and confirmed.
// That state is unreachable by construction; reaching it is a logic
// defect, not a recoverable anomaly.
func (e *Engine) assertDisjoint(id TxID) {
	_, p := e.pending[id]
	_, c := e.confirmed[id]

	if p && c {
		panic(fmt.Sprintf("transaction %d is both pending and confirmed", id))
	}
}

// PendingCount returns the number of undecided transactions.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.pending)
}

// ConfirmedCount returns the number of confirmed transactions.
func (e *Engine) ConfirmedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.confirmed)
}

// IsConfirmed reports whether id has been finalized.
func (e *Engine) IsConfirmed(id TxID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.confirmed[id]
	return ok
}

// PendingIDs returns the ids of all undecided transactions, for
// handover context transfer.
func (e *Engine) PendingIDs() []TxID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]TxID, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}

	return ids
}

// uniformDuration draws from U(lo, hi).
func uniformDuration(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	return lo + time.Duration(rng.Float64()*float64(hi-lo))
}

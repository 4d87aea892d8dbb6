package consensus

import (
	"math/rand"
	"testing"
	"time"

	"cocochain/internal/metrics"
	"cocochain/internal/semantic"
)

// testClock is a manually advanced time source.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// testSink records outbound messages.
type testSink struct {
	txs   []*Transaction
	votes []*ConsensusMessage
}

func (s *testSink) SendTransaction(tx *Transaction) {
	s.txs = append(s.txs, tx)
}

func (s *testSink) SendVote(msg *ConsensusMessage) {
	s.votes = append(s.votes, msg)
}

// testRecorder counts the metric events the engine emits.
type testRecorder struct {
	metrics.Nop
	latencies []time.Duration
	overhead  int
	malformed int
	authProto []string
	authDur   []time.Duration
}

func (r *testRecorder) EndToEndLatency(d time.Duration) {
	r.latencies = append(r.latencies, d)
}

func (r *testRecorder) ConsensusOverhead() {
	r.overhead++
}

func (r *testRecorder) MalformedDetected() {
	r.malformed++
}

func (r *testRecorder) AuthLatency(protocol string, d time.Duration) {
	r.authProto = append(r.authProto, protocol)
	r.authDur = append(r.authDur, d)
}

// testEngine bundles an engine with its observable collaborators.
type testEngine struct {
	engine *Engine
	clock  *testClock
	sink   *testSink
	rec    *testRecorder
}

// newTestEngine creates an engine for participant 1 with 4 estimated
// peers, so 3 votes decide a transaction.
func newTestEngine(t *testing.T, mod func(*Config, *Deps)) *testEngine {
	t.Helper()

	clock := &testClock{now: time.Unix(1000, 0)}
	sink := &testSink{}
	rec := &testRecorder{}
	rng := rand.New(rand.NewSource(42))

	cfg := DefaultConfig(1)

	deps := Deps{
		Clock:       clock.Now,
		Sink:        sink,
		Verifier:    semantic.NewVerifier(semantic.DefaultConfig(), rng),
		Recorder:    rec,
		Rng:         rng,
		Adversaries: NewAdversarySet(),
	}

	if mod != nil {
		mod(&cfg, &deps)
	}

	return &testEngine{
		engine: New(cfg, deps),
		clock:  clock,
		sink:   sink,
		rec:    rec,
	}
}

// peerTransaction builds a clean transaction from another participant.
// The payload is low-salience and low-variance so verification passes
// deterministically, independent of the similarity-stage reference.
func peerTransaction(originator ParticipantID, counter uint64, now time.Time) *Transaction {
	var v semantic.Vector
	copy(v.Data[:], []float64{0.1, -0.2, 0.3, 0.1, -0.1, 0.2, -0.3, 0.1, 0.0, -0.2})
	v.Data[0] += float64(counter) * 0.01
	v.Owner = uint64(originator)
	v.Timestamp = now

	return &Transaction{
		ID:         NewTxID(originator, counter),
		Originator: originator,
		Timestamp:  now,
		Vector:     v,
		Digest:     semantic.Digest(&v),
	}
}

// vote builds a ballot for tx.
func vote(tx *Transaction, voter ParticipantID, accept bool, now time.Time) *ConsensusMessage {
	return &ConsensusMessage{
		TxID:      tx.ID,
		Voter:     voter,
		Accept:    accept,
		Timestamp: now,
		Digest:    tx.Digest,
	}
}

// TestNewTxID tests the originator/counter packing.
func TestNewTxID(t *testing.T) {
	if id := NewTxID(3, 7); id != 3_000_007 {
		t.Fatalf("expected 3000007, got %d", id)
	}

	if id := NewTxID(0, 1); id != 1 {
		t.Fatalf("expected 1, got %d", id)
	}
}

// TestCreateTransaction_TracksAndBroadcasts tests local registration
// and broadcast of a self-originated transaction.
func TestCreateTransaction_TracksAndBroadcasts(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()

	if tx.ID != NewTxID(1, 1) {
		t.Fatalf("expected id %d, got %d", NewTxID(1, 1), tx.ID)
	}

	if tx.Digest != semantic.Digest(&tx.Vector) {
		t.Fatal("attested digest does not match payload")
	}

	if len(te.sink.txs) != 1 || te.sink.txs[0] != tx {
		t.Fatalf("expected 1 broadcast transaction, got %d", len(te.sink.txs))
	}

	if te.engine.PendingCount() != 1 {
		t.Fatalf("expected 1 pending, got %d", te.engine.PendingCount())
	}

	// The originator casts no vote on its own transaction.
	if len(te.sink.votes) != 0 {
		t.Fatalf("expected no votes, got %d", len(te.sink.votes))
	}
}

// TestCreateTransaction_AdversaryCorrupts tests that an adversarial
// originator corrupts the payload before attesting the digest.
func TestCreateTransaction_AdversaryCorrupts(t *testing.T) {
	te := newTestEngine(t, func(cfg *Config, deps *Deps) {
		cfg.CorruptionProbability = 1.0
		deps.Adversaries = NewAdversarySet(1)
	})

	tx := te.engine.CreateTransaction()

	if !tx.Vector.Corrupted {
		t.Fatal("adversarial payload not corrupted")
	}

	// Digest is computed after corruption, so it matches the data and
	// only the statistical checks can flag the transaction.
	if tx.Digest != semantic.Digest(&tx.Vector) {
		t.Fatal("digest does not cover the corrupted payload")
	}
}

// TestHandleTransaction_IgnoresSelf tests that own broadcast echoes are
// dropped without voting.
func TestHandleTransaction_IgnoresSelf(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()
	te.engine.HandleTransaction(tx)

	if len(te.sink.votes) != 0 {
		t.Fatalf("voted on own transaction: %d votes", len(te.sink.votes))
	}

	if te.rec.overhead != 1 {
		t.Fatalf("expected 1 overhead event, got %d", te.rec.overhead)
	}
}

// TestHandleTransaction_DropsExpired tests the max-age bound.
func TestHandleTransaction_DropsExpired(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := peerTransaction(2, 1, te.clock.Now())
	te.clock.advance(DefaultMaxTxAge + time.Second)

	te.engine.HandleTransaction(tx)

	if te.engine.PendingCount() != 0 || len(te.sink.votes) != 0 {
		t.Fatal("expired transaction was processed")
	}

	if te.rec.malformed != 0 {
		t.Fatal("expired transaction counted as malformed")
	}
}

// TestHandleTransaction_AcceptsAndVotes tests the happy path for an
// inbound clean transaction.
func TestHandleTransaction_AcceptsAndVotes(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := peerTransaction(2, 1, te.clock.Now())
	te.engine.HandleTransaction(tx)

	if te.engine.PendingCount() != 1 {
		t.Fatalf("expected 1 pending, got %d", te.engine.PendingCount())
	}

	if len(te.sink.votes) != 1 {
		t.Fatalf("expected 1 vote, got %d", len(te.sink.votes))
	}

	v := te.sink.votes[0]
	if v.TxID != tx.ID || v.Voter != 1 || !v.Accept {
		t.Fatalf("unexpected vote: %+v", v)
	}
}

// TestHandleTransaction_MalformedNeverPending tests that a failed
// verification records the detection and keeps the transaction out of
// consensus.
func TestHandleTransaction_MalformedNeverPending(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := peerTransaction(2, 1, te.clock.Now())
	tx.Vector.Data[0] += 1.0 // break the attested digest

	te.engine.HandleTransaction(tx)

	if te.rec.malformed != 1 {
		t.Fatalf("expected 1 malformed detection, got %d", te.rec.malformed)
	}

	if te.engine.PendingCount() != 0 || len(te.sink.votes) != 0 {
		t.Fatal("malformed transaction entered consensus")
	}
}

// TestHandleTransaction_DuplicateDelivery tests that redelivering a
// pending transaction does not produce a second vote.
func TestHandleTransaction_DuplicateDelivery(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := peerTransaction(2, 1, te.clock.Now())
	te.engine.HandleTransaction(tx)
	te.engine.HandleTransaction(tx)

	if len(te.sink.votes) != 1 {
		t.Fatalf("expected 1 vote, got %d", len(te.sink.votes))
	}

	if te.rec.overhead != 2 {
		t.Fatalf("expected 2 overhead events, got %d", te.rec.overhead)
	}
}

// TestHandleVote_ThresholdConfirms tests finalization once the positive
// tally reaches ceil(peers × threshold), and the originator-side
// latency emission.
func TestHandleVote_ThresholdConfirms(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()
	te.clock.advance(10 * time.Millisecond)

	// 4 estimated peers × 0.67 requires 3 votes.
	for _, voter := range []ParticipantID{2, 3} {
		te.engine.HandleVote(vote(tx, voter, true, te.clock.Now()))
		if te.engine.IsConfirmed(tx.ID) {
			t.Fatalf("confirmed early after vote from %d", voter)
		}
	}

	te.engine.HandleVote(vote(tx, 4, true, te.clock.Now()))

	if !te.engine.IsConfirmed(tx.ID) {
		t.Fatal("transaction not confirmed at threshold")
	}

	if te.engine.PendingCount() != 0 {
		t.Fatalf("expected 0 pending after confirmation, got %d", te.engine.PendingCount())
	}

	if len(te.rec.latencies) != 1 || te.rec.latencies[0] != 10*time.Millisecond {
		t.Fatalf("expected one 10ms latency sample, got %v", te.rec.latencies)
	}
}

// TestHandleVote_DuplicatesDoNotShiftTally tests that replayed votes
// from one voter count once.
func TestHandleVote_DuplicatesDoNotShiftTally(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()

	v := vote(tx, 2, true, te.clock.Now())
	te.engine.HandleVote(v)
	te.engine.HandleVote(v)
	te.engine.HandleVote(v)

	if te.engine.IsConfirmed(tx.ID) {
		t.Fatal("duplicate votes confirmed the transaction")
	}

	// A contradictory replay must not flip the recorded verdict.
	te.engine.HandleVote(vote(tx, 2, false, te.clock.Now()))
	te.engine.HandleVote(vote(tx, 3, true, te.clock.Now()))
	te.engine.HandleVote(vote(tx, 4, true, te.clock.Now()))

	if !te.engine.IsConfirmed(tx.ID) {
		t.Fatal("distinct-voter tally did not confirm")
	}
}

// TestHandleVote_RejectsOnNegativeMajority tests rejection when the
// total reaches the threshold but the positive count does not.
func TestHandleVote_RejectsOnNegativeMajority(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()

	te.engine.HandleVote(vote(tx, 2, false, te.clock.Now()))
	te.engine.HandleVote(vote(tx, 3, false, te.clock.Now()))
	te.engine.HandleVote(vote(tx, 4, true, te.clock.Now()))

	if te.engine.IsConfirmed(tx.ID) {
		t.Fatal("rejected transaction was confirmed")
	}

	if te.engine.PendingCount() != 0 {
		t.Fatal("rejected transaction still pending")
	}

	if len(te.rec.latencies) != 0 {
		t.Fatalf("rejection emitted latency: %v", te.rec.latencies)
	}
}

// TestHandleVote_TerminalIgnored tests that votes after a decision and
// votes for unknown transactions are dropped, and the latency metric is
// emitted at most once.
func TestHandleVote_TerminalIgnored(t *testing.T) {
	te := newTestEngine(t, nil)

	tx := te.engine.CreateTransaction()
	for _, voter := range []ParticipantID{2, 3, 4} {
		te.engine.HandleVote(vote(tx, voter, true, te.clock.Now()))
	}

	// Late and repeated votes for the decided transaction.
	te.engine.HandleVote(vote(tx, 5, true, te.clock.Now()))
	te.engine.HandleVote(vote(tx, 2, true, te.clock.Now()))

	if len(te.rec.latencies) != 1 {
		t.Fatalf("expected one latency sample, got %d", len(te.rec.latencies))
	}

	// Votes for a transaction this engine never saw.
	unknown := peerTransaction(9, 1, te.clock.Now())
	te.engine.HandleVote(vote(unknown, 2, true, te.clock.Now()))

	if te.engine.IsConfirmed(unknown.ID) || te.engine.PendingCount() != 0 {
		t.Fatal("vote for unknown transaction changed state")
	}
}

// TestAuthLatency_Ranges tests the modeled per-protocol decision cost.
func TestAuthLatency_Ranges(t *testing.T) {
	te := newTestEngine(t, nil)
	te.engine.HandleTransaction(peerTransaction(2, 1, te.clock.Now()))

	if len(te.rec.authDur) != 1 || te.rec.authProto[0] != ProtocolCoCoChain {
		t.Fatalf("expected one cocochain sample, got %v", te.rec.authProto)
	}
	if d := te.rec.authDur[0]; d < cocoAuthMin || d > cocoAuthMax {
		t.Fatalf("cocochain latency %v outside [%v, %v]", d, cocoAuthMin, cocoAuthMax)
	}

	pb := newTestEngine(t, func(cfg *Config, deps *Deps) {
		cfg.UsePBFT = true
	})
	pb.engine.HandleTransaction(peerTransaction(2, 1, pb.clock.Now()))

	if len(pb.rec.authDur) != 1 || pb.rec.authProto[0] != ProtocolPBFT {
		t.Fatalf("expected one pbft sample, got %v", pb.rec.authProto)
	}
	if d := pb.rec.authDur[0]; d < pbftAuthMin || d > pbftAuthMax {
		t.Fatalf("pbft latency %v outside [%v, %v]", d, pbftAuthMin, pbftAuthMax)
	}
}

// TestVerifyObserver_SeesOutcomes tests the evaluation hook.
func TestVerifyObserver_SeesOutcomes(t *testing.T) {
	var seen []semantic.Result

	te := newTestEngine(t, func(cfg *Config, deps *Deps) {
		deps.VerifyObserver = func(tx *Transaction, res semantic.Result) {
			seen = append(seen, res)
		}
	})

	clean := peerTransaction(2, 1, te.clock.Now())
	te.engine.HandleTransaction(clean)

	broken := peerTransaction(2, 2, te.clock.Now())
	broken.Vector.Data[0] += 1.0
	te.engine.HandleTransaction(broken)

	if len(seen) != 2 {
		t.Fatalf("expected 2 observed verifications, got %d", len(seen))
	}

	if !seen[0].OK || seen[1].OK {
		t.Fatalf("unexpected outcomes: %+v", seen)
	}
}

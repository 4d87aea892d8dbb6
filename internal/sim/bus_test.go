package sim

import (
	"math/rand"
	"testing"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/semantic"
)

// lowVarianceDims is a payload that passes the variance check and
// skips the salience stage, so verification is deterministic.
var lowVarianceDims = [semantic.Dims]float64{0.1, -0.2, 0.3, 0.1, -0.1, 0.2, -0.3, 0.1, 0.0, -0.2}

// busFixture is a three-vehicle, one-authority world wired to one bus.
type busFixture struct {
	bus      *Bus
	clock    *VirtualClock
	tally    *Tally
	vehicles []*Vehicle
}

// newBusFixture builds the fixture. The vote threshold is two of two
// estimated peers; the statistical stages are relaxed so clean payloads
// are accepted deterministically.
func newBusFixture(t *testing.T) *busFixture {
	t.Helper()

	f := &busFixture{
		bus:   NewBus(),
		clock: NewVirtualClock(time.Unix(3000, 0)),
		tally: NewTally(),
	}

	vcfg := semantic.Config{Enabled: true, VarianceLimit: 1000, CosineThreshold: -1}

	for i := 1; i <= 3; i++ {
		id := consensus.ParticipantID(i)
		port := f.bus.Port(id)
		rng := rand.New(rand.NewSource(int64(i)))

		cfg := consensus.DefaultConfig(id)
		cfg.EstimatedPeers = 2

		v := &Vehicle{ID: id}
		v.Engine = consensus.New(cfg, consensus.Deps{
			Clock:    f.clock.Now,
			Sink:     port,
			Verifier: semantic.NewVerifier(vcfg, rng),
			Recorder: f.tally,
			Rng:      rng,
		})
		v.Coordinator = handover.NewCoordinator(id, 1001, f.clock.Now, port)

		f.vehicles = append(f.vehicles, v)
		f.bus.AddVehicle(v)
	}

	unit := &RoadsideUnit{
		ID:       1002,
		Position: 6000,
		Handler: handover.NewAuthority(1002, 1.0,
			rand.New(rand.NewSource(99)), f.tally, f.bus.Port(1002)),
	}
	f.bus.AddAuthority(unit)

	return f
}

// ghostTransaction builds a transaction from an originator outside the
// fixture, so every vehicle receives and judges it.
func ghostTransaction(now time.Time, corrupted bool) *consensus.Transaction {
	v := semantic.Vector{
		Data:      lowVarianceDims,
		Owner:     999,
		Timestamp: now,
		Corrupted: corrupted,
	}

	return &consensus.Transaction{
		ID:         consensus.NewTxID(999, 1),
		Originator: 999,
		Timestamp:  now,
		Vector:     v,
		Digest:     semantic.Digest(&v),
	}
}

// TestBus_CleanTransactionReachesConsensus tests that one broadcast
// transaction is verified, voted on and confirmed by every vehicle in
// arrival order within a single drain.
func TestBus_CleanTransactionReachesConsensus(t *testing.T) {
	f := newBusFixture(t)

	tx := ghostTransaction(f.clock.Now(), false)
	f.bus.BroadcastTransaction(tx.Originator, tx)
	f.bus.Drain()

	for _, v := range f.vehicles {
		if !v.Engine.IsConfirmed(tx.ID) {
			t.Errorf("vehicle %d did not confirm %d", v.ID, tx.ID)
		}
	}
}

// TestBus_GroundTruthStaysOffTheWire tests that the bus ledger keeps
// the corruption flag while the delivered payloads do not carry it.
func TestBus_GroundTruthStaysOffTheWire(t *testing.T) {
	f := newBusFixture(t)

	tx := ghostTransaction(f.clock.Now(), true)
	f.bus.BroadcastTransaction(tx.Originator, tx)
	f.bus.Drain()

	if !f.bus.Corrupted(tx.ID) {
		t.Error("bus ledger lost the ground truth")
	}

	// The payload is statistically clean, so despite being flagged at
	// the source every receiver accepted it: the flag did not travel.
	for _, v := range f.vehicles {
		if !v.Engine.IsConfirmed(tx.ID) {
			t.Errorf("vehicle %d rejected a payload that should verify", v.ID)
		}
	}
}

// TestBus_SenderDoesNotEchoToItself tests the from-filter on broadcast.
func TestBus_SenderDoesNotEchoToItself(t *testing.T) {
	f := newBusFixture(t)

	origin := f.vehicles[0]
	tx := origin.Engine.CreateTransaction()
	f.bus.Drain()

	// The other two vehicles voted; with a threshold of two the
	// originator confirms. Its own engine never saw the echo, which
	// would have been dropped as a self-transaction anyway.
	if !origin.Engine.IsConfirmed(tx.ID) {
		t.Error("originator did not confirm its own transaction")
	}

	// Each receiver only ever sees the one vote cast by the other
	// receiver, so the transaction stays pending on their side.
	for _, v := range f.vehicles[1:] {
		if v.Engine.IsConfirmed(tx.ID) {
			t.Errorf("vehicle %d confirmed below the vote threshold", v.ID)
		}

		if got := v.Engine.PendingCount(); got != 1 {
			t.Errorf("vehicle %d: expected 1 pending, got %d", v.ID, got)
		}
	}
}

// TestBus_HandoverRoundTrip tests request routing to the authority and
// verdict routing back to the requesting vehicle only.
func TestBus_HandoverRoundTrip(t *testing.T) {
	f := newBusFixture(t)

	mover := f.vehicles[0]
	bystander := f.vehicles[1]

	if _, err := mover.Coordinator.Request(1002, nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	f.bus.Drain()

	if got := mover.Coordinator.Authority(); got != 1002 {
		t.Errorf("mover authority: got %d, want 1002", got)
	}

	if got := bystander.Coordinator.Authority(); got != 1001 {
		t.Errorf("bystander authority: got %d, want 1001", got)
	}

	if mover.Coordinator.InProgress() {
		t.Error("handover still marked in flight after verdict")
	}
}

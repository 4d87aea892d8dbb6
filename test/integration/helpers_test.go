// Package integration runs small clusters of in-process participants
// over the real QUIC transport and wire codec.
package integration

import (
	"crypto/ed25519"
	"crypto/rand"
	mrand "math/rand"
	"testing"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/network"
	"cocochain/internal/semantic"
	"cocochain/internal/sim"
	"cocochain/internal/wire"
)

// relaxedVerifier disables the statistical stages so consensus
// mechanics can be tested deterministically; the digest check stays on.
var relaxedVerifier = semantic.Config{Enabled: true, VarianceLimit: 1000, CosineThreshold: -1}

// participant is one in-process node: a QUIC transport wired to the
// protocol components its role needs.
type participant struct {
	id          consensus.ParticipantID
	net         *network.Node
	engine      *consensus.Engine
	coordinator *handover.Coordinator
	authority   *handover.Authority
	tally       *sim.Tally
}

// broadcastSink sends protocol messages as wire envelopes over QUIC,
// the same way the node binary does.
type broadcastSink struct {
	net  *network.Node
	self consensus.ParticipantID
}

// SendTransaction broadcasts a transaction.
func (s *broadcastSink) SendTransaction(tx *consensus.Transaction) {
	s.net.Broadcast(wire.EncodeTransaction(tx))
}

// SendVote broadcasts a vote.
func (s *broadcastSink) SendVote(msg *consensus.ConsensusMessage) {
	s.net.Broadcast(wire.EncodeVote(msg))
}

// SendHandoverRequest broadcasts a handover request.
func (s *broadcastSink) SendHandoverRequest(ctx *handover.Context) {
	s.net.Broadcast(wire.EncodeHandoverRequest(ctx))
}

// SendHandoverResponse broadcasts a handover verdict; vehicles filter
// by the addressed id.
func (s *broadcastSink) SendHandoverResponse(vehicle consensus.ParticipantID, success bool) {
	s.net.Broadcast(wire.EncodeHandoverResponse(&wire.HandoverVerdict{
		Vehicle:   vehicle,
		Authority: s.self,
		Success:   success,
	}))
}

// startTransport creates and starts a QUIC node on a loopback port.
func startTransport(t *testing.T) *network.Node {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	node, err := network.NewNode(network.Config{
		PrivateKey: key,
		ListenAddr: "127.0.0.1:0",
	})
	if err != nil {
		t.Fatalf("create network node: %v", err)
	}

	if err := node.Start(); err != nil {
		t.Fatalf("start network node: %v", err)
	}

	t.Cleanup(func() { node.Close() })

	return node
}

// startVehicle spins up a vehicle participant with the given verifier
// configuration and vote threshold sizing.
func startVehicle(t *testing.T, id consensus.ParticipantID, estimatedPeers int, vcfg semantic.Config, initialAuthority consensus.ParticipantID) *participant {
	t.Helper()

	p := &participant{
		id:    id,
		net:   startTransport(t),
		tally: sim.NewTally(),
	}

	sink := &broadcastSink{net: p.net, self: id}
	rng := mrand.New(mrand.NewSource(int64(id)))

	cfg := consensus.DefaultConfig(id)
	cfg.EstimatedPeers = estimatedPeers

	p.engine = consensus.New(cfg, consensus.Deps{
		Clock:    time.Now,
		Sink:     sink,
		Verifier: semantic.NewVerifier(vcfg, rng),
		Recorder: p.tally,
		Rng:      rng,
	})
	p.coordinator = handover.NewCoordinator(id, initialAuthority, time.Now, sink)

	p.net.OnMessage(p.route)

	return p
}

// startAuthority spins up a roadside authority participant.
func startAuthority(t *testing.T, id consensus.ParticipantID, rangeProb float64) *participant {
	t.Helper()

	p := &participant{
		id:    id,
		net:   startTransport(t),
		tally: sim.NewTally(),
	}

	sink := &broadcastSink{net: p.net, self: id}
	p.authority = handover.NewAuthority(id, rangeProb,
		mrand.New(mrand.NewSource(int64(id))), p.tally, sink)

	p.net.OnMessage(p.route)

	return p
}

// route dispatches one inbound envelope to the participant's
// components, mirroring the node binary's handler.
func (p *participant) route(_ *network.Peer, data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		return
	}

	switch {
	case msg.Transaction != nil && p.engine != nil:
		p.engine.HandleTransaction(msg.Transaction)

	case msg.Vote != nil && p.engine != nil:
		p.engine.HandleVote(msg.Vote)

	case msg.HandoverRequest != nil && p.authority != nil:
		p.authority.HandleRequest(msg.HandoverRequest)

	case msg.HandoverResponse != nil && p.coordinator != nil:
		if msg.HandoverResponse.Vehicle == p.id {
			p.coordinator.Complete(msg.HandoverResponse.Authority, msg.HandoverResponse.Success)
		}
	}
}

// mesh connects every participant to every other and waits until all
// links are up in both directions.
func mesh(t *testing.T, ps ...*participant) {
	t.Helper()

	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			if _, err := ps[i].net.Connect(ps[j].net.Addr()); err != nil {
				t.Fatalf("connect %d to %d: %v", ps[i].id, ps[j].id, err)
			}
		}
	}

	for _, p := range ps {
		waitFor(t, 5*time.Second, func() bool {
			return len(p.net.Peers()) == len(ps)-1
		}, "participant %d never saw the full mesh", uint64(p.id))
	}
}

// newSeededRng builds a deterministic random source for one
// participant.
func newSeededRng(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, format string, args ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf(format, args...)
		}

		time.Sleep(10 * time.Millisecond)
	}
}

// ghostTransaction builds a transaction from an originator that is not
// part of the cluster, with an attested digest over the given payload.
func ghostTransaction(dims [semantic.Dims]float64) *consensus.Transaction {
	now := time.Now()

	v := semantic.Vector{
		Data:      dims,
		Owner:     999,
		Timestamp: now,
	}

	return &consensus.Transaction{
		ID:         consensus.NewTxID(999, 1),
		Originator: 999,
		Timestamp:  now,
		Vector:     v,
		Digest:     semantic.Digest(&v),
	}
}

package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cocochain/internal/api"
	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/logger"
	"cocochain/internal/metrics"
	"cocochain/internal/network"
	"cocochain/internal/semantic"
	"cocochain/internal/storage"
	"cocochain/internal/wire"
)

// Node is a running participant: the QUIC transport plus either a
// vehicle (engine + handover coordinator) or an authority (handover
// evaluator), with metrics and the HTTP API on top.
type Node struct {
	cfg *Config

	db       *storage.Store
	prom     *metrics.Prom
	recorder metrics.Recorder
	meter    *metrics.Meter

	network     *network.Node
	engine      *consensus.Engine
	coordinator *handover.Coordinator
	authority   *handover.Authority
	api         *api.Server

	jitterRng *rand.Rand // jitterRng drives the emission schedule only

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewNode creates and initializes a new node.
func NewNode(cfg *Config) (*Node, error) {
	n := &Node{
		cfg:  cfg,
		stop: make(chan struct{}),
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	n.jitterRng = rand.New(rand.NewSource(seed))

	if err := n.initMetrics(); err != nil {
		return nil, err
	}

	if err := n.initNetwork(); err != nil {
		n.Close()
		return nil, err
	}

	switch cfg.Role {
	case RoleVehicle:
		n.initVehicle(seed)
	case RoleAuthority:
		n.initAuthority(seed)
	}

	return n, nil
}

// initMetrics initializes the Prometheus recorder, the optional
// persistent sample log and the throughput meter.
func (n *Node) initMetrics() error {
	n.prom = metrics.NewProm()
	n.recorder = n.prom

	if n.cfg.DataPath != "" {
		if err := os.MkdirAll(n.cfg.DataPath, 0755); err != nil {
			return fmt.Errorf("create data directory:\n%w", err)
		}

		db, err := storage.Open(n.cfg.DataPath + "/db")
		if err != nil {
			return fmt.Errorf("init storage:\n%w", err)
		}

		n.db = db
		n.recorder = metrics.Multi{n.prom, metrics.NewStore(db, time.Now)}
	}

	n.meter = metrics.NewMeter(n.recorder, time.Now)

	return nil
}

// initNetwork initializes the P2P network node.
func (n *Node) initNetwork() error {
	node, err := network.NewNode(network.Config{
		PrivateKey: n.cfg.PrivateKey,
		ListenAddr: n.cfg.QUICAddress,
	})
	if err != nil {
		return fmt.Errorf("init network:\n%w", err)
	}

	n.network = node

	return nil
}

// initVehicle wires the consensus engine and the handover coordinator.
func (n *Node) initVehicle(seed int64) {
	self := consensus.ParticipantID(n.cfg.ID)

	ecfg := consensus.Config{
		Self:                  self,
		EstimatedPeers:        n.cfg.EstimatedPeers,
		BFTThreshold:          n.cfg.BFTThreshold,
		MaxTxAge:              n.cfg.MaxTxAge,
		CorruptionProbability: n.cfg.CorruptionProbability,
		UsePBFT:               n.cfg.UsePBFT,
		PBFTComparison:        n.cfg.PBFTComparison,
	}

	adversaries := consensus.AdversarySet{}
	if n.cfg.Adversary {
		adversaries = consensus.NewAdversarySet(self)
	}

	vcfg := semantic.Config{
		Enabled:         n.cfg.Verify,
		VarianceLimit:   n.cfg.VarianceLimit,
		CosineThreshold: n.cfg.CosineThreshold,
	}

	sink := &netSink{network: n.network, self: self}
	engineRng := rand.New(rand.NewSource(seed + 1))

	n.engine = consensus.New(ecfg, consensus.Deps{
		Clock:       time.Now,
		Sink:        sink,
		Verifier:    semantic.NewVerifier(vcfg, engineRng),
		Recorder:    n.recorder,
		Meter:       n.meter,
		Rng:         engineRng,
		Adversaries: adversaries,
	})

	n.coordinator = handover.NewCoordinator(self,
		consensus.ParticipantID(n.cfg.InitialAuthority), time.Now, sink)
}

// initAuthority wires the handover evaluator.
func (n *Node) initAuthority(seed int64) {
	self := consensus.ParticipantID(n.cfg.ID)
	n.authority = handover.NewAuthority(self, n.cfg.RangeProbability,
		rand.New(rand.NewSource(seed+2)), n.recorder,
		&netSink{network: n.network, self: self})
}

// Run starts the node and blocks until a shutdown signal.
func (n *Node) Run() error {
	n.network.OnMessage(n.handleMessage)

	if err := n.network.Start(); err != nil {
		return fmt.Errorf("start network:\n%w", err)
	}

	n.connectPeers()

	n.api = api.New(n.cfg.HTTPAddress, n, n.prom.Registry())
	if err := n.api.Start(); err != nil {
		return fmt.Errorf("start api:\n%w", err)
	}

	if n.cfg.Role == RoleVehicle {
		n.wg.Add(1)
		go n.emitLoop()
	}

	return n.waitForShutdown()
}

// connectPeers dials every configured peer address.
func (n *Node) connectPeers() {
	for _, addr := range strings.Split(n.cfg.Peers, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		peer, err := n.network.Connect(addr)
		if err != nil {
			logger.Warn("peer dial failed", "addr", addr, "error", err)
			continue
		}

		logger.Info("connected to peer", "addr", peer.Address())
	}
}

// handleMessage routes one inbound envelope by payload kind. Payloads
// a role has no component for are dropped silently.
func (n *Node) handleMessage(peer *network.Peer, data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		logger.Warn("undecodable envelope", "peer", peer.Address(), "error", err)
		return
	}

	switch {
	case msg.Transaction != nil && n.engine != nil:
		n.engine.HandleTransaction(msg.Transaction)

	case msg.Vote != nil && n.engine != nil:
		n.engine.HandleVote(msg.Vote)

	case msg.HandoverRequest != nil && n.authority != nil:
		n.authority.HandleRequest(msg.HandoverRequest)

	case msg.HandoverResponse != nil && n.coordinator != nil:
		if msg.HandoverResponse.Vehicle == consensus.ParticipantID(n.cfg.ID) {
			n.coordinator.Complete(msg.HandoverResponse.Authority, msg.HandoverResponse.Success)
		}
	}
}

// emitLoop creates transactions at the configured interval with
// U(-0.1, 0.1) s jitter until shutdown.
func (n *Node) emitLoop() {
	defer n.wg.Done()

	for {
		jitter := time.Duration((n.jitterRng.Float64()*0.2 - 0.1) * float64(time.Second))

		select {
		case <-time.After(n.cfg.MessageInterval + jitter):
			n.engine.CreateTransaction()
		case <-n.stop:
			return
		}
	}
}

// PendingCount implements api.StatusProvider.
func (n *Node) PendingCount() int {
	if n.engine == nil {
		return 0
	}

	return n.engine.PendingCount()
}

// ConfirmedCount implements api.StatusProvider.
func (n *Node) ConfirmedCount() int {
	if n.engine == nil {
		return 0
	}

	return n.engine.ConfirmedCount()
}

// Authority implements api.StatusProvider: the vehicle's current
// authority, or the node's own id when it is one.
func (n *Node) Authority() uint64 {
	if n.coordinator != nil {
		return uint64(n.coordinator.Authority())
	}

	return n.cfg.ID
}

// PeerCount implements api.StatusProvider.
func (n *Node) PeerCount() int {
	return len(n.network.Peers())
}

// waitForShutdown blocks until SIGINT or SIGTERM is received.
func (n *Node) waitForShutdown() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	return n.Close()
}

// Close shuts down all node components gracefully.
func (n *Node) Close() error {
	close(n.stop)
	n.wg.Wait()

	if n.api != nil {
		n.api.Stop()
	}

	if n.network != nil {
		n.network.Close()
	}

	if n.meter != nil {
		n.meter.Flush()
	}

	if n.db != nil {
		n.db.Close()
	}

	return nil
}

// netSink broadcasts protocol messages as wire envelopes. Handover
// verdicts are broadcast too; vehicles filter by the addressed id.
type netSink struct {
	network *network.Node
	self    consensus.ParticipantID
}

// SendTransaction broadcasts a transaction.
func (s *netSink) SendTransaction(tx *consensus.Transaction) {
	if err := s.network.Broadcast(wire.EncodeTransaction(tx)); err != nil {
		logger.Debug("transaction broadcast incomplete", "error", err)
	}
}

// SendVote broadcasts a vote.
func (s *netSink) SendVote(msg *consensus.ConsensusMessage) {
	if err := s.network.Broadcast(wire.EncodeVote(msg)); err != nil {
		logger.Debug("vote broadcast incomplete", "error", err)
	}
}

// SendHandoverRequest broadcasts a handover request.
func (s *netSink) SendHandoverRequest(ctx *handover.Context) {
	if err := s.network.Broadcast(wire.EncodeHandoverRequest(ctx)); err != nil {
		logger.Debug("handover request broadcast incomplete", "error", err)
	}
}

// SendHandoverResponse broadcasts a handover verdict.
func (s *netSink) SendHandoverResponse(vehicle consensus.ParticipantID, success bool) {
	env := wire.EncodeHandoverResponse(&wire.HandoverVerdict{
		Vehicle:   vehicle,
		Authority: s.self,
		Success:   success,
	})

	if err := s.network.Broadcast(env); err != nil {
		logger.Debug("handover response broadcast incomplete", "error", err)
	}
}

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/semantic"
)

// Node roles.
const (
	RoleVehicle   = "vehicle"
	RoleAuthority = "authority"
)

// Config holds the node configuration.
type Config struct {
	// DataPath is the directory for the persistent metric sample log.
	// Empty disables persistence.
	DataPath string

	// HTTPAddress is the HTTP API listen address.
	HTTPAddress string

	// QUICAddress is the QUIC P2P listen address.
	QUICAddress string

	// Peers is a comma-separated list of peer addresses to dial.
	Peers string

	// KeyPath is the path to the Ed25519 private key file.
	KeyPath string

	// PrivateKey is the node's Ed25519 identity key.
	PrivateKey ed25519.PrivateKey

	// Role selects vehicle or authority behavior.
	Role string

	// ID is this participant's protocol identifier.
	ID uint64

	// InitialAuthority is the authority a vehicle starts under.
	InitialAuthority uint64

	// MessageInterval is the vehicle's transaction emission period.
	MessageInterval time.Duration

	// Adversary makes this vehicle corrupt its own payloads.
	Adversary bool

	// CorruptionProbability is the per-transaction corruption chance
	// for an adversarial vehicle.
	CorruptionProbability float64

	// BFTThreshold is the vote ratio required to confirm.
	BFTThreshold float64

	// EstimatedPeers sizes the vote threshold.
	EstimatedPeers int

	// MaxTxAge drops inbound transactions older than this.
	MaxTxAge time.Duration

	// Verify enables semantic verification of inbound payloads.
	Verify bool

	// VarianceLimit is the population-variance ceiling.
	VarianceLimit float64

	// CosineThreshold is the minimum top-k similarity.
	CosineThreshold float64

	// UsePBFT switches the modeled authentication latency profile.
	UsePBFT bool

	// PBFTComparison runs the PBFT baseline side by side.
	PBFTComparison bool

	// RangeProbability is the authority's range-check pass chance.
	RangeProbability float64

	// Seed drives the node's random draws; 0 means time-based.
	Seed int64
}

// parseFlags parses command-line flags into Config.
func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DataPath, "data", "", "Metric sample log directory (empty = disabled)")
	flag.StringVar(&cfg.HTTPAddress, "http", ":8080", "HTTP API address")
	flag.StringVar(&cfg.QUICAddress, "quic", ":9000", "QUIC P2P address")
	flag.StringVar(&cfg.Peers, "peers", "", "Comma-separated peer addresses to dial")
	flag.StringVar(&cfg.KeyPath, "key", "", "Ed25519 private key path (generates new if missing)")
	flag.StringVar(&cfg.Role, "role", RoleVehicle, "Node role: vehicle or authority")
	flag.Uint64Var(&cfg.ID, "id", 1, "Participant identifier")
	flag.Uint64Var(&cfg.InitialAuthority, "authority", 1001, "Initial authority id for a vehicle")
	flag.DurationVar(&cfg.MessageInterval, "interval", time.Second, "Transaction emission interval")
	flag.BoolVar(&cfg.Adversary, "adversary", false, "Corrupt own payloads probabilistically")
	flag.Float64Var(&cfg.CorruptionProbability, "corruption", consensus.DefaultCorruptionProbability, "Corruption probability for adversarial payloads")
	flag.Float64Var(&cfg.BFTThreshold, "bft-threshold", consensus.DefaultBFTThreshold, "Vote ratio required to confirm")
	flag.IntVar(&cfg.EstimatedPeers, "estimated-peers", consensus.DefaultEstimatedPeers, "Estimated peers in radio range")
	flag.DurationVar(&cfg.MaxTxAge, "max-tx-age", consensus.DefaultMaxTxAge, "Maximum inbound transaction age")
	flag.BoolVar(&cfg.Verify, "verify", true, "Enable semantic verification")
	flag.Float64Var(&cfg.VarianceLimit, "variance-limit", semantic.DefaultVarianceLimit, "Population-variance ceiling")
	flag.Float64Var(&cfg.CosineThreshold, "cosine-threshold", semantic.DefaultCosineThreshold, "Minimum top-k cosine similarity")
	flag.BoolVar(&cfg.UsePBFT, "use-pbft", false, "Model PBFT authentication latency instead")
	flag.BoolVar(&cfg.PBFTComparison, "pbft-comparison", false, "Run the PBFT baseline side by side")
	flag.Float64Var(&cfg.RangeProbability, "range-prob", handover.DefaultRangeCheckProbability, "Authority range-check pass probability")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	return cfg
}

// validate rejects inconsistent configurations early.
func (cfg *Config) validate() error {
	if cfg.Role != RoleVehicle && cfg.Role != RoleAuthority {
		return fmt.Errorf("unknown role %q", cfg.Role)
	}

	if cfg.BFTThreshold <= 0 || cfg.BFTThreshold > 1 {
		return fmt.Errorf("bft-threshold must be in (0, 1], got %v", cfg.BFTThreshold)
	}

	if cfg.EstimatedPeers < 1 {
		return fmt.Errorf("estimated-peers must be positive, got %d", cfg.EstimatedPeers)
	}

	return nil
}

// loadOrGenerateKey loads the private key from file or generates a new one.
func loadOrGenerateKey(keyPath string) (ed25519.PrivateKey, error) {
	if keyPath == "" {
		return generateNewKey()
	}

	data, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		return generateAndSaveKey(keyPath)
	}

	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(data), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(data), nil
}

// generateNewKey creates a new Ed25519 private key.
func generateNewKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key:\n%w", err)
	}

	return priv, nil
}

// generateAndSaveKey creates a new key and saves it to the given path.
func generateAndSaveKey(path string) (ed25519.PrivateKey, error) {
	priv, err := generateNewKey()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, priv, 0600); err != nil {
		return nil, fmt.Errorf("save key to %s:\n%w", path, err)
	}

	return priv, nil
}

// Command sim runs the in-process evaluation harness: a fleet of
// vehicles and roadside authorities on a virtual highway, driven by a
// virtual clock, and prints the end-of-run summary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/logger"
	"cocochain/internal/metrics"
	"cocochain/internal/semantic"
	"cocochain/internal/sim"
	"cocochain/internal/storage"
)

func main() {
	logger.Init(slog.LevelWarn)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run parses flags, executes one simulation and prints the summary.
func run() error {
	var (
		vehicles    = flag.Int("vehicles", 10, "Number of vehicles")
		authorities = flag.Int("authorities", 5, "Number of roadside authorities")
		adversaries = flag.Int("adversaries", 0, "Number of adversarial vehicles")
		duration    = flag.Duration("duration", 60*time.Second, "Simulated time span")
		seed        = flag.Int64("seed", 1, "Random seed")
		interval    = flag.Duration("interval", time.Second, "Transaction emission interval")
		corruption  = flag.Float64("corruption", consensus.DefaultCorruptionProbability, "Corruption probability for adversarial payloads")
		threshold   = flag.Float64("bft-threshold", consensus.DefaultBFTThreshold, "Vote ratio required to confirm")
		peers       = flag.Int("estimated-peers", 0, "Estimated peers (0 = vehicles-1)")
		rangeProb   = flag.Float64("range-prob", handover.DefaultRangeCheckProbability, "Handover range-check pass probability")
		coverage    = flag.Float64("coverage", sim.DefaultCoverageRadius, "Authority coverage radius in meters")
		verify      = flag.Bool("verify", true, "Enable semantic verification")
		varLimit    = flag.Float64("variance-limit", semantic.DefaultVarianceLimit, "Population-variance ceiling")
		cosine      = flag.Float64("cosine-threshold", semantic.DefaultCosineThreshold, "Minimum top-k cosine similarity")
		usePBFT     = flag.Bool("use-pbft", false, "Model PBFT authentication latency instead")
		comparison  = flag.Bool("pbft-comparison", false, "Run the PBFT baseline side by side")
		dataPath    = flag.String("data", "", "Persist metric samples to this directory")
	)
	flag.Parse()

	if *adversaries > *vehicles {
		return fmt.Errorf("adversaries (%d) cannot exceed vehicles (%d)", *adversaries, *vehicles)
	}

	cfg := sim.Config{
		Vehicles:              *vehicles,
		Authorities:           *authorities,
		Adversaries:           *adversaries,
		Duration:              *duration,
		Seed:                  *seed,
		MessageInterval:       *interval,
		CorruptionProbability: *corruption,
		BFTThreshold:          *threshold,
		EstimatedPeers:        *peers,
		RangeCheckProbability: *rangeProb,
		CoverageRadius:        *coverage,
		Verifier: &semantic.Config{
			Enabled:         *verify,
			VarianceLimit:   *varLimit,
			CosineThreshold: *cosine,
		},
		UsePBFT:               *usePBFT,
		PBFTComparison:        *comparison,
		Start:                 time.Now(),
	}

	var db *storage.Store
	if *dataPath != "" {
		if err := os.MkdirAll(*dataPath, 0755); err != nil {
			return fmt.Errorf("create data directory:\n%w", err)
		}

		var err error
		db, err = storage.Open(*dataPath + "/db")
		if err != nil {
			return fmt.Errorf("init storage:\n%w", err)
		}
		defer db.Close()

		cfg.Recorder = metrics.NewStore(db, time.Now)
	}

	summary := sim.NewRunner(cfg).Run()
	fmt.Println(summary)

	if db != nil {
		fmt.Printf("metric samples persisted to %s\n", *dataPath)
	}

	return nil
}

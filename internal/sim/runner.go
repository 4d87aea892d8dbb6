package sim

import (
	"fmt"
	"math/rand"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/metrics"
	"cocochain/internal/semantic"
)

// tick is the simulation step. Mobility and emission are evaluated once
// per tick; the bus drains to quiescence between ticks.
const tick = 100 * time.Millisecond

// authorityIDBase keeps authority ids disjoint from vehicle ids.
const authorityIDBase = 1000

// Config parameterizes one simulation run.
type Config struct {
	Vehicles    int // Vehicles is the number of moving participants
	Authorities int // Authorities is the number of roadside units
	Adversaries int // Adversaries is drawn from the vehicles once at setup

	Duration time.Duration // Duration is the simulated time span
	Seed     int64         // Seed makes the run reproducible

	MessageInterval       time.Duration   // MessageInterval between transactions; 0 means 1s
	CorruptionProbability float64         // CorruptionProbability per adversarial transaction
	BFTThreshold          float64         // BFTThreshold is the vote ratio; 0 means the default
	EstimatedPeers        int             // EstimatedPeers sizes the vote threshold; 0 means vehicles-1
	Verifier              *semantic.Config // Verifier parameters; nil means defaults
	CoverageRadius        float64         // CoverageRadius in meters; 0 means the default
	RangeCheckProbability float64         // RangeCheckProbability for handovers; 0 means the default
	UsePBFT               bool            // UsePBFT switches the modeled auth-latency profile
	PBFTComparison        bool            // PBFTComparison runs the baseline side by side

	Recorder metrics.Recorder // Recorder receives events besides the tally; optional
	Start    time.Time        // Start is the initial virtual time
}

// Summary holds the end-of-run scalars.
type Summary struct {
	MessagesReceived  int
	MalformedDetected int
	Confirmed         int // Confirmed counts originator-side confirmations
	HandoverAttempts  int
	HandoverSuccesses int
	FalsePositiveRate float64
	MeanLatency       time.Duration
	MeanThroughput    float64 // MeanThroughput in confirmed transactions per second
}

// HandoverSuccessRate returns successes over attempts, 0 when none.
func (s Summary) HandoverSuccessRate() float64 {
	if s.HandoverAttempts == 0 {
		return 0
	}

	return float64(s.HandoverSuccesses) / float64(s.HandoverAttempts)
}

// String renders the summary for the command line.
func (s Summary) String() string {
	return fmt.Sprintf(
		"messages received:   %d\n"+
			"malformed detected:  %d\n"+
			"confirmed:           %d\n"+
			"mean latency:        %v\n"+
			"mean throughput:     %.2f tx/s\n"+
			"false positive rate: %.4f\n"+
			"handovers:           %d/%d (%.1f%% success)",
		s.MessagesReceived, s.MalformedDetected, s.Confirmed,
		s.MeanLatency, s.MeanThroughput, s.FalsePositiveRate,
		s.HandoverSuccesses, s.HandoverAttempts, 100*s.HandoverSuccessRate())
}

// Runner owns one simulation: the virtual clock, the highway, the bus
// and all actors. Everything runs on the caller's goroutine.
type Runner struct {
	cfg     Config
	clock   *VirtualClock
	highway Highway
	bus     *Bus
	tally   *Tally
	meter   *metrics.Meter
	rng     *rand.Rand

	vehicles    []*Vehicle
	authorities []*RoadsideUnit
}

// NewRunner builds a simulation from cfg. The adversarial subset is
// drawn once here and stays fixed for the run.
func NewRunner(cfg Config) *Runner {
	if cfg.MessageInterval == 0 {
		cfg.MessageInterval = time.Second
	}
	if cfg.EstimatedPeers == 0 {
		cfg.EstimatedPeers = cfg.Vehicles - 1
	}
	if cfg.RangeCheckProbability == 0 {
		cfg.RangeCheckProbability = handover.DefaultRangeCheckProbability
	}
	if cfg.Verifier == nil {
		def := semantic.DefaultConfig()
		cfg.Verifier = &def
	}

	r := &Runner{
		cfg:   cfg,
		clock: NewVirtualClock(cfg.Start),
		bus:   NewBus(),
		tally: NewTally(),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}

	var rec metrics.Recorder = r.tally
	if cfg.Recorder != nil {
		rec = metrics.Multi{r.tally, cfg.Recorder}
	}

	r.meter = metrics.NewMeter(rec, r.clock.Now)

	authorityIDs := make([]consensus.ParticipantID, cfg.Authorities)
	for i := range authorityIDs {
		authorityIDs[i] = consensus.ParticipantID(authorityIDBase + i + 1)
	}
	r.highway = NewHighway(authorityIDs, cfg.CoverageRadius)

	for i, post := range r.highway.Posts {
		unit := &RoadsideUnit{
			ID:       post.ID,
			Position: post.Position,
			Handler: handover.NewAuthority(post.ID, cfg.RangeCheckProbability,
				rand.New(rand.NewSource(cfg.Seed+int64(authorityIDBase+i))), rec, r.bus.Port(post.ID)),
		}
		r.authorities = append(r.authorities, unit)
		r.bus.AddAuthority(unit)
	}

	adversaries := make(consensus.AdversarySet)
	for _, idx := range r.rng.Perm(cfg.Vehicles)[:cfg.Adversaries] {
		adversaries[consensus.ParticipantID(idx+1)] = struct{}{}
	}

	acct := &accounting{meter: r.meter, truth: r.bus.Corrupted}

	for i := 0; i < cfg.Vehicles; i++ {
		id := consensus.ParticipantID(i + 1)
		vrng := rand.New(rand.NewSource(cfg.Seed + int64(i) + 1))
		port := r.bus.Port(id)

		ecfg := consensus.DefaultConfig(id)
		ecfg.EstimatedPeers = cfg.EstimatedPeers
		if cfg.BFTThreshold != 0 {
			ecfg.BFTThreshold = cfg.BFTThreshold
		}
		if cfg.CorruptionProbability != 0 {
			ecfg.CorruptionProbability = cfg.CorruptionProbability
		}
		ecfg.UsePBFT = cfg.UsePBFT
		ecfg.PBFTComparison = cfg.PBFTComparison

		pos := r.rng.Float64() * r.highway.Length

		v := &Vehicle{
			ID:       id,
			Position: pos,
			Speed:    DrawSpeed(r.rng),
			nextEmit: cfg.Start.Add(time.Duration(r.rng.Float64() * float64(cfg.MessageInterval))),
		}
		v.Engine = consensus.New(ecfg, consensus.Deps{
			Clock:          r.clock.Now,
			Sink:           port,
			Verifier:       semantic.NewVerifier(*cfg.Verifier, vrng),
			Recorder:       rec,
			Meter:          r.meter,
			Rng:            vrng,
			Adversaries:    adversaries,
			GroundTruth:    r.bus.Corrupted,
			VerifyObserver: acct.observe,
		})
		v.Coordinator = handover.NewCoordinator(id, r.highway.Nearest(pos), r.clock.Now, port)

		r.vehicles = append(r.vehicles, v)
		r.bus.AddVehicle(v)
	}

	return r
}

// Vehicles returns the simulated vehicles.
func (r *Runner) Vehicles() []*Vehicle {
	return r.vehicles
}

// Bus returns the simulation's message bus.
func (r *Runner) Bus() *Bus {
	return r.bus
}

// Clock returns the virtual clock.
func (r *Runner) Clock() *VirtualClock {
	return r.clock
}

// Tally returns the run's metric aggregate.
func (r *Runner) Tally() *Tally {
	return r.tally
}

// Run steps the simulation for the configured duration and returns the
// end-of-run summary.
func (r *Runner) Run() Summary {
	steps := int(r.cfg.Duration / tick)

	for s := 0; s < steps; s++ {
		r.clock.Advance(tick)
		now := r.clock.Now()

		for _, v := range r.vehicles {
			v.Move(&r.highway, tick)

			if auth, ok := r.highway.NearestInRange(v.Position); ok &&
				auth != v.Coordinator.Authority() && !v.Coordinator.InProgress() {
				v.Coordinator.Request(auth, v.Engine.PendingIDs())
			}

			if !now.Before(v.nextEmit) {
				v.Engine.CreateTransaction()
				v.nextEmit = now.Add(r.nextInterval())
			}
		}

		r.bus.Drain()
	}

	r.meter.Flush()

	return r.tally.Summary()
}

// nextInterval is the message interval with U(-0.1, 0.1) s jitter.
func (r *Runner) nextInterval() time.Duration {
	jitter := time.Duration((r.rng.Float64()*0.2 - 0.1) * float64(time.Second))
	return r.cfg.MessageInterval + jitter
}

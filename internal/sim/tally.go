package sim

import (
	"sync"
	"time"

	"cocochain/internal/consensus"
	"cocochain/internal/metrics"
	"cocochain/internal/semantic"
)

// Tally aggregates metric events into the run summary scalars.
type Tally struct {
	mu sync.Mutex

	messages     int
	malformed    int
	handoverOK   int
	handoverFail int
	latencies    []time.Duration
	fpRate       float64
	throughput   []float64
	authLatency  map[string][]time.Duration
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{authLatency: make(map[string][]time.Duration)}
}

// EndToEndLatency records one originator-side confirmation latency.
func (t *Tally) EndToEndLatency(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latencies = append(t.latencies, d)
}

// ConsensusOverhead counts one received protocol message.
func (t *Tally) ConsensusOverhead() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages++
}

// MalformedDetected counts one verification rejection.
func (t *Tally) MalformedDetected() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.malformed++
}

// FalsePositiveRate keeps the latest rate.
func (t *Tally) FalsePositiveRate(rate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fpRate = rate
}

// Throughput records one window's confirmed-per-second rate.
func (t *Tally) Throughput(rate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.throughput = append(t.throughput, rate)
}

// AuthLatency records one modeled authentication latency sample.
func (t *Tally) AuthLatency(protocol string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.authLatency[protocol] = append(t.authLatency[protocol], d)
}

// HandoverOutcome counts one handover verdict.
func (t *Tally) HandoverOutcome(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if success {
		t.handoverOK++
	} else {
		t.handoverFail++
	}
}

// AuthLatencies returns the recorded samples for one protocol label.
func (t *Tally) AuthLatencies(protocol string) []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]time.Duration, len(t.authLatency[protocol]))
	copy(out, t.authLatency[protocol])

	return out
}

// Summary snapshots the tally into run scalars.
func (t *Tally) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		MessagesReceived:  t.messages,
		MalformedDetected: t.malformed,
		Confirmed:         len(t.latencies),
		HandoverAttempts:  t.handoverOK + t.handoverFail,
		HandoverSuccesses: t.handoverOK,
		FalsePositiveRate: t.fpRate,
	}

	if len(t.latencies) > 0 {
		var sum time.Duration
		for _, d := range t.latencies {
			sum += d
		}
		s.MeanLatency = sum / time.Duration(len(t.latencies))
	}

	if len(t.throughput) > 0 {
		var sum float64
		for _, r := range t.throughput {
			sum += r
		}
		s.MeanThroughput = sum / float64(len(t.throughput))
	}

	return s
}

// static interface check
var _ metrics.Recorder = (*Tally)(nil)

// accounting feeds the false-positive bookkeeping from verification
// outcomes, resolving ground truth through the bus ledger. Only clean
// transactions count: a clean rejection is a false positive, a clean
// acceptance a valid one.
type accounting struct {
	meter *metrics.Meter
	truth func(consensus.TxID) bool
}

// observe is installed as the engines' verification observer.
func (a *accounting) observe(tx *consensus.Transaction, res semantic.Result) {
	if a.truth(tx.ID) {
		return
	}

	if res.OK {
		a.meter.ValidAccepted()
	} else {
		a.meter.FalsePositive()
	}
}

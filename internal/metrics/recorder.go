// Package metrics collects the protocol's evaluation signals: latency,
// overhead, detection counts and handover outcomes. Producers talk to
// the Recorder interface; sinks include Prometheus, a persistent pebble
// sample log and an in-test capture recorder.
package metrics

import "time"

// Recorder receives protocol metric events.
type Recorder interface {
	// EndToEndLatency records creation-to-confirmation latency of a
	// self-originated transaction.
	EndToEndLatency(d time.Duration)

	// ConsensusOverhead counts one inbound consensus message.
	ConsensusOverhead()

	// MalformedDetected counts one transaction rejected by semantic
	// verification.
	MalformedDetected()

	// FalsePositiveRate records the current ratio of clean
	// transactions rejected to all verification outcomes.
	FalsePositiveRate(rate float64)

	// Throughput records confirmed transactions per second for one
	// completed measurement window.
	Throughput(perSecond float64)

	// AuthLatency records one modeled authentication decision for the
	// named protocol ("cocochain" or "pbft").
	AuthLatency(protocol string, d time.Duration)

	// HandoverOutcome records one completed handover attempt.
	HandoverOutcome(success bool)
}

// Nop discards all metric events.
type Nop struct{}

func (Nop) EndToEndLatency(time.Duration)      {}
func (Nop) ConsensusOverhead()                 {}
func (Nop) MalformedDetected()                 {}
func (Nop) FalsePositiveRate(float64)          {}
func (Nop) Throughput(float64)                 {}
func (Nop) AuthLatency(string, time.Duration)  {}
func (Nop) HandoverOutcome(bool)               {}

// Multi fans every event out to all wrapped recorders in order.
type Multi []Recorder

func (m Multi) EndToEndLatency(d time.Duration) {
	for _, r := range m {
		r.EndToEndLatency(d)
	}
}

func (m Multi) ConsensusOverhead() {
	for _, r := range m {
		r.ConsensusOverhead()
	}
}

func (m Multi) MalformedDetected() {
	for _, r := range m {
		r.MalformedDetected()
	}
}

func (m Multi) FalsePositiveRate(rate float64) {
	for _, r := range m {
		r.FalsePositiveRate(rate)
	}
}

func (m Multi) Throughput(perSecond float64) {
	for _, r := range m {
		r.Throughput(perSecond)
	}
}

func (m Multi) AuthLatency(protocol string, d time.Duration) {
	for _, r := range m {
		r.AuthLatency(protocol, d)
	}
}

func (m Multi) HandoverOutcome(success bool) {
	for _, r := range m {
		r.HandoverOutcome(success)
	}
}

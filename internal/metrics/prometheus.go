package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every exported metric name.
const namespace = "cocochain"

// Prom exports metric events through a dedicated Prometheus registry.
type Prom struct {
	registry *prometheus.Registry

	endToEndLatency   prometheus.Histogram
	consensusOverhead prometheus.Counter
	malformedDetected prometheus.Counter
	falsePositiveRate prometheus.Gauge
	throughput        prometheus.Gauge
	authLatency       *prometheus.HistogramVec
	handoverAttempts  *prometheus.CounterVec
}

// NewProm creates a Prometheus recorder with its own registry.
func NewProm() *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),

		endToEndLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "end_to_end_latency_seconds",
			Help:      "Creation-to-confirmation latency of self-originated transactions.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		consensusOverhead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_messages_total",
			Help:      "Inbound consensus messages processed.",
		}),
		malformedDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_detected_total",
			Help:      "Transactions rejected by semantic verification.",
		}),
		falsePositiveRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "false_positive_rate",
			Help:      "Clean transactions rejected over all verification outcomes.",
		}),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throughput_tx_per_second",
			Help:      "Confirmed transactions per second over the last window.",
		}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_latency_seconds",
			Help:      "Modeled authentication latency per decision.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}, []string{"protocol"}),
		handoverAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handover_attempts_total",
			Help:      "Completed handover attempts by outcome.",
		}, []string{"outcome"}),
	}

	p.registry.MustRegister(
		p.endToEndLatency,
		p.consensusOverhead,
		p.malformedDetected,
		p.falsePositiveRate,
		p.throughput,
		p.authLatency,
		p.handoverAttempts,
	)

	return p
}

// Registry returns the registry backing this recorder, for promhttp.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prom) EndToEndLatency(d time.Duration) {
	p.endToEndLatency.Observe(d.Seconds())
}

func (p *Prom) ConsensusOverhead() {
	p.consensusOverhead.Inc()
}

func (p *Prom) MalformedDetected() {
	p.malformedDetected.Inc()
}

func (p *Prom) FalsePositiveRate(rate float64) {
	p.falsePositiveRate.Set(rate)
}

func (p *Prom) Throughput(perSecond float64) {
	p.throughput.Set(perSecond)
}

func (p *Prom) AuthLatency(protocol string, d time.Duration) {
	p.authLatency.WithLabelValues(protocol).Observe(d.Seconds())
}

func (p *Prom) HandoverOutcome(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	p.handoverAttempts.WithLabelValues(outcome).Inc()
}

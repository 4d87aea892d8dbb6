package metrics

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"cocochain/internal/storage"
)

// Metric names used as sample-log keys.
const (
	MetricEndToEndLatency   = "end_to_end_latency"
	MetricConsensusOverhead = "consensus_overhead"
	MetricMalformedDetected = "malformed_detected"
	MetricFalsePositiveRate = "false_positive_rate"
	MetricThroughput        = "throughput"
	MetricAuthLatency       = "auth_latency"
	MetricHandoverSuccess   = "handover_success"
)

// samplePrefix namespaces sample keys in the key-value store.
var samplePrefix = []byte("s:")

// sampleValueSize is the encoded sample size: 8-byte value bits +
// 8-byte unix-nano timestamp, both big-endian.
const sampleValueSize = 16

// Sample is one recorded metric observation.
type Sample struct {
	Metric string    // Metric is the metric name
	Value  float64   // Value is the observed value
	At     time.Time // At is the observation time
}

// Store persists every metric event as an append-only sample log in a
// pebble-backed store, keyed by s:<metric>:<seq>. Samples survive the
// run for offline analysis; sequence numbers restart per process.
type Store struct {
	db  *storage.Store
	now func() time.Time

	mu  sync.Mutex
	seq map[string]uint64 // seq is the next sequence number per metric
}

// NewStore creates a sample-log recorder on top of db, reading
// timestamps from now.
func NewStore(db *storage.Store, now func() time.Time) *Store {
	return &Store{
		db:  db,
		now: now,
		seq: make(map[string]uint64),
	}
}

func (s *Store) EndToEndLatency(d time.Duration) {
	s.append(MetricEndToEndLatency, d.Seconds())
}

func (s *Store) ConsensusOverhead() {
	s.append(MetricConsensusOverhead, 1)
}

func (s *Store) MalformedDetected() {
	s.append(MetricMalformedDetected, 1)
}

func (s *Store) FalsePositiveRate(rate float64) {
	s.append(MetricFalsePositiveRate, rate)
}

func (s *Store) Throughput(perSecond float64) {
	s.append(MetricThroughput, perSecond)
}

func (s *Store) AuthLatency(protocol string, d time.Duration) {
	s.append(MetricAuthLatency+"_"+protocol, d.Seconds())
}

func (s *Store) HandoverOutcome(success bool) {
	v := 0.0
	if success {
		v = 1.0
	}
	s.append(MetricHandoverSuccess, v)
}

// append writes one sample under the next sequence number for metric.
// Write failures are silently dropped; the sample log is advisory and
// must never stall the protocol.
func (s *Store) append(metric string, value float64) {
	s.mu.Lock()
	seq := s.seq[metric]
	s.seq[metric] = seq + 1
	s.mu.Unlock()

	_ = s.db.Set(sampleKey(metric, seq), encodeSample(value, s.now()))
}

// Samples returns all recorded samples for metric in recording order.
func (s *Store) Samples(metric string) ([]Sample, error) {
	var samples []Sample

	prefix := make([]byte, 0, len(samplePrefix)+len(metric)+1)
	prefix = append(prefix, samplePrefix...)
	prefix = append(prefix, metric...)
	prefix = append(prefix, ':')

	err := s.db.IteratePrefix(prefix, func(key, value []byte) error {
		v, at, err := decodeSample(value)
		if err != nil {
			return fmt.Errorf("sample %q: %w", key, err)
		}

		samples = append(samples, Sample{Metric: metric, Value: v, At: at})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// sampleKey builds s:<metric>:<seq> with a big-endian sequence so
// lexicographic iteration matches recording order.
func sampleKey(metric string, seq uint64) []byte {
	key := make([]byte, 0, len(samplePrefix)+len(metric)+1+8)
	key = append(key, samplePrefix...)
	key = append(key, metric...)
	key = append(key, ':')
	key = binary.BigEndian.AppendUint64(key, seq)

	return key
}

// encodeSample renders a sample value and timestamp into 16 bytes.
func encodeSample(value float64, at time.Time) []byte {
	buf := make([]byte, sampleValueSize)
	binary.BigEndian.PutUint64(buf[:8], math.Float64bits(value))
	binary.BigEndian.PutUint64(buf[8:], uint64(at.UnixNano()))

	return buf
}

// decodeSample parses an encoded sample.
func decodeSample(data []byte) (float64, time.Time, error) {
	if len(data) != sampleValueSize {
		return 0, time.Time{}, fmt.Errorf("invalid sample length: %d", len(data))
	}

	value := math.Float64frombits(binary.BigEndian.Uint64(data[:8]))
	at := time.Unix(0, int64(binary.BigEndian.Uint64(data[8:])))

	return value, at, nil
}

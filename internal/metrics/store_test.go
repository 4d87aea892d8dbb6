package metrics

import (
	"testing"
	"time"

	"cocochain/internal/storage"
)

// openTestStore creates a sample store over a temporary pebble database.
func openTestStore(t *testing.T, clock *testClock) *Store {
	t.Helper()

	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(db, clock.Now)
}

// TestStore_AppendAndRead tests that samples come back in recording
// order with their values and timestamps.
func TestStore_AppendAndRead(t *testing.T) {
	clock := &testClock{now: time.Unix(500, 0)}
	s := openTestStore(t, clock)

	s.EndToEndLatency(3 * time.Millisecond)
	clock.advance(time.Second)
	s.EndToEndLatency(5 * time.Millisecond)

	samples, err := s.Samples(MetricEndToEndLatency)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}

	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	if samples[0].Value != 0.003 || samples[1].Value != 0.005 {
		t.Fatalf("unexpected values: %v, %v", samples[0].Value, samples[1].Value)
	}

	if !samples[1].At.Equal(time.Unix(501, 0)) {
		t.Fatalf("expected timestamp 501s, got %v", samples[1].At)
	}
}

// TestStore_MetricsIsolated tests that metrics do not leak into each
// other's sample logs.
func TestStore_MetricsIsolated(t *testing.T) {
	clock := &testClock{now: time.Unix(500, 0)}
	s := openTestStore(t, clock)

	s.ConsensusOverhead()
	s.ConsensusOverhead()
	s.MalformedDetected()
	s.HandoverOutcome(true)
	s.HandoverOutcome(false)

	overhead, err := s.Samples(MetricConsensusOverhead)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(overhead) != 2 {
		t.Fatalf("expected 2 overhead samples, got %d", len(overhead))
	}

	handovers, err := s.Samples(MetricHandoverSuccess)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(handovers) != 2 || handovers[0].Value != 1 || handovers[1].Value != 0 {
		t.Fatalf("unexpected handover samples: %+v", handovers)
	}
}

// TestStore_AuthLatencyPerProtocol tests that auth latency is logged
// under a per-protocol metric name.
func TestStore_AuthLatencyPerProtocol(t *testing.T) {
	clock := &testClock{now: time.Unix(500, 0)}
	s := openTestStore(t, clock)

	s.AuthLatency("cocochain", 2*time.Millisecond)
	s.AuthLatency("pbft", 30*time.Millisecond)

	coco, err := s.Samples(MetricAuthLatency + "_cocochain")
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(coco) != 1 || coco[0].Value != 0.002 {
		t.Fatalf("unexpected cocochain samples: %+v", coco)
	}

	pbft, err := s.Samples(MetricAuthLatency + "_pbft")
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(pbft) != 1 || pbft[0].Value != 0.03 {
		t.Fatalf("unexpected pbft samples: %+v", pbft)
	}
}

// TestStore_ExportImport tests the compressed round trip into a fresh
// database.
func TestStore_ExportImport(t *testing.T) {
	clock := &testClock{now: time.Unix(500, 0)}
	src := openTestStore(t, clock)

	src.Throughput(10)
	src.Throughput(12)
	src.FalsePositiveRate(0.1)

	blob, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dstDB, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { dstDB.Close() })

	if err := Import(dstDB, blob); err != nil {
		t.Fatalf("import: %v", err)
	}

	dst := NewStore(dstDB, clock.Now)

	samples, err := dst.Samples(MetricThroughput)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(samples) != 2 || samples[0].Value != 10 || samples[1].Value != 12 {
		t.Fatalf("unexpected throughput samples: %+v", samples)
	}

	rates, err := dst.Samples(MetricFalsePositiveRate)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(rates) != 1 || rates[0].Value != 0.1 {
		t.Fatalf("unexpected rate samples: %+v", rates)
	}
}

// TestImport_RejectsGarbage tests version and framing validation.
func TestImport_RejectsGarbage(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Import(db, []byte("not zstd at all")); err == nil {
		t.Fatal("expected error for non-zstd input")
	}
}

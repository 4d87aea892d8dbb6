package network

import (
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

const (
	// defaultDedupTTL is how long a seen envelope hash is remembered.
	// It must exceed the broadcast fan-out window so a vote echoed by
	// several peers is processed once.
	defaultDedupTTL = 5 * time.Second

	// cleanupInterval is the interval between expiry sweeps.
	cleanupInterval = 1 * time.Second
)

// Dedup drops duplicate envelope deliveries. Envelopes are identified
// by their blake3 hash; entries expire after a TTL.
type Dedup struct {
	seen map[[32]byte]int64 // seen maps envelope hash to unix-nano timestamp
	mu   sync.RWMutex
	ttl  int64 // ttl in nanoseconds
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewDedup creates a tracker with the given TTL; 0 uses the default.
func NewDedup(ttl time.Duration) *Dedup {
	if ttl == 0 {
		ttl = defaultDedupTTL
	}

	d := &Dedup{
		seen: make(map[[32]byte]int64),
		ttl:  int64(ttl),
		stop: make(chan struct{}),
	}

	d.startCleanup()

	return d
}

// Check returns true if the envelope is new and records its hash.
func (d *Dedup) Check(data []byte) bool {
	hash := blake3.Sum256(data)
	now := time.Now().UnixNano()

	d.mu.RLock()
	ts, exists := d.seen[hash]
	d.mu.RUnlock()

	if exists && now-ts < d.ttl {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Re-check: another delivery may have won the write lock first.
	ts, exists = d.seen[hash]
	if exists && now-ts < d.ttl {
		return false
	}

	d.seen[hash] = now

	return true
}

// Close stops the cleanup goroutine.
func (d *Dedup) Close() {
	close(d.stop)
	d.wg.Wait()
}

// startCleanup starts the background expiry sweep.
func (d *Dedup) startCleanup() {
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.cleanup()
			case <-d.stop:
				return
			}
		}
	}()
}

// cleanup removes expired entries.
func (d *Dedup) cleanup() {
	now := time.Now().UnixNano()

	d.mu.Lock()
	defer d.mu.Unlock()

	for hash, ts := range d.seen {
		if now-ts >= d.ttl {
			delete(d.seen, hash)
		}
	}
}

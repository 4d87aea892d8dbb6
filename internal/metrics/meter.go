package metrics

import (
	"sync"
	"time"
)

// throughputWindow is the length of one throughput measurement window.
const throughputWindow = time.Second

// Meter derives the computed metrics (throughput, false-positive rate)
// from raw confirmation and verification events and forwards them to
// the wrapped recorder. Time is injected so the simulation's virtual
// clock drives the windows.
type Meter struct {
	rec Recorder
	now func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	confirmed   uint64 // confirmed is the count in the current window
	falsePos    uint64 // falsePos counts clean transactions rejected
	valid       uint64 // valid counts clean transactions accepted
}

// NewMeter creates a meter forwarding to rec and reading time from now.
func NewMeter(rec Recorder, now func() time.Time) *Meter {
	return &Meter{
		rec:         rec,
		now:         now,
		windowStart: now(),
	}
}

// Confirmed records one confirmed transaction, closing the current
// throughput window first if it has elapsed.
func (m *Meter) Confirmed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roll()
	m.confirmed++
}

// FalsePositive records a clean transaction rejected by verification
// and re-emits the updated rate.
func (m *Meter) FalsePositive() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.falsePos++
	m.emitRate()
}

// ValidAccepted records a clean transaction accepted by verification
// and re-emits the updated rate.
func (m *Meter) ValidAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.valid++
	m.emitRate()
}

// Flush closes the current throughput window regardless of elapsed
// time. Called at end of run so the tail window is not lost.
func (m *Meter) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.now().Sub(m.windowStart)
	if elapsed <= 0 || m.confirmed == 0 {
		return
	}

	m.rec.Throughput(float64(m.confirmed) / elapsed.Seconds())
	m.confirmed = 0
	m.windowStart = m.now()
}

// roll emits completed windows and advances the window start.
// Caller must hold the mutex.
func (m *Meter) roll() {
	now := m.now()

	for now.Sub(m.windowStart) >= throughputWindow {
		m.rec.Throughput(float64(m.confirmed) / throughputWindow.Seconds())
		m.confirmed = 0
		m.windowStart = m.windowStart.Add(throughputWindow)
	}
}

// emitRate recomputes and forwards the false-positive rate.
// Caller must hold the mutex.
func (m *Meter) emitRate() {
	total := m.falsePos + m.valid
	if total == 0 {
		return
	}

	m.rec.FalsePositiveRate(float64(m.falsePos) / float64(total))
}

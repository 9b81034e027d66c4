package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RedirectCacheHits       uint64
	RedirectCacheMisses     uint64
	RedirectFallbacks       map[string]uint64
	RedirectDurationCount   uint64
	RedirectDurationTotalNs int64
	LinksCreated            uint64
	ClicksPublished         map[string]uint64
	ClicksProcessed         map[string]uint64
	ClickQueueDepth         int64
	ScoreBuilds             map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	redirectCacheHits       uint64
	redirectCacheMisses     uint64
	redirectDurationCount   uint64
	redirectDurationTotalNs int64
	linksCreated            uint64
	clickQueueDepth         int64

	mu                sync.Mutex
	redirectFallbacks map[string]uint64
	clicksPublished   map[string]uint64
	clicksProcessed   map[string]uint64
	scoreBuilds       map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		redirectFallbacks: make(map[string]uint64),
		clicksPublished:   make(map[string]uint64),
		clicksProcessed:   make(map[string]uint64),
		scoreBuilds:       make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		RedirectCacheHits:       atomic.LoadUint64(&m.redirectCacheHits),
		RedirectCacheMisses:     atomic.LoadUint64(&m.redirectCacheMisses),
		RedirectFallbacks:       copyCounts(m.redirectFallbacks),
		RedirectDurationCount:   atomic.LoadUint64(&m.redirectDurationCount),
		RedirectDurationTotalNs: atomic.LoadInt64(&m.redirectDurationTotalNs),
		LinksCreated:            atomic.LoadUint64(&m.linksCreated),
		ClicksPublished:         copyCounts(m.clicksPublished),
		ClicksProcessed:         copyCounts(m.clicksProcessed),
		ClickQueueDepth:         atomic.LoadInt64(&m.clickQueueDepth),
		ScoreBuilds:             copyCounts(m.scoreBuilds),
	}
}

// IncRedirectCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncRedirectCacheHit() {
	atomic.AddUint64(&m.redirectCacheHits, 1)
}

// IncRedirectCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncRedirectCacheMiss() {
	atomic.AddUint64(&m.redirectCacheMisses, 1)
}

// IncRedirectFallback counts a fallback redirect by reason.
func (m *InMemoryRecorder) IncRedirectFallback(reason string) {
	m.inc(m.redirectFallbacks, reason)
}

// ObserveRedirectDuration records redirect duration.
func (m *InMemoryRecorder) ObserveRedirectDuration(duration time.Duration) {
	atomic.AddUint64(&m.redirectDurationCount, 1)
	atomic.AddInt64(&m.redirectDurationTotalNs, duration.Nanoseconds())
}

// IncLinkCreated increments link created counter.
func (m *InMemoryRecorder) IncLinkCreated() {
	atomic.AddUint64(&m.linksCreated, 1)
}

// IncClickPublished counts publish outcomes.
func (m *InMemoryRecorder) IncClickPublished(status string) {
	m.inc(m.clicksPublished, status)
}

// IncClickProcessed counts ingest outcomes.
func (m *InMemoryRecorder) IncClickProcessed(status string) {
	m.inc(m.clicksProcessed, status)
}

func (m *InMemoryRecorder) ObserveClickBatchSize(size int)                   {}
func (m *InMemoryRecorder) ObserveClickBatchDuration(duration time.Duration) {}
func (m *InMemoryRecorder) ObserveClickIngestLag(lag time.Duration)          {}

// SetClickQueueDepth stores the latest queue depth.
func (m *InMemoryRecorder) SetClickQueueDepth(depth int64) {
	atomic.StoreInt64(&m.clickQueueDepth, depth)
}

// ObserveScoreBuild counts score builds by period.
func (m *InMemoryRecorder) ObserveScoreBuild(period string, duration time.Duration) {
	m.inc(m.scoreBuilds, period)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthSuccesses   uint64
	AuthFailures    map[string]uint64
	KeyCacheHits    uint64
	KeyCacheMisses  uint64
	KeyFetchCount   uint64
	KeyFetchTotalNs int64
	RecordsCreated  map[string]uint64
	RecordsUpdated  map[string]uint64
	RecordsDeleted  map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	authSuccesses   uint64
	keyCacheHits    uint64
	keyCacheMisses  uint64
	keyFetchCount   uint64
	keyFetchTotalNs int64

	mu             sync.Mutex
	authFailures   map[string]uint64
	recordsCreated map[string]uint64
	recordsUpdated map[string]uint64
	recordsDeleted map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures:   make(map[string]uint64),
		recordsCreated: make(map[string]uint64),
		recordsUpdated: make(map[string]uint64),
		recordsDeleted: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		AuthSuccesses:   atomic.LoadUint64(&m.authSuccesses),
		AuthFailures:    copyCounts(m.authFailures),
		KeyCacheHits:    atomic.LoadUint64(&m.keyCacheHits),
		KeyCacheMisses:  atomic.LoadUint64(&m.keyCacheMisses),
		KeyFetchCount:   atomic.LoadUint64(&m.keyFetchCount),
		KeyFetchTotalNs: atomic.LoadInt64(&m.keyFetchTotalNs),
		RecordsCreated:  copyCounts(m.recordsCreated),
		RecordsUpdated:  copyCounts(m.recordsUpdated),
		RecordsDeleted:  copyCounts(m.recordsDeleted),
	}
}

// IncAuthSuccess increments the successful authentication counter.
func (m *InMemoryRecorder) IncAuthSuccess() {
	atomic.AddUint64(&m.authSuccesses, 1)
}

// IncAuthFailure increments the failure counter for reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.inc(m.authFailures, reason)
}

// IncKeyCacheHit increments key cache hit counter.
func (m *InMemoryRecorder) IncKeyCacheHit() {
	atomic.AddUint64(&m.keyCacheHits, 1)
}

// IncKeyCacheMiss increments key cache miss counter.
func (m *InMemoryRecorder) IncKeyCacheMiss() {
	atomic.AddUint64(&m.keyCacheMisses, 1)
}

// ObserveKeyFetchDuration records key-set fetch duration.
func (m *InMemoryRecorder) ObserveKeyFetchDuration(duration time.Duration) {
	atomic.AddUint64(&m.keyFetchCount, 1)
	atomic.AddInt64(&m.keyFetchTotalNs, duration.Nanoseconds())
}

// IncRecordCreated increments the created counter for kind.
func (m *InMemoryRecorder) IncRecordCreated(kind string) {
	m.inc(m.recordsCreated, kind)
}

// IncRecordUpdated increments the updated counter for kind.
func (m *InMemoryRecorder) IncRecordUpdated(kind string) {
	m.inc(m.recordsUpdated, kind)
}

// IncRecordDeleted increments the deleted counter for kind.
func (m *InMemoryRecorder) IncRecordDeleted(kind string) {
	m.inc(m.recordsDeleted, kind)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

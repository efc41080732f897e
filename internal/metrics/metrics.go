// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Record kinds used by the record metrics.
const (
	KindTransaction = "transaction"
	KindCategory    = "category"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication metrics
	IncAuthSuccess()
	IncAuthFailure(reason string) // reason: "no_credential", "invalid_signature", "key_unavailable"

	// Key resolver metrics
	IncKeyCacheHit()
	IncKeyCacheMiss()
	ObserveKeyFetchDuration(duration time.Duration)

	// Record metrics
	IncRecordCreated(kind string)
	IncRecordUpdated(kind string)
	IncRecordDeleted(kind string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthSuccess is a no-op.
func (n *NoopRecorder) IncAuthSuccess() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// IncKeyCacheHit is a no-op.
func (n *NoopRecorder) IncKeyCacheHit() {}

// IncKeyCacheMiss is a no-op.
func (n *NoopRecorder) IncKeyCacheMiss() {}

// ObserveKeyFetchDuration is a no-op.
func (n *NoopRecorder) ObserveKeyFetchDuration(duration time.Duration) {}

// IncRecordCreated is a no-op.
func (n *NoopRecorder) IncRecordCreated(kind string) {}

// IncRecordUpdated is a no-op.
func (n *NoopRecorder) IncRecordUpdated(kind string) {}

// IncRecordDeleted is a no-op.
func (n *NoopRecorder) IncRecordDeleted(kind string) {}

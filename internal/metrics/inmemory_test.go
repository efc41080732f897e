package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	m := NewInMemory()

	const workers, perWorker = 8, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.IncAuthSuccess()
				m.IncAuthFailure("invalid_signature")
				m.IncRecordCreated(KindTransaction)
				m.ObserveKeyFetchDuration(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	const total = workers * perWorker
	if snap.AuthSuccesses != total {
		t.Errorf("auth successes = %d, want %d", snap.AuthSuccesses, total)
	}
	if snap.AuthFailures["invalid_signature"] != total {
		t.Errorf("auth failures = %d, want %d", snap.AuthFailures["invalid_signature"], total)
	}
	if snap.RecordsCreated[KindTransaction] != total {
		t.Errorf("created = %d, want %d", snap.RecordsCreated[KindTransaction], total)
	}
	if snap.KeyFetchCount != total || snap.KeyFetchTotalNs != int64(total*time.Millisecond) {
		t.Errorf("key fetch = %d / %dns", snap.KeyFetchCount, snap.KeyFetchTotalNs)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	m := NewInMemory()
	m.IncRecordDeleted(KindCategory)

	snap := m.Snapshot()
	snap.RecordsDeleted[KindCategory] = 99

	if got := m.Snapshot().RecordsDeleted[KindCategory]; got != 1 {
		t.Errorf("snapshot mutation leaked into recorder: %d", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.IncAuthSuccess()
	r.IncAuthFailure("no_credential")
	r.IncKeyCacheHit()
	r.IncKeyCacheMiss()
	r.ObserveKeyFetchDuration(time.Second)
	r.IncRecordCreated(KindTransaction)
	r.IncRecordUpdated(KindTransaction)
	r.IncRecordDeleted(KindTransaction)
}

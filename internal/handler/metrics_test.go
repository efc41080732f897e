package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/moneymanager/moneymanager/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncAuthSuccess()
	recorder.IncAuthFailure("no_credential")
	recorder.IncAuthFailure("no_credential")
	recorder.IncAuthFailure("invalid_signature")
	recorder.IncKeyCacheMiss()
	recorder.ObserveKeyFetchDuration(1500 * time.Millisecond)
	recorder.IncRecordCreated(metrics.KindTransaction)
	recorder.IncRecordDeleted(metrics.KindCategory)

	rec := httptest.NewRecorder()
	NewMetricsHandler(recorder).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"moneymanager_auth_success_total 1",
		`moneymanager_auth_failure_total{reason="invalid_signature"} 1`,
		`moneymanager_auth_failure_total{reason="no_credential"} 2`,
		"moneymanager_key_cache_misses_total 1",
		"moneymanager_key_fetch_duration_seconds_count 1",
		"moneymanager_key_fetch_duration_seconds_sum 1.500000",
		`moneymanager_records_created_total{kind="transaction"} 1`,
		`moneymanager_records_deleted_total{kind="category"} 1`,
	} {
		if !strings.Contains(body, line+"\n") {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
	if strings.Index(body, `reason="invalid_signature"`) > strings.Index(body, `reason="no_credential"`) {
		t.Error("labels are not sorted")
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/moneymanager/moneymanager/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "moneymanager_auth_success_total %d\n", snap.AuthSuccesses)
	writeLabeled(w, "moneymanager_auth_failure_total", "reason", snap.AuthFailures)

	writeMetric(w, "moneymanager_key_cache_hits_total %d\n", snap.KeyCacheHits)
	writeMetric(w, "moneymanager_key_cache_misses_total %d\n", snap.KeyCacheMisses)
	writeMetric(w, "moneymanager_key_fetch_duration_seconds_count %d\n", snap.KeyFetchCount)
	writeMetric(w, "moneymanager_key_fetch_duration_seconds_sum %.6f\n", float64(snap.KeyFetchTotalNs)/1e9)

	writeLabeled(w, "moneymanager_records_created_total", "kind", snap.RecordsCreated)
	writeLabeled(w, "moneymanager_records_updated_total", "kind", snap.RecordsUpdated)
	writeLabeled(w, "moneymanager_records_deleted_total", "kind", snap.RecordsDeleted)
}

// writeLabeled writes one line per label value, sorted for stable output.
func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

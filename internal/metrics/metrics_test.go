package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invwatch/internal/metrics"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := metrics.New()
	m.FilesProcessed.WithLabelValues("archived").Inc()
	m.FilesProcessed.WithLabelValues("archived").Inc()
	m.SyncRecords.WithLabelValues("headers").Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("archived")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invwatch_files_processed_total{outcome="archived"} 2`)
	assert.Contains(t, rec.Body.String(), `invwatch_sync_records_uploaded_total{table="headers"} 3`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}

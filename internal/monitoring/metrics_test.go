package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

// counterValue 读取计数器当前值
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordHTTPRequest(http.MethodPost, "/api/generate-email", "200", 15*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/api/generate-email", "200", 5*time.Millisecond)
	m.RecordAddressCreated()
	m.RecordMessageLookup()
	m.RecordStoreError("insert")
	m.RecordPanic()

	assert.Equal(t, 2.0, counterValue(t, m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/generate-email", "200")))
	assert.Equal(t, 1.0, counterValue(t, m.AddressesCreated))
	assert.Equal(t, 1.0, counterValue(t, m.MessageLookups))
	assert.Equal(t, 1.0, counterValue(t, m.StoreErrors.WithLabelValues("insert")))
	assert.Equal(t, 1.0, counterValue(t, m.PanicsTotal))
}

func TestMetrics_RecordCleanup(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordCleanup(CleanupSucceeded, 3, time.Second)
	m.RecordCleanup(CleanupSucceeded, -1, time.Second)
	m.RecordCleanup(CleanupFailed, 0, time.Second)
	m.RecordCleanup(CleanupSkipped, 0, 0)

	assert.Equal(t, 2.0, counterValue(t, m.CleanupRuns.WithLabelValues(CleanupSucceeded)))
	assert.Equal(t, 1.0, counterValue(t, m.CleanupRuns.WithLabelValues(CleanupFailed)))
	assert.Equal(t, 1.0, counterValue(t, m.CleanupRuns.WithLabelValues(CleanupSkipped)))
	assert.Equal(t, 3.0, counterValue(t, m.CleanupDeactivated))
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordAddressCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "privateinbox_addresses_created_total 1")
}

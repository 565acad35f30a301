package metrics

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := InitRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, GetRegistry())
}

func TestRecordCell(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(SweepCellsTotal.WithLabelValues(StatusSkipped))

	RecordCell(StatusSkipped, 0)
	RecordCell(StatusSkipped, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(SweepCellsTotal.WithLabelValues(StatusSkipped)))
}

func TestUpdateBestSharpe(t *testing.T) {
	InitRegistry()

	UpdateBestSharpe("SPY", 1.25)
	assert.Equal(t, 1.25, testutil.ToFloat64(SweepBestSharpe.WithLabelValues("SPY")))

	UpdateBestSharpe("SPY", math.NaN())
	assert.Equal(t, 1.25, testutil.ToFloat64(SweepBestSharpe.WithLabelValues("SPY")))
}

func TestSweepStarted(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(SweepsRunning)

	done := SweepStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(SweepsRunning))
	done()
	assert.Equal(t, before, testutil.ToFloat64(SweepsRunning))
}

func TestRecordFetch(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(DataFetchTotal.WithLabelValues("csv", "success"))

	assert.NotPanics(t, func() {
		RecordFetch("csv", "success", 0.01)
		RecordCacheHit()
	})
	assert.Equal(t, before+1, testutil.ToFloat64(DataFetchTotal.WithLabelValues("csv", "success")))
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordCell(StatusCompleted, 0.02)
	RecordSweepDuration(3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "strategy_lab_sweep_cells_total"))
	assert.True(t, strings.Contains(body, "strategy_lab_sweep_duration_seconds"))
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("BOTH_KNOWN", "api"))

	RecordPrediction("BOTH_KNOWN", "api", 0.002)

	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("BOTH_KNOWN", "api")))
}

func TestRecordSlateRefresh(t *testing.T) {
	InitRegistry()

	RecordSlateRefresh(OutcomeSuccess, 15, 1.2)
	assert.Equal(t, float64(15), testutil.ToFloat64(SlateGames))

	RecordSlateRefresh(OutcomeFailure, 0, 0.1)
	assert.Equal(t, float64(15), testutil.ToFloat64(SlateGames), "failures keep the last size")
}

func TestUpdateStatsCacheHitRatio(t *testing.T) {
	tests := []struct {
		name   string
		hits   uint64
		misses uint64
		want   float64
	}{
		{"three quarters", 3, 1, 0.75},
		{"all misses", 0, 4, 0},
		{"no traffic keeps previous", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			UpdateStatsCacheHitRatio(tt.hits, tt.misses)
			assert.Equal(t, tt.want, testutil.ToFloat64(StatsCacheHitRatio))
		})
	}
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "2xx", statusText(http.StatusOK))
	assert.Equal(t, "3xx", statusText(http.StatusFound))
	assert.Equal(t, "4xx", statusText(http.StatusBadRequest))
	assert.Equal(t, "5xx", statusText(http.StatusBadGateway))
}

func TestHandler(t *testing.T) {
	RecordHTTPRequest("/v1/teams", http.StatusOK)
	UpdateStreamSubscribers(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mlb_predictor_http_requests_total")
	assert.Contains(t, string(body), "mlb_predictor_stream_subscribers 2")
}

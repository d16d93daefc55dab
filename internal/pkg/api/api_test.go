package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/internetarchive/parapipe/internal/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandler(t *testing.T) {
	stats.Reset()
	defer stats.Reset()
	require.NoError(t, stats.Init())
	stats.LineFed(3)
	stats.BytesCollectedAdd(3)

	mux := http.NewServeMux()
	registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "parapipe", status.Role)
	assert.Equal(t, uint64(1), status.LinesFed)
	assert.Equal(t, uint64(3), status.BytesCollected)
	assert.NotEmpty(t, status.Stats)
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	mux := http.NewServeMux()
	registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsNeedPrometheus(t *testing.T) {
	mux := http.NewServeMux()
	registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopWithoutStart(t *testing.T) {
	assert.NoError(t, Stop(0))
}

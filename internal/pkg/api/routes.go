package api

import (
	"net/http"

	"github.com/internetarchive/parapipe/internal/pkg/config"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// registerRoutes attaches all API handlers to mux.
func registerRoutes(mux *http.ServeMux) {
	if config.Get() != nil && config.Get().Prometheus {
		mux.Handle("GET /metrics", stats.PrometheusHandler())
	}
	mux.HandleFunc("GET /status", statusHandler)
}

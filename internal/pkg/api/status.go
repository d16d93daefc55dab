package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/config"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
	"github.com/internetarchive/parapipe/internal/pkg/utils"
)

// StatusResponse represents the structure of the status API response
type StatusResponse struct {
	Role           string         `json:"role"`
	Version        string         `json:"version"`
	Host           string         `json:"host"`
	Job            string         `json:"job"`
	Command        string         `json:"command"`
	Workers        int            `json:"workers"`
	WorkersRunning uint64         `json:"workers_running"`
	LinesFed       uint64         `json:"lines_fed"`
	BytesCollected uint64         `json:"bytes_collected"`
	StartTime      string         `json:"start_time"`
	Stats          map[string]any `json:"stats"`
}

var startTime = time.Now()

// statusHandler handles GET requests to /status
func statusHandler(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	response := StatusResponse{
		Role:           "parapipe",
		Version:        utils.GetVersion().Version,
		Host:           hostname,
		WorkersRunning: stats.WorkersRunningGet(),
		LinesFed:       stats.LinesFedGet(),
		BytesCollected: stats.BytesCollectedGet(),
		StartTime:      startTime.Format(time.RFC3339),
		Stats:          stats.GetMap(),
	}

	if cfg := config.Get(); cfg != nil {
		response.Job = cfg.Job
		response.Command = cfg.Command
		response.Workers = cfg.WorkersCount
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
}

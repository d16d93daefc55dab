// Package stats keeps the process-wide counters of a run and mirrors them
// to Prometheus. Every method is a no-op until Init is called.
package stats

import (
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/internetarchive/parapipe/internal/pkg/utils"
)

type stats struct {
	WorkersRunning    *counter
	WorkersFinished   *counter
	LinesFed          *rate
	BytesFed          *counter
	LinesDropped      *counter
	BytesCollected    *counter
	ChannelsAllocated *counter
	StagesStarted     *counter
	StagesFailed      *counter
}

var (
	globalStats     atomic.Pointer[stats]
	globalPromStats atomic.Pointer[prometheusStats]
	hostname        string
	version         string
)

// Init initializes the global stats and registers the Prometheus collectors
func Init() error {
	s := &stats{
		WorkersRunning:    &counter{},
		WorkersFinished:   &counter{},
		LinesFed:          newRate(),
		BytesFed:          &counter{},
		LinesDropped:      &counter{},
		BytesCollected:    &counter{},
		ChannelsAllocated: &counter{},
		StagesStarted:     &counter{},
		StagesFailed:      &counter{},
	}

	if !globalStats.CompareAndSwap(nil, s) {
		return ErrStatsAlreadyInitialized
	}

	hostname, _ = os.Hostname()
	version = utils.GetVersion().Version

	promStats := newPrometheusStats()
	promStats.register()
	globalPromStats.Store(promStats)

	return nil
}

// Reset drops the global stats, the package is a no-op again until the next Init
func Reset() {
	globalStats.Store(nil)
	globalPromStats.Store(nil)
}

// GetMap returns a map of the current stats.
// This is used by the live stats display and the status API.
func GetMap() map[string]any {
	s := globalStats.Load()
	if s == nil {
		return map[string]any{}
	}

	return map[string]any{
		"Workers running":    s.WorkersRunning.get(),
		"Workers finished":   s.WorkersFinished.get(),
		"Lines fed/s":        s.LinesFed.get(),
		"Lines fed":          s.LinesFed.getTotal(),
		"Data fed":           humanize.Bytes(s.BytesFed.get()),
		"Lines dropped":      s.LinesDropped.get(),
		"Data collected":     humanize.Bytes(s.BytesCollected.get()),
		"Channels allocated": s.ChannelsAllocated.get(),
		"Stages started":     s.StagesStarted.get(),
		"Stages failed":      s.StagesFailed.get(),
	}
}

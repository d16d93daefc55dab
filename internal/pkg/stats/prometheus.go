package stats

import (
	"net/http"

	"github.com/internetarchive/parapipe/internal/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var promLabels = []string{"job", "hostname", "version"}

type prometheusStats struct {
	registry *prometheus.Registry

	workersRunning    *prometheus.GaugeVec
	linesFed          *prometheus.CounterVec
	bytesFed          *prometheus.CounterVec
	linesDropped      *prometheus.CounterVec
	bytesCollected    *prometheus.CounterVec
	channelsAllocated *prometheus.CounterVec
	stagesStarted     *prometheus.CounterVec
	stagesFailed      *prometheus.CounterVec
}

func newPrometheusStats() *prometheusStats {
	prefix := prometheusPrefix()

	return &prometheusStats{
		registry: prometheus.NewRegistry(),
		workersRunning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: prefix + "workers_running", Help: "Number of workers currently running a pipeline instance"},
			promLabels,
		),
		linesFed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "lines_fed_total", Help: "Total number of input lines written to first stages"},
			promLabels,
		),
		bytesFed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "bytes_fed_total", Help: "Total number of input bytes written to first stages"},
			promLabels,
		),
		linesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "lines_dropped_total", Help: "Total number of input lines a first stage stopped accepting"},
			promLabels,
		),
		bytesCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "bytes_collected_total", Help: "Total number of bytes forwarded from last stages to the output"},
			promLabels,
		),
		channelsAllocated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "channels_allocated_total", Help: "Total number of inter-stage channels allocated"},
			promLabels,
		),
		stagesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "stages_started_total", Help: "Total number of stage processes started"},
			promLabels,
		),
		stagesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "stages_failed_total", Help: "Total number of stage processes that failed to start or exited non-zero"},
			promLabels,
		),
	}
}

func (p *prometheusStats) register() {
	p.registry.MustRegister(
		p.workersRunning,
		p.linesFed,
		p.bytesFed,
		p.linesDropped,
		p.bytesCollected,
		p.channelsAllocated,
		p.stagesStarted,
		p.stagesFailed,
	)
}

func prometheusPrefix() string {
	if config.Get() == nil || config.Get().PrometheusPrefix == "" {
		return "parapipe_"
	}
	return config.Get().PrometheusPrefix
}

func labelValues() []string {
	job := ""
	if config.Get() != nil {
		job = config.Get().Job
	}
	return []string{job, hostname, version}
}

// PrometheusHandler returns the HTTP handler exposing the registered metrics
func PrometheusHandler() http.Handler {
	promStats := globalPromStats.Load()
	if promStats == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(promStats.registry, promhttp.HandlerOpts{})
}

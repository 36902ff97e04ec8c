package cleanup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-run counters on a private registry so they can be
// written to a textfile for node_exporter.
type Metrics struct {
	Registry *prometheus.Registry

	moves         *prometheus.CounterVec
	splitImages   *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the cleanup collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		moves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dscurate_moves_total",
				Help: "Number of quarantine decisions",
			},
			[]string{"stage", "reason", "action"},
		),
		splitImages: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dscurate_split_images",
				Help: "Images present in each split after the last stage",
			},
			[]string{"split"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dscurate_stage_duration_seconds",
				Help:    "Wall time spent per cleanup stage",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"stage"},
		),
	}
}

// WriteTextfile dumps the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

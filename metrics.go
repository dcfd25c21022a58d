package orrery

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	propagatedSteps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orrery_propagated_steps_total",
			Help: "Total number of integration steps appended to an archive.",
		},
	)

	propagationStepSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orrery_propagation_step_seconds",
			Help:    "Wall time spent computing one integration step.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	archiveLastStep = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orrery_archive_last_step",
			Help: "Index of the last step published to an archive.",
		},
	)

	porkchopCells = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_porkchop_cells_total",
			Help: "Total number of porkchop grid cells evaluated.",
		},
		[]string{"result"},
	)

	transferDesignSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orrery_transfer_design_seconds",
			Help:    "Wall time spent designing one transfer.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(propagatedSteps)
	prometheus.MustRegister(propagationStepSeconds)
	prometheus.MustRegister(archiveLastStep)
	prometheus.MustRegister(porkchopCells)
	prometheus.MustRegister(transferDesignSeconds)
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	AnalysisRuns    *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration   *prometheus.HistogramVec // labels: stage={aoi,fetch,reduce,aggregate,extract,publish,render}

	// Remote retrieval metrics.
	BoundaryRequests prometheus.Counter
	BoundaryCache    *prometheus.CounterVec // labels: result={hit,miss}
	FetchRequests    *prometheus.CounterVec // labels: variable, outcome={success,error}

	// Raster processing metrics.
	CellsProcessed prometheus.Counter
	CellsMasked    prometheus.Counter
	PointsSampled  prometheus.Counter
	ZonesComputed  prometheus.Counter

	// Result publication metrics.
	MessagesPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "normals_etl",
			Name:      "pipeline_running",
			Help:      "1 while the analysis pipeline is active, 0 otherwise.",
		}),
		AnalysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "analysis_runs_total",
			Help:      "Completed analysis runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "normals_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		BoundaryRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "boundary_requests_total",
			Help:      "Requests made to the boundary service.",
		}),
		BoundaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "boundary_cache_total",
			Help:      "Boundary cache lookups by result.",
		}, []string{"result"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "fetch_requests_total",
			Help:      "Monthly grid fetches by variable and outcome.",
		}, []string{"variable", "outcome"}),
		CellsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "cells_processed_total",
			Help:      "Raster cells passed through reduction.",
		}),
		CellsMasked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "cells_masked_total",
			Help:      "Raster cells set to NoData by AOI masking.",
		}),
		PointsSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "points_sampled_total",
			Help:      "Point features sampled against the summary stack.",
		}),
		ZonesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "zones_computed_total",
			Help:      "Polygon zones aggregated.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "normals_etl",
			Name:      "messages_published_total",
			Help:      "Result messages written to the sink topic.",
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.AnalysisRuns,
		m.StageDuration,
		m.BoundaryRequests,
		m.BoundaryCache,
		m.FetchRequests,
		m.CellsProcessed,
		m.CellsMasked,
		m.PointsSampled,
		m.ZonesComputed,
		m.MessagesPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "normals_etl", Name: "pipeline_running"}),
		AnalysisRuns:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "normals_etl", Name: "analysis_runs_total"}, []string{"outcome"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "normals_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		BoundaryRequests:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "boundary_requests_total"}),
		BoundaryCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "normals_etl", Name: "boundary_cache_total"}, []string{"result"}),
		FetchRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "normals_etl", Name: "fetch_requests_total"}, []string{"variable", "outcome"}),
		CellsProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "cells_processed_total"}),
		CellsMasked:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "cells_masked_total"}),
		PointsSampled:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "points_sampled_total"}),
		ZonesComputed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "zones_computed_total"}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "normals_etl", Name: "messages_published_total"}),
	}
}

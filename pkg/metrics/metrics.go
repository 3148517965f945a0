package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// We use 'promauto' which automatically registers metrics without complex initialization.

var (
	// 1. HTTP Requests Total (Counter)
	// Counts how many requests arrive, labeled by method, path, and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexviz_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// 2. HTTP Request Duration (Histogram)
	// Measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cortexviz_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// 3. Scene Builds (Counter)
	// Counts view constructions, labeled by view mode.
	SceneBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexviz_scene_builds_total",
			Help: "Total number of scenes built, by view mode",
		},
		[]string{"mode"},
	)

	// 4. Scene Build Duration (Histogram)
	// Every mode is bounded by fixed ceilings, so the buckets stay small.
	SceneBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cortexviz_scene_build_duration_seconds",
			Help:    "Duration of scene construction in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"mode"},
	)

	// 5. Graph Size (Gauges)
	// Tracks the number of indexed notes and outbound related links.
	GraphNotes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortexviz_graph_notes",
			Help: "Number of notes currently indexed",
		},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortexviz_graph_edges",
			Help: "Number of related links currently indexed",
		},
	)

	// 6. Index Rebuild Duration (Histogram)
	// Measures the wholesale rebuild that follows every load and mutation.
	IndexRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortexviz_index_rebuild_duration_seconds",
			Help:    "Duration of derived index rebuilds in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	// 7. Mutations (Counter)
	// Counts applied mutations, labeled by operation (edit, delete).
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexviz_mutations_total",
			Help: "Total number of graph mutations applied",
		},
		[]string{"op"},
	)
)

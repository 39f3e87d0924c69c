// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_frames_analyzed_total",
		Help: "Frames run through the vision pipeline by outcome",
	}, []string{"outcome"})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "totem_frame_analysis_duration_seconds",
		Help:    "Wall-clock cost of one frame analysis",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1.0, 2.0},
	})

	VisionWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_vision_warnings_total",
		Help: "Non-fatal vision diagnostics by stage and code",
	}, []string{"stage", "code"})

	AccessoriesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_accessories_detected_total",
		Help: "Accessory labels emitted by the detectors",
	}, []string{"label"})

	RecommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "totem_recommendation_duration_seconds",
		Help:    "Recommendation generation latency by type",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"type"})

	SearchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "totem_search_synonym_fallbacks_total",
		Help: "Searches answered by the synonym fallback",
	})

	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_interactions_total",
		Help: "Tracked interactions by type",
	}, []string{"type"})

	VoiceIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_voice_intents_total",
		Help: "Voice utterances by extracted intent",
	}, []string{"intent"})

	ShiftRollovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "totem_shift_rollovers_total",
		Help: "Shifts opened by rollover",
	})

	SummaryRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "totem_shift_summary_rows_total",
		Help: "Detection buffer rows consumed by summaries",
	})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "totem_stream_clients_active",
		Help: "Open live frame stream connections",
	})

	SoftErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "totem_soft_errors_total",
		Help: "Swallowed recoverable errors by component",
	}, []string{"component"})
)

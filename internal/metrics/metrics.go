// Package metrics exposes the Prometheus collectors shared by the
// coordinator, slideshow, and DLS engines, grounded on the teacher's
// pipeline/worker metrics (promauto.NewCounterVec/NewHistogramVec).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts emitted ticks per engine and outcome (ok, no_content,
	// error, repeat).
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padenc_ticks_total",
			Help: "Total coordinator ticks by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	// SelectionDuration tracks how long a single next()/next_image() call
	// takes, to catch the "hold the lock only long enough" invariant
	// regressing in practice.
	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "padenc_selection_duration_seconds",
			Help:    "Duration of a single selection call.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"engine"},
	)

	// SlideshowCacheSize is the current number of image entries in the
	// carousel cache.
	SlideshowCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "padenc_slideshow_cache_size",
			Help: "Current number of image entries in the slideshow cache.",
		},
	)

	// DLSQueueSize is the current number of live DLS messages.
	DLSQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "padenc_dls_queue_size",
			Help: "Current number of live DLS messages.",
		},
	)

	// DedupHitsTotal counts suppressed duplicate add() calls, by engine.
	DedupHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padenc_dedup_hits_total",
			Help: "Total add() calls suppressed as duplicates, by engine.",
		},
		[]string{"engine"},
	)

	// CodecFailuresTotal counts image codec adapter failures by reason.
	CodecFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padenc_codec_failures_total",
			Help: "Total image codec adapter failures by reason.",
		},
		[]string{"reason"},
	)

	// EmergencyActive reports whether the coordinator's emergency override
	// is currently active (1) or not (0).
	EmergencyActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "padenc_emergency_active",
			Help: "1 if the emergency override is active, 0 otherwise.",
		},
	)
)

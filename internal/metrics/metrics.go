package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Span drop reasons
const (
	DropBadOffset    = "bad_offset"
	DropOutOfRange   = "out_of_range"
	DropNotBoundary  = "not_boundary"
	DropNoSources    = "no_sources"
	DropBadReference = "bad_reference"
)

var (
	// Composition metrics
	SpansDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askcite_spans_dropped_total",
			Help: "Citation spans dropped during composition",
		},
		[]string{"reason"},
	)

	ComposeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askcite_compose_total",
			Help: "Answer compositions by outcome",
		},
		[]string{"outcome"},
	)

	// Deep link metrics
	DeepLinkLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askcite_deeplink_lookups_total",
			Help: "Deep link lookups by result (success, failure, cache_hit)",
		},
		[]string{"result"},
	)

	DeepLinkLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askcite_deeplink_lookup_duration_seconds",
			Help:    "Deep link lookup latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Stream metrics
	StreamFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askcite_stream_frames_total",
			Help: "Frames emitted to stream consumers",
		},
		[]string{"type"},
	)
)

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversation metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aura_active_sessions",
		Help: "Number of live dialogue sessions",
	})

	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aura_turns_total",
		Help: "Orchestration cycles by intent and outcome kind",
	}, []string{"intent", "outcome"})

	DispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aura_dispatch_latency_seconds",
		Help:    "End-to-end latency of one transcript dispatch",
		Buckets: prometheus.DefBuckets,
	})

	DuplicateEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aura_duplicate_events_total",
		Help: "Redelivered transcript events resolved from the dedup store",
	})

	// UnresolvableIntentsTotal counts confident intents with no registered
	// skill. A configuration-gap signal, separate from low-confidence
	// fallbacks.
	UnresolvableIntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aura_unresolvable_intents_total",
		Help: "Confident intents that resolved to no registered skill",
	}, []string{"intent"})

	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aura_fallbacks_total",
		Help: "Turns routed to the fallback generator",
	}, []string{"reason"})

	// Lifecycle metrics
	SessionsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aura_sessions_evicted_total",
		Help: "Sessions removed by TTL sweep or room signal",
	}, []string{"reason"})

	StateTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aura_state_timeouts_total",
		Help: "Per-state dialogue deadlines that expired",
	})

	DroppedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aura_dropped_events_total",
		Help: "Transcript events rejected because a session queue was full",
	})

	// Backend metrics
	ClassifierLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aura_classifier_latency_seconds",
		Help:    "Intent classification call latency",
		Buckets: prometheus.DefBuckets,
	})

	SynthesisPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aura_synthesis_published_total",
		Help: "Outbound synthesis requests handed to the TTS collaborator",
	})
)

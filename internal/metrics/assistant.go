package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider (LLM) transport metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casebud",
			Name:      "provider_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casebud",
			Name:      "provider_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casebud",
			Name:      "provider_tokens_total",
			Help:      "Total tokens consumed by chat completions",
		},
		[]string{"provider", "model", "type"},
	)
)

// Generation metrics, recorded by the AI response generator.
var (
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casebud",
			Name:      "generation_duration_seconds",
			Help:      "Duration of AI response generation calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "outcome"},
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casebud",
			Name:      "generation_errors_total",
			Help:      "AI response generation failures by kind",
		},
		[]string{"model", "kind"},
	)
)

// Web search metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casebud",
			Name:      "search_requests_total",
			Help:      "Total number of web search requests",
		},
		[]string{"provider", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casebud",
			Name:      "search_request_duration_seconds",
			Help:      "Web search request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
)

// Classification cache and model availability.
var (
	ClassificationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casebud",
			Name:      "classification_cache_total",
			Help:      "Document-intent classification cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ModelReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "casebud",
			Name:      "model_ready",
			Help:      "1 if the model passed warm-up, 0 otherwise",
		},
		[]string{"model"},
	)
)

var registerOnce sync.Once

// RegisterAssistantMetrics registers the HTTP and assistant collectors with
// the default registry. Safe to call more than once.
func RegisterAssistantMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			ProviderRequestsTotal,
			ProviderRequestDuration,
			ProviderTokensTotal,
			GenerationDuration,
			GenerationErrorsTotal,
			SearchRequestsTotal,
			SearchRequestDuration,
			ClassificationCacheTotal,
			ModelReady,
		)
	})
}

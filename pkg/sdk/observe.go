package casebud

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as the "operation" label.
const (
	opAskDirect    = "ask_direct"
	opAskDeep      = "ask_deep_think"
	opAskWebSearch = "ask_web_search"
	opModelStatus  = "model_status"
	opHealth       = "health"
)

// askOperation labels an ask by the path the service will take.
func askOperation(req askRequest) string {
	switch {
	case req.WebSearch:
		return opAskWebSearch
	case req.DeepThink:
		return opAskDeep
	default:
		return opAskDirect
	}
}

// outcome maps an error to a bounded label value.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "no_results"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "upstream_timeout"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	default:
		return "transport"
	}
}

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	docIntents prometheus.Counter
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casebud",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		// Search answers make three upstream calls; buckets reach minutes.
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casebud",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 180},
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casebud",
			Subsystem: "sdk",
			Name:      "retries_total",
			Help:      "Retried requests after rate-limited or unavailable responses.",
		}, []string{"operation", "outcome"}),
		docIntents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casebud",
			Subsystem: "sdk",
			Name:      "document_intents_total",
			Help:      "Direct answers flagged as document-drafting requests.",
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.retries); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.docIntents); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("casebud: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("casebud: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err == nil {
		o.logger.Debug("operation completed", "op", op, "duration", dur)
		return
	}
	attrs := []any{"op", op, "outcome", out, "duration", dur, "error", err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status_code", apiErr.StatusCode)
	}
	o.logger.Warn("operation failed", attrs...)
}

// answered records per-answer facts that only a successful ask carries.
func (o *observer) answered(ans Answer) {
	if o == nil || o.metrics == nil {
		return
	}
	if ans.WantsDocument() {
		o.metrics.docIntents.Inc()
	}
}

// retry is the backoff notify hook.
func (o *observer) retry(op string, err error, wait time.Duration) {
	if o == nil {
		return
	}
	out := outcome(err)
	if o.metrics != nil {
		o.metrics.retries.WithLabelValues(op, out).Inc()
	}
	if o.logger != nil {
		o.logger.Info("retrying", "op", op, "outcome", out, "wait", wait)
	}
}

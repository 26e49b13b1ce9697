package generation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/metrics"
)

// Generator wraps a Completer with error classification, timing and logging.
// Transport metrics (requests, tokens) are recorded in transport/openai.
// This layer owns the generation outcome metrics only.
type Generator struct {
	inner  domain.Completer
	logger *zap.Logger
}

// New wraps a completer.
func New(inner domain.Completer, logger *zap.Logger) *Generator {
	return &Generator{inner: inner, logger: logger}
}

// Generate returns the provider text verbatim. Failures are wrapped with
// domain.ErrRateLimited, domain.ErrTimeout or domain.ErrGenerationFailed.
// There is no retry.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error) {
	start := time.Now()

	text, err := g.inner.Complete(ctx, systemPrompt, userPrompt, m)

	duration := time.Since(start)

	if err != nil {
		kind := domain.ClassifyProviderError(err)
		metrics.GenerationDuration.WithLabelValues(m.ID(), "error").Observe(duration.Seconds())
		metrics.GenerationErrorsTotal.WithLabelValues(m.ID(), kind.String()).Inc()

		g.logger.Error("Generation failed",
			zap.String("model", m.ID()),
			zap.String("kind", kind.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", domain.WrapProviderError(err)
	}

	metrics.GenerationDuration.WithLabelValues(m.ID(), "success").Observe(duration.Seconds())

	g.logger.Debug("Generation completed",
		zap.String("model", m.ID()),
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(text)),
	)

	return text, nil
}

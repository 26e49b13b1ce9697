package warmup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/metrics"
)

const (
	greetingSystem = "You are a helpful assistant."
	greetingUser   = "Hello"
)

// Generator produces model text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error)
}

// Tracker records which models answered a warm-up call since startup.
// A model goes from not ready to ready once and never back. The flag set is
// fixed at construction, so reads need no lock.
type Tracker struct {
	gen      Generator
	standard model.ID
	deep     model.ID
	models   []model.ID
	ready    map[string]*atomic.Bool
	logger   *zap.Logger
}

// New creates a tracker for the standard and (optional) deep tier models.
func New(gen Generator, standard, deep model.ID, logger *zap.Logger) *Tracker {
	t := &Tracker{
		gen:      gen,
		standard: standard,
		deep:     deep,
		ready:    make(map[string]*atomic.Bool),
		logger:   logger,
	}
	for _, m := range []model.ID{standard, deep} {
		if m.IsZero() {
			continue
		}
		if _, dup := t.ready[m.ID()]; dup {
			continue
		}
		t.models = append(t.models, m)
		t.ready[m.ID()] = &atomic.Bool{}
		metrics.ModelReady.WithLabelValues(m.ID()).Set(0)
	}
	return t
}

// WarmUp exercises every known model once, concurrently. Failures are
// logged and leave the model not ready; they never stop startup.
func (t *Tracker) WarmUp(ctx context.Context) {
	// warm never fails, so no member cancels the others.
	var g errgroup.Group
	for _, m := range t.models {
		g.Go(func() error {
			t.warm(ctx, m)
			return nil
		})
	}
	_ = g.Wait()
}

func (t *Tracker) warm(ctx context.Context, m model.ID) {
	start := time.Now()
	if _, err := t.gen.Generate(ctx, greetingSystem, greetingUser, m); err != nil {
		t.logger.Warn("Model warm-up failed",
			zap.String("model", m.ID()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	t.ready[m.ID()].Store(true)
	metrics.ModelReady.WithLabelValues(m.ID()).Set(1)
	t.logger.Info("Model warmed up",
		zap.String("model", m.ID()),
		zap.Duration("duration", time.Since(start)),
	)
}

// Select resolves a tier to a ready model. Deep falls back to standard
// silently; with no ready model it fails with domain.ErrServiceUnavailable.
func (t *Tracker) Select(tier model.Tier) (model.ID, error) {
	if tier == model.Deep && t.IsReady(t.deep) {
		return t.deep, nil
	}
	if t.IsReady(t.standard) {
		return t.standard, nil
	}
	return model.ID{}, fmt.Errorf("%w: no AI model is ready to serve the request", domain.ErrServiceUnavailable)
}

// IsReady reports whether m passed warm-up.
func (t *Tracker) IsReady(m model.ID) bool {
	flag, ok := t.ready[m.ID()]
	return ok && flag.Load()
}

// AnyReady reports whether at least one model passed warm-up.
func (t *Tracker) AnyReady() bool {
	for _, m := range t.models {
		if t.IsReady(m) {
			return true
		}
	}
	return false
}

// Status returns a snapshot of readiness keyed by canonical model id.
func (t *Tracker) Status() map[string]bool {
	out := make(map[string]bool, len(t.models))
	for _, m := range t.models {
		out[m.ID()] = t.ready[m.ID()].Load()
	}
	return out
}

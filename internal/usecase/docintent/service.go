package docintent

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/logger"
)

// Tokens produced by the classifier. The model output is not parsed; these
// are the two values the instruction asks for and the failure default.
const (
	TokenTrue  = "true"
	TokenFalse = "false"
)

const classifyPrompt = "You decide whether a user is asking for a legal document to be drafted. " +
	"Answer \"true\" only if the user explicitly and unambiguously asks for a document " +
	"(for example a contract, agreement, notice, affidavit or letter) to be produced " +
	"AND provides enough detail about its content to draft it. " +
	"Answer \"false\" in every other case, including when a document is only implied " +
	"or the request lacks the details needed to write it. " +
	"Reply with exactly one word: true or false."

// Service classifies document intent with a memoized model call.
type Service struct {
	gen    Generator
	cache  Cache
	model  model.ID
	logger *zap.Logger

	// mu guards closed and orders wg.Add before Close's wg.Wait.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a classifier that calls m through gen and memoizes in cache.
func New(gen Generator, cache Cache, m model.ID, logger *zap.Logger) *Service {
	return &Service{gen: gen, cache: cache, model: m, logger: logger}
}

// Classify returns the token for query. It never fails: any provider error
// is logged and reported as TokenFalse, and nothing is cached for it.
func (s *Service) Classify(ctx context.Context, query string) string {
	token, err := s.cache.GetOrCompute(ctx, query, func(ctx context.Context) (string, error) {
		out, err := s.gen.Generate(ctx, classifyPrompt, query, s.model)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Document intent classification failed",
			zap.String("model", s.model.ID()),
			zap.Error(err),
		)
		return TokenFalse
	}
	return token
}

// Warm classifies query in the background to populate the cache. It is
// detached from ctx cancellation and does not block the caller. A concurrent
// Classify for the same query may issue its own provider call. After Close
// it does nothing; Classify still works synchronously.
func (s *Service) Warm(ctx context.Context, query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		s.Classify(bg, query)
	}()
}

// Wait blocks until all background classifications started so far have
// finished. Warm may still start new ones; use Close at shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close stops accepting background work and waits for running
// classifications. Safe to call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

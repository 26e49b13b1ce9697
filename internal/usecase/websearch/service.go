package websearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/domain/search/result"
)

// Service refines a question, searches the web and summarizes the hits.
type Service struct {
	gen      Generator
	searcher domain.Searcher
	model    model.ID
	opts     domain.SearchOptions
	logger   *zap.Logger
}

// New creates the search orchestrator. m is used for both generator hops.
func New(gen Generator, searcher domain.Searcher, m model.ID, opts domain.SearchOptions, logger *zap.Logger) *Service {
	return &Service{gen: gen, searcher: searcher, model: m, opts: opts, logger: logger}
}

// SearchAndSummarize runs refine, search and summarize strictly in sequence.
// Zero hits fail with domain.ErrNotFound; there is no fallback to a direct answer.
func (s *Service) SearchAndSummarize(ctx context.Context, rawQuery string) (string, error) {
	refined, err := s.gen.Generate(ctx, refinePrompt, rawQuery, s.model)
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}

	results, err := s.searcher.Search(ctx, refined, s.opts)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	if len(results) == 0 {
		s.logger.Info("Web search returned no results", zap.String("refined_query", refined))
		return "", domain.ErrNotFound
	}

	s.logger.Debug("Web search completed",
		zap.String("refined_query", refined),
		zap.Int("results", len(results)),
	)

	summary, err := s.gen.Generate(ctx, summarizePrompt, result.JoinBlocks(results), s.model)
	if err != nil {
		return "", fmt.Errorf("summarize results: %w", err)
	}
	return summary, nil
}

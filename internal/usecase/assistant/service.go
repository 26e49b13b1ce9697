package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain/answer"
	"github.com/kailas-cloud/casebud/internal/domain/query"
	"github.com/kailas-cloud/casebud/internal/logger"
)

const personaPrompt = "You are CaseBud, a legal AI assistant. " +
	"Your role is to assist with legal queries by providing accurate, concise and context-aware responses. " +
	"Explain legal concepts in plain language, mention the relevant law or jurisdiction when it matters, " +
	"and recommend consulting a qualified lawyer for decisions with legal consequences. " +
	"If the user asks for a legal document and gives enough detail, draft it."

// Service routes a legal question to web search or a direct model answer.
type Service struct {
	gen        Generator
	search     WebSearcher
	classifier Classifier
	models     ModelSelector
	logger     *zap.Logger
}

// New creates the request router.
func New(gen Generator, search WebSearcher, classifier Classifier, models ModelSelector, logger *zap.Logger) *Service {
	return &Service{
		gen:        gen,
		search:     search,
		classifier: classifier,
		models:     models,
		logger:     logger,
	}
}

// Answer validates the question and produces an answer. Every failure is one
// of the domain sentinels, wrapped; nothing is retried.
func (s *Service) Answer(ctx context.Context, text string, webSearch, deepThink bool) (answer.Answer, error) {
	q, err := query.New(text, webSearch, deepThink)
	if err != nil {
		return answer.Answer{}, err
	}

	if q.WebSearch() {
		return s.answerFromSearch(ctx, q)
	}
	return s.answerDirect(ctx, q)
}

func (s *Service) answerFromSearch(ctx context.Context, q query.Query) (answer.Answer, error) {
	summary, err := s.search.SearchAndSummarize(ctx, q.Text())
	if err != nil {
		return answer.Answer{}, fmt.Errorf("search branch: %w", err)
	}
	return answer.FromSearch(q.Text(), summary), nil
}

func (s *Service) answerDirect(ctx context.Context, q query.Query) (answer.Answer, error) {
	m, err := s.models.Select(q.Tier())
	if err != nil {
		return answer.Answer{}, err
	}

	s.classifier.Warm(ctx, q.Text())

	response, err := s.gen.Generate(ctx, personaPrompt, q.Text(), m)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("direct branch: %w", err)
	}

	isDocGen := s.classifier.Classify(ctx, q.Text())

	logger.FromContextOr(ctx, s.logger).Debug("Direct answer assembled",
		zap.String("model", m.ID()),
		zap.String("tier", string(q.Tier())),
		zap.String("is_doc_gen", isDocGen),
	)

	return answer.FromModel(q.Text(), response, m.Short(), isDocGen), nil
}

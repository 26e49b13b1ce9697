package assistant

import (
	"context"

	"github.com/kailas-cloud/casebud/internal/domain/model"
)

// Generator produces model text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error)
}

// WebSearcher answers a question from live web search results.
type WebSearcher interface {
	SearchAndSummarize(ctx context.Context, rawQuery string) (string, error)
}

// Classifier resolves the document-intent token for a query.
type Classifier interface {
	Classify(ctx context.Context, query string) string
	Warm(ctx context.Context, query string)
}

// ModelSelector resolves a tier to a ready model.
type ModelSelector interface {
	Select(tier model.Tier) (model.ID, error)
}

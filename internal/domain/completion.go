package domain

import (
	"context"

	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/domain/search/result"
)

// Completer is the text-generation contract shared between layers.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error)
}

// SearchOptions tunes a single web-search call.
type SearchOptions struct {
	Limit    int
	Region   string
	Language string
}

// Searcher is the ranked web-search contract.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]result.Result, error)
}

// HealthChecker verifies upstream availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

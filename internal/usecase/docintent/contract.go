package docintent

import (
	"context"

	"github.com/kailas-cloud/casebud/internal/domain/model"
)

// Generator produces model text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error)
}

// Cache memoizes classification tokens by exact query text.
type Cache interface {
	GetOrCompute(ctx context.Context, query string, compute func(ctx context.Context) (string, error)) (string, error)
}

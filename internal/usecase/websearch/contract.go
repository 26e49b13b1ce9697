package websearch

import (
	"context"

	"github.com/kailas-cloud/casebud/internal/domain/model"
)

// Generator produces model text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, m model.ID) (string, error)
}

package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
)

// Query is a validated legal question.
type Query struct {
	text      string
	webSearch bool
	deepThink bool
}

// New validates the query text. The text is kept as given; only the
// emptiness check trims it.
func New(text string, webSearch, deepThink bool) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: Query cannot be empty", domain.ErrInvalidInput)
	}
	return Query{text: text, webSearch: webSearch, deepThink: deepThink}, nil
}

// Text returns the original query text.
func (q Query) Text() string { return q.text }

// WebSearch reports whether live web search was requested.
func (q Query) WebSearch() bool { return q.webSearch }

// DeepThink reports whether the deep tier was requested.
func (q Query) DeepThink() bool { return q.deepThink }

// Tier returns the requested model tier.
func (q Query) Tier() model.Tier {
	if q.deepThink {
		return model.Deep
	}
	return model.Standard
}

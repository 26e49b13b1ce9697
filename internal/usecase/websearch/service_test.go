package websearch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/domain/search/result"
)

// --- Mocks ---

type generateCall struct {
	system string
	user   string
}

type mockGenerator struct {
	replies []string
	errs    []error
	calls   []generateCall
}

func (m *mockGenerator) Generate(_ context.Context, systemPrompt, userPrompt string, _ model.ID) (string, error) {
	i := len(m.calls)
	m.calls = append(m.calls, generateCall{system: systemPrompt, user: userPrompt})
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return "", nil
}

type mockSearcher struct {
	results   []result.Result
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	calls     int
}

func (m *mockSearcher) Search(_ context.Context, query string, opts domain.SearchOptions) ([]result.Result, error) {
	m.calls++
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

var testOpts = domain.SearchOptions{Limit: 5, Region: "in", Language: "en"}

func newTestService(gen *mockGenerator, s *mockSearcher) *Service {
	return New(gen, s, model.NewID("meta-llama/llama-4-scout"), testOpts, zap.NewNop())
}

// --- Tests ---

func TestSearchAndSummarize_Success(t *testing.T) {
	gen := &mockGenerator{replies: []string{"NDA definition India", "An NDA protects..."}}
	s := &mockSearcher{results: []result.Result{
		result.New("A", "first", "https://a"),
		result.New("B", "second", ""),
	}}
	svc := newTestService(gen, s)

	got, err := svc.SearchAndSummarize(context.Background(), "what is an nda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "An NDA protects..." {
		t.Errorf("got %q", got)
	}

	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 generator calls, got %d", len(gen.calls))
	}
	if gen.calls[0].system != refinePrompt || gen.calls[0].user != "what is an nda" {
		t.Errorf("unexpected refine call: %+v", gen.calls[0])
	}
	if s.lastQuery != "NDA definition India" {
		t.Errorf("refined query must be used verbatim, got %q", s.lastQuery)
	}
	if s.lastOpts != testOpts {
		t.Errorf("unexpected search options: %+v", s.lastOpts)
	}

	wantBody := "Title: A\nSnippet: first\nLink: https://a\n\nTitle: B\nSnippet: second\nLink: "
	if gen.calls[1].system != summarizePrompt || gen.calls[1].user != wantBody {
		t.Errorf("unexpected summarize call: %+v", gen.calls[1])
	}
}

func TestSearchAndSummarize_NoResults(t *testing.T) {
	gen := &mockGenerator{replies: []string{"refined"}}
	svc := newTestService(gen, &mockSearcher{})

	_, err := svc.SearchAndSummarize(context.Background(), "q")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(gen.calls) != 1 {
		t.Errorf("no summarize/fallback call expected, got %d generator calls", len(gen.calls))
	}
}

func TestSearchAndSummarize_SearchUnavailable(t *testing.T) {
	gen := &mockGenerator{replies: []string{"refined"}}
	s := &mockSearcher{err: domain.ErrSearchUnavailable}
	svc := newTestService(gen, s)

	_, err := svc.SearchAndSummarize(context.Background(), "q")
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}

func TestSearchAndSummarize_RefineFails(t *testing.T) {
	gen := &mockGenerator{errs: []error{domain.ErrRateLimited}}
	s := &mockSearcher{}
	svc := newTestService(gen, s)

	_, err := svc.SearchAndSummarize(context.Background(), "q")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if s.calls != 0 {
		t.Error("search must not run when refinement fails")
	}
}

func TestSearchAndSummarize_SummarizeFails(t *testing.T) {
	gen := &mockGenerator{replies: []string{"refined"}, errs: []error{nil, domain.ErrTimeout}}
	s := &mockSearcher{results: []result.Result{result.New("t", "s", "l")}}
	svc := newTestService(gen, s)

	_, err := svc.SearchAndSummarize(context.Background(), "q")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

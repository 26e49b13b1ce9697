package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/domain/search/result"
	"github.com/kailas-cloud/casebud/internal/repository/intentcache"
	"github.com/kailas-cloud/casebud/internal/usecase/docintent"
	"github.com/kailas-cloud/casebud/internal/usecase/warmup"
	"github.com/kailas-cloud/casebud/internal/usecase/websearch"
)

// --- Mocks ---

type mockGenerator struct {
	mu        sync.Mutex
	text      string
	err       error
	lastModel model.ID
	lastUser  string
	calls     int
}

func (m *mockGenerator) Generate(_ context.Context, _, userPrompt string, id model.ID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastModel = id
	m.lastUser = userPrompt
	return m.text, m.err
}

type mockWebSearcher struct {
	summary string
	err     error
	calls   int
}

func (m *mockWebSearcher) SearchAndSummarize(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.summary, m.err
}

type mockClassifier struct {
	mu         sync.Mutex
	token      string
	warmed     []string
	classified []string
}

func (m *mockClassifier) Classify(_ context.Context, q string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classified = append(m.classified, q)
	return m.token
}

func (m *mockClassifier) Warm(_ context.Context, q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmed = append(m.warmed, q)
}

type mockSelector struct {
	standard, deep model.ID
	standardReady  bool
	deepReady      bool
}

func (m *mockSelector) Select(tier model.Tier) (model.ID, error) {
	if tier == model.Deep && m.deepReady {
		return m.deep, nil
	}
	if m.standardReady {
		return m.standard, nil
	}
	return model.ID{}, domain.ErrServiceUnavailable
}

var (
	standardID = model.NewID("meta-llama/llama-4-scout-17b-16e-instruct")
	deepID     = model.NewID("deepseek/deepseek-r1-distill-llama-70b")
)

func readySelector() *mockSelector {
	return &mockSelector{standard: standardID, deep: deepID, standardReady: true, deepReady: true}
}

// --- Tests ---

func TestAnswer_DirectScenario(t *testing.T) {
	gen := &mockGenerator{text: "An NDA is..."}
	cls := &mockClassifier{token: "false"}
	svc := New(gen, &mockWebSearcher{}, cls, readySelector(), zap.NewNop())

	a, err := svc.Answer(context.Background(), "What is a non-disclosure agreement?", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Query() != "What is a non-disclosure agreement?" {
		t.Errorf("Query() = %q", a.Query())
	}
	if a.Response() != "An NDA is..." {
		t.Errorf("Response() = %q", a.Response())
	}
	if a.Source() != "llama-4-scout-17b-16e-instruct" {
		t.Errorf("Source() = %q, want the standard model short name", a.Source())
	}
	if v, ok := a.IsDocGen(); !ok || v != "false" {
		t.Errorf("IsDocGen() = (%q, %v), want (\"false\", true)", v, ok)
	}
	if gen.lastUser != "What is a non-disclosure agreement?" || gen.lastModel != standardID {
		t.Errorf("unexpected generator call: user=%q model=%v", gen.lastUser, gen.lastModel)
	}
	if len(cls.warmed) != 1 || len(cls.classified) != 1 {
		t.Errorf("expected one background and one synchronous classification, got %d/%d",
			len(cls.warmed), len(cls.classified))
	}
}

func TestAnswer_DocGenFlagIndependentOfAnswer(t *testing.T) {
	gen := &mockGenerator{text: "Here is a draft NDA..."}
	cls := &mockClassifier{token: "true"}
	svc := New(gen, &mockWebSearcher{}, cls, readySelector(), zap.NewNop())

	a, err := svc.Answer(context.Background(), "draft me an NDA for a freelance contract", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := a.IsDocGen(); v != "true" {
		t.Errorf("IsDocGen() = %q, want %q", v, "true")
	}
	if a.Response() != "Here is a draft NDA..." {
		t.Errorf("Response() = %q", a.Response())
	}
}

func TestAnswer_BlankQuery(t *testing.T) {
	gen := &mockGenerator{}
	search := &mockWebSearcher{}
	svc := New(gen, search, &mockClassifier{}, readySelector(), zap.NewNop())

	for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := svc.Answer(context.Background(), text, flags[0], flags[1])
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("Answer(%q, %v): expected ErrInvalidInput, got %v", text, flags, err)
			}
		}
	}
	if gen.calls != 0 || search.calls != 0 {
		t.Error("no upstream call expected for blank queries")
	}
}

func TestAnswer_SearchBranch(t *testing.T) {
	gen := &mockGenerator{}
	search := &mockWebSearcher{summary: "According to recent sources..."}
	cls := &mockClassifier{token: "true"}
	svc := New(gen, search, cls, readySelector(), zap.NewNop())

	a, err := svc.Answer(context.Background(), "latest amendments to the Indian Contract Act", true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source() != "web_search" {
		t.Errorf("Source() = %q, want web_search", a.Source())
	}
	if _, ok := a.IsDocGen(); ok {
		t.Error("search answers must not carry is_doc_gen")
	}
	if a.Response() != "According to recent sources..." {
		t.Errorf("Response() = %q", a.Response())
	}
	if len(cls.warmed)+len(cls.classified) != 0 || gen.calls != 0 {
		t.Error("search branch must not classify or call the direct generator")
	}
}

func TestAnswer_SearchNotFoundHasNoFallback(t *testing.T) {
	gen := &mockGenerator{text: "direct"}
	search := &mockWebSearcher{err: domain.ErrNotFound}
	svc := New(gen, search, &mockClassifier{}, readySelector(), zap.NewNop())

	_, err := svc.Answer(context.Background(), "q", true, false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("no direct fallback expected")
	}
}

func TestAnswer_DeepTierSelection(t *testing.T) {
	tests := []struct {
		name       string
		sel        *mockSelector
		deepThink  bool
		wantSource string
		wantErr    error
	}{
		{"deep ready", readySelector(), true, "deepseek-r1-distill-llama-70b", nil},
		{"deep not ready falls back", &mockSelector{standard: standardID, deep: deepID, standardReady: true}, true,
			"llama-4-scout-17b-16e-instruct", nil},
		{"nothing ready", &mockSelector{standard: standardID, deep: deepID}, true, "", domain.ErrServiceUnavailable},
		{"standard requested, deep ready only", &mockSelector{standard: standardID, deep: deepID, deepReady: true}, false,
			"", domain.ErrServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &mockGenerator{text: "ok"}
			svc := New(gen, &mockWebSearcher{}, &mockClassifier{token: "false"}, tc.sel, zap.NewNop())

			a, err := svc.Answer(context.Background(), "q", false, tc.deepThink)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if gen.calls != 0 {
					t.Error("no provider call expected when no model is ready")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Source() != tc.wantSource {
				t.Errorf("Source() = %q, want %q", a.Source(), tc.wantSource)
			}
		})
	}
}

func TestAnswer_GenerationErrorPropagates(t *testing.T) {
	for _, sentinel := range []error{domain.ErrRateLimited, domain.ErrTimeout, domain.ErrGenerationFailed} {
		gen := &mockGenerator{err: sentinel}
		svc := New(gen, &mockWebSearcher{}, &mockClassifier{}, readySelector(), zap.NewNop())

		_, err := svc.Answer(context.Background(), "q", false, false)
		if !errors.Is(err, sentinel) {
			t.Errorf("expected %v, got %v", sentinel, err)
		}
	}
}

func TestAnswer_RepeatedRequestSameShape(t *testing.T) {
	gen := &mockGenerator{text: "An NDA is..."}
	svc := New(gen, &mockWebSearcher{}, &mockClassifier{token: "false"}, readySelector(), zap.NewNop())

	a1, err1 := svc.Answer(context.Background(), "What is an NDA?", false, false)
	a2, err2 := svc.Answer(context.Background(), "What is an NDA?", false, false)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	_, ok1 := a1.IsDocGen()
	_, ok2 := a2.IsDocGen()
	if ok1 != ok2 || a1.Source() != a2.Source() || a1.Query() != a2.Query() {
		t.Errorf("payload shape differs: %+v vs %+v", a1, a2)
	}
}

// --- Wired pipeline with real collaborators and fake upstreams ---

// promptRouter answers the classifier instruction with classifyReply and
// every other prompt with answer, so one fake serves every component.
type promptRouter struct {
	mu            sync.Mutex
	classifyReply string
	answer        string
	calls         int
}

func (p *promptRouter) Generate(_ context.Context, systemPrompt, _ string, _ model.ID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if strings.Contains(systemPrompt, "true or false") {
		return p.classifyReply, nil
	}
	return p.answer, nil
}

type fakeSearcher struct {
	results []result.Result
}

func (f *fakeSearcher) Search(context.Context, string, domain.SearchOptions) ([]result.Result, error) {
	return f.results, nil
}

func TestAnswer_WiredPipeline(t *testing.T) {
	gen := &promptRouter{classifyReply: "false", answer: "An NDA is..."}

	cache, err := intentcache.New(200, zap.NewNop())
	if err != nil {
		t.Fatalf("intentcache.New: %v", err)
	}
	cls := docintent.New(gen, cache, standardID, zap.NewNop())
	tracker := warmup.New(gen, standardID, deepID, zap.NewNop())
	tracker.WarmUp(context.Background())

	search := websearch.New(gen, &fakeSearcher{results: []result.Result{
		result.New("NDA", "An NDA is a contract", "https://example.com/1"),
		result.New("Mutual NDA", "Both parties", "https://example.com/2"),
	}}, standardID, domain.SearchOptions{Limit: 5}, zap.NewNop())

	svc := New(gen, search, cls, tracker, zap.NewNop())

	a, err := svc.Answer(context.Background(), "What is a non-disclosure agreement?", false, false)
	if err != nil {
		t.Fatalf("direct: %v", err)
	}
	cls.Wait()
	if a.Source() != standardID.Short() {
		t.Errorf("Source() = %q", a.Source())
	}
	if a.Response() != "An NDA is..." {
		t.Errorf("Response() = %q", a.Response())
	}
	if v, ok := a.IsDocGen(); !ok || v != "false" {
		t.Errorf("IsDocGen() = (%q, %v)", v, ok)
	}

	a, err = svc.Answer(context.Background(), "What is a non-disclosure agreement?", true, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if a.Source() != "web_search" {
		t.Errorf("Source() = %q", a.Source())
	}
	if _, ok := a.IsDocGen(); ok {
		t.Error("search answers must not carry is_doc_gen")
	}
}

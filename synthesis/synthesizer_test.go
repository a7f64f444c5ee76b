package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/citekit/provider"
	"github.com/sweetpotato0/citekit/reference"
	"github.com/sweetpotato0/citekit/retrieval"
	"github.com/sweetpotato0/citekit/source"
)

type stubLLM struct {
	response string
	err      error
	requests []*provider.CompletionRequest
}

func (s *stubLLM) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testRefs(entries ...retrieval.Result) *reference.Map {
	return reference.Build(entries)
}

func docResult(title, snippet string, relevance float32) retrieval.Result {
	return retrieval.Result{
		Hit: source.Hit{
			Source:  "documents",
			Type:    source.TypeDocument,
			Title:   title,
			Snippet: snippet,
			URL:     "https://example.org/" + title,
		},
		Relevance: relevance,
	}
}

func webResult(title, snippet string, relevance float32) retrieval.Result {
	r := docResult(title, snippet, relevance)
	r.Type = source.TypeWeb
	r.Source = "web"
	return r
}

func TestComposeUsesModel(t *testing.T) {
	llm := &stubLLM{response: "Solar capacity grew rapidly [1]."}
	s := New(llm, DefaultConfig())

	refs := testRefs(docResult("Solar report", "Solar capacity grew rapidly in 2024.", 0.9))
	draft, strategy := s.Compose(context.Background(), "How fast did solar capacity grow?", refs)

	if strategy != StrategyModel {
		t.Errorf("strategy = %s, want model", strategy)
	}
	if draft != "Solar capacity grew rapidly [1]." {
		t.Errorf("unexpected draft %q", draft)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("expected 1 completion call, got %d", len(llm.requests))
	}
	req := llm.requests[0]
	if req.MaxTokens != 800 {
		t.Errorf("token budget = %d, want 800 for one reference", req.MaxTokens)
	}
	if !strings.Contains(req.Messages[0].Content, "[1] Solar report") {
		t.Error("evidence payload missing the numbered reference line")
	}
}

func TestComposeModelFailureFallsBackToTemplate(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	s := New(llm, DefaultConfig())

	refs := testRefs(docResult("Solar report", "Solar capacity grew rapidly in 2024.", 0.9))
	draft, strategy := s.Compose(context.Background(), "question", refs)

	if strategy != StrategyTemplate {
		t.Errorf("strategy = %s, want template", strategy)
	}
	if !strings.Contains(draft, "[1]") {
		t.Errorf("template draft carries no citation marker: %q", draft)
	}
}

func TestComposeNilClientPinsTemplate(t *testing.T) {
	s := New(nil, DefaultConfig())
	refs := testRefs(docResult("Solar report", "Solar capacity grew rapidly in 2024.", 0.9))

	_, strategy := s.Compose(context.Background(), "question", refs)
	if strategy != StrategyTemplate {
		t.Errorf("strategy = %s, want template", strategy)
	}
}

func TestComposeTemplateOrdersByClass(t *testing.T) {
	s := New(nil, DefaultConfig())
	refs := testRefs(
		webResult("Web page", "Open-web evidence about the topic.", 0.95),
		docResult("Internal doc", "Internal document evidence about the topic.", 0.90),
	)

	draft := s.ComposeTemplate(refs)

	docIdx := strings.Index(draft, "Internal document evidence")
	webIdx := strings.Index(draft, "Open-web evidence")
	if docIdx == -1 || webIdx == -1 {
		t.Fatalf("template draft missing snippets: %q", draft)
	}
	if docIdx > webIdx {
		t.Error("document evidence must precede web evidence in the template draft")
	}
	// Every template sentence cites its reference.
	if !strings.Contains(draft, "[1]") || !strings.Contains(draft, "[2]") {
		t.Errorf("template draft missing markers: %q", draft)
	}
}

func TestComposeTemplateCapsSnippetsPerClass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemplateSnippets = 1
	s := New(nil, cfg)

	refs := testRefs(
		docResult("A", "First document snippet.", 0.9),
		docResult("B", "Second document snippet.", 0.8),
	)
	draft := s.ComposeTemplate(refs)
	if strings.Contains(draft, "Second document snippet") {
		t.Errorf("class cap ignored: %q", draft)
	}
}

func TestComposeTemplateEmptyMap(t *testing.T) {
	s := New(nil, DefaultConfig())
	if got := s.ComposeTemplate(testRefs()); got != "" {
		t.Errorf("expected empty draft, got %q", got)
	}
}

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/citekit/provider"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubExpander struct {
	alternatives []string
	err          error
}

func (s stubExpander) Expand(ctx context.Context, query string) ([]string, error) {
	return s.alternatives, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     Complexity
	}{
		{"Klimaschutz", ComplexitySimple},
		{"solar power germany", ComplexitySimple},
		{"How does solar power work?", ComplexityModerate},
		{"How does solar power work and what does it cost?", ComplexityComplex},
		{"Compare the energy mix of Germany, France, Poland, and Spain over the last decade", ComplexityComplex},
		{"What is it? Why does it matter?", ComplexityComplex},
	}
	for _, tt := range tests {
		if got := Classify(tt.question); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.question, got, tt.want)
		}
	}
}

func TestDecomposeSkipsAtomicQueries(t *testing.T) {
	llm := &stubLLM{response: `{"subqueries":["should not be called"]}`}
	p := NewPlanner(llm, nil)

	d := p.Decompose(context.Background(), "Klimaschutz")

	if !d.Skipped {
		t.Error("atomic query must skip planning")
	}
	if llm.calls != 0 {
		t.Errorf("planner called the model %d times for an atomic query", llm.calls)
	}
	if len(d.Subqueries) != 1 || d.Subqueries[0] != "Klimaschutz" {
		t.Errorf("subqueries = %v, want the question itself", d.Subqueries)
	}
}

func TestDecomposeUsesModelOutput(t *testing.T) {
	llm := &stubLLM{response: `{"subqueries":["solar capacity germany 2024","solar subsidy policy germany"]}`}
	p := NewPlanner(llm, nil)

	d := p.Decompose(context.Background(), "How much solar capacity does Germany have and how is it subsidised?")

	if d.Skipped {
		t.Error("complex query must not skip planning")
	}
	if len(d.Subqueries) != 2 {
		t.Fatalf("subqueries = %v", d.Subqueries)
	}
}

func TestDecomposeFailsClosedOnBadJSON(t *testing.T) {
	llm := &stubLLM{response: "I think you should search for solar things."}
	p := NewPlanner(llm, nil)

	question := "How much solar capacity does Germany have and how is it subsidised?"
	d := p.Decompose(context.Background(), question)

	if len(d.Subqueries) != 1 || d.Subqueries[0] != question {
		t.Errorf("unparseable plan must fail closed to the question itself, got %v", d.Subqueries)
	}
}

func TestDecomposeFailsClosedOnModelError(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	p := NewPlanner(llm, nil)

	question := "How much solar capacity does Germany have and how is it subsidised?"
	d := p.Decompose(context.Background(), question)

	if len(d.Subqueries) != 1 || d.Subqueries[0] != question {
		t.Errorf("model failure must fail closed, got %v", d.Subqueries)
	}
}

func TestDecomposeCapsSubqueries(t *testing.T) {
	llm := &stubLLM{response: `{"subqueries":["a b c d","e f g h","i j k l","m n o p","q r s t","u v w x"]}`}
	p := NewPlanner(llm, nil)

	d := p.Decompose(context.Background(), "A question that is long enough and complex enough to decompose properly?")
	if len(d.Subqueries) > MaxSubqueries {
		t.Errorf("got %d subqueries, cap is %d", len(d.Subqueries), MaxSubqueries)
	}
}

func TestDecomposeAppendsExpansions(t *testing.T) {
	llm := &stubLLM{response: `{"subqueries":["solar capacity germany"]}`}
	p := NewPlanner(llm, stubExpander{alternatives: []string{"photovoltaic capacity germany", "Solar Capacity Germany"}})

	d := p.Decompose(context.Background(), "How much solar capacity does Germany have and how is it growing?")

	if len(d.Subqueries) != 2 {
		t.Fatalf("subqueries = %v, want model output plus one deduped expansion", d.Subqueries)
	}
	if d.Subqueries[1] != "photovoltaic capacity germany" {
		t.Errorf("expansion = %q", d.Subqueries[1])
	}
}

func TestDecomposeIgnoresExpanderFailure(t *testing.T) {
	llm := &stubLLM{response: `{"subqueries":["solar capacity germany"]}`}
	p := NewPlanner(llm, stubExpander{err: errors.New("expansion service down")})

	d := p.Decompose(context.Background(), "How much solar capacity does Germany have and how is it growing?")
	if len(d.Subqueries) != 1 {
		t.Errorf("expander failure must be ignored, got %v", d.Subqueries)
	}
}

func TestBuildResearchPlanOrdering(t *testing.T) {
	d := Decomposition{
		Question:   "q",
		Subqueries: []string{"first query", "second query"},
	}
	rp := BuildResearchPlan(d, []string{"web-search", "documents", "prior-research"}, 0)

	if len(rp.Steps) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(rp.Steps))
	}
	// Documents before prior research before web, subquery order preserved
	// within each source class.
	wantSources := []string{"documents", "documents", "prior-research", "prior-research", "web-search", "web-search"}
	for i, step := range rp.Steps {
		if step.Source != wantSources[i] {
			t.Errorf("step %d source = %s, want %s", i, step.Source, wantSources[i])
		}
	}
	if rp.Steps[0].Query != "first query" || rp.Steps[1].Query != "second query" {
		t.Error("subquery order lost within the source class")
	}
}

func TestBuildResearchPlanDepthBound(t *testing.T) {
	d := Decomposition{Subqueries: []string{"a b", "c d", "e f"}}
	rp := BuildResearchPlan(d, []string{"documents", "web-search"}, 3)
	if len(rp.Steps) != 3 {
		t.Errorf("depth bound ignored: %d steps", len(rp.Steps))
	}
}

// Package plan turns a free-text question into the retrieval work the
// pipeline will execute: a complexity class, an optional decomposition
// into subqueries, and for the research flow an ordered step plan.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/pkg/jsonx"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/provider"
)

// Complexity influences retrieval depth downstream.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// MaxSubqueries bounds decomposition output.
const MaxSubqueries = 4

// atomicTokenMax is the query length below which planning is skipped:
// decomposition overhead is not justified when the query is already atomic.
const atomicTokenMax = 3

// Decomposition is the planner output for the single-turn flow.
type Decomposition struct {
	Question   string
	Subqueries []string
	Complexity Complexity
	Skipped    bool // true when the query was atomic and planning was bypassed
}

// Classify grades a question by shape. Short queries are simple; longer
// single-clause questions moderate; multi-clause or multi-question input
// complex.
func Classify(question string) Complexity {
	trimmed := strings.TrimSpace(question)
	tokens := len(strings.Fields(trimmed))
	switch {
	case tokens <= atomicTokenMax:
		return ComplexitySimple
	case tokens <= 10 && !hasConjunction(trimmed):
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

func hasConjunction(question string) bool {
	lower := " " + strings.ToLower(question) + " "
	for _, conj := range []string{" and ", " und ", " oder ", " or ", " sowie ", " versus ", " vs ", ";"} {
		if strings.Contains(lower, conj) {
			return true
		}
	}
	return strings.Count(question, "?") > 1
}

// Expander is the optional query expansion service. Failures are ignored;
// expansion is strictly best-effort.
type Expander interface {
	Expand(ctx context.Context, query string) ([]string, error)
}

// NoopExpander is the explicit "expansion disabled" implementation.
type NoopExpander struct{}

// Expand returns no alternatives.
func (NoopExpander) Expand(ctx context.Context, query string) ([]string, error) {
	return nil, nil
}

// Planner decomposes questions, optionally via a language model.
type Planner struct {
	llm      provider.CompletionClient
	expander Expander
	prompt   string
	logger   *slog.Logger
}

// NewPlanner creates a planner. Both the model client and the expander may
// be nil; the planner then degrades to the heuristic path.
func NewPlanner(llm provider.CompletionClient, expander Expander) *Planner {
	if expander == nil {
		expander = NoopExpander{}
	}
	return &Planner{
		llm:      llm,
		expander: expander,
		prompt:   decomposePrompt,
		logger:   logging.WithComponent("planner"),
	}
}

const decomposePrompt = `You decompose research questions into independent search subqueries.
Return strict JSON only: {"subqueries":["..."]}.
Rules:
- Emit at most {{max}} subqueries, each self-contained and retrieval-ready.
- Keep the question's language; do not translate.
- For an already atomic question return it as the single subquery.`

type decomposeOutput struct {
	Subqueries []string `json:"subqueries"`
}

// Decompose plans the retrieval round for a question. Atomic queries skip
// planning entirely. Model output that cannot be parsed fails closed to
// the empty plan (the original question as its own subquery), never to an
// error.
func (p *Planner) Decompose(ctx context.Context, question string) Decomposition {
	question = strings.TrimSpace(question)
	complexity := Classify(question)

	if complexity == ComplexitySimple {
		return Decomposition{
			Question:   question,
			Subqueries: []string{question},
			Complexity: complexity,
			Skipped:    true,
		}
	}

	subqueries := p.modelSubqueries(ctx, question)
	if len(subqueries) == 0 {
		subqueries = []string{question}
	}
	if len(subqueries) > MaxSubqueries {
		subqueries = subqueries[:MaxSubqueries]
	}

	subqueries = p.expand(ctx, question, subqueries)

	return Decomposition{
		Question:   question,
		Subqueries: subqueries,
		Complexity: complexity,
	}
}

func (p *Planner) modelSubqueries(ctx context.Context, question string) []string {
	if p.llm == nil {
		return nil
	}
	raw, err := p.llm.Complete(ctx, &provider.CompletionRequest{
		SystemPrompt: strings.ReplaceAll(p.prompt, "{{max}}", strconv.Itoa(MaxSubqueries)),
		Messages: []*message.Message{
			message.NewMessage(message.RoleUser, fmt.Sprintf("Question: %s\nReturn JSON only.", question)),
		},
		MaxTokens:   400,
		Temperature: 0,
	})
	if err != nil {
		p.logger.Warn("decomposition call failed, planning without it", "error", err)
		return nil
	}
	out, err := jsonx.Decode[decomposeOutput](raw)
	if err != nil {
		p.logger.Warn("decomposition output unparseable, fail-closed to empty plan", "error", err)
		return nil
	}
	cleaned := make([]string, 0, len(out.Subqueries))
	for _, sq := range out.Subqueries {
		if sq = strings.TrimSpace(sq); sq != "" {
			cleaned = append(cleaned, sq)
		}
	}
	return cleaned
}

// expand appends expansion-service alternatives for the primary subquery,
// within the subquery cap. Expansion failures are logged and ignored.
func (p *Planner) expand(ctx context.Context, question string, subqueries []string) []string {
	if len(subqueries) >= MaxSubqueries {
		return subqueries
	}
	alts, err := p.expander.Expand(ctx, question)
	if err != nil {
		p.logger.Debug("query expansion failed, ignored", "error", err)
		return subqueries
	}
	seen := make(map[string]struct{}, len(subqueries))
	for _, sq := range subqueries {
		seen[strings.ToLower(sq)] = struct{}{}
	}
	for _, alt := range alts {
		if len(subqueries) >= MaxSubqueries {
			break
		}
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(alt)]; dup {
			continue
		}
		seen[strings.ToLower(alt)] = struct{}{}
		subqueries = append(subqueries, alt)
	}
	return subqueries
}

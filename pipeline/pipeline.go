// Package pipeline orchestrates the answer engine: planning, concurrent
// retrieval, deduplication, reference construction, synthesis, citation
// renumbering, and grounding validation. Every stage degrades rather than
// aborts; the only errors callers see are configuration errors.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/citekit/errors"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/pkg/telemetry"
	"github.com/sweetpotato0/citekit/plan"
	"github.com/sweetpotato0/citekit/provider"
	"github.com/sweetpotato0/citekit/reference"
	"github.com/sweetpotato0/citekit/retrieval"
	"github.com/sweetpotato0/citekit/source"
	"github.com/sweetpotato0/citekit/synthesis"
)

// Clients groups the completion clients the engine uses. Planner and
// Writer fall back to Default when unset, so a single client serves every
// role.
type Clients struct {
	Default provider.CompletionClient
	Planner provider.CompletionClient
	Writer  provider.CompletionClient
}

func (c Clients) planner() provider.CompletionClient {
	if c.Planner != nil {
		return c.Planner
	}
	return c.Default
}

func (c Clients) writer() provider.CompletionClient {
	if c.Writer != nil {
		return c.Writer
	}
	return c.Default
}

// Engine answers questions with citation-backed evidence.
type Engine struct {
	cfg         *Config
	adapters    map[string]source.Adapter
	planner     *plan.Planner
	coordinator *retrieval.Coordinator
	synthesizer *synthesis.Synthesizer
	writer      provider.CompletionClient
	logger      *slog.Logger
}

// New wires an engine from clients, source adapters, and options. At least
// one adapter is required; model clients are optional (the engine then
// runs the deterministic template path).
func New(clients Clients, adapters map[string]source.Adapter, opts ...Option) (*Engine, error) {
	cfg := applyOptions(defaultConfig(), opts)

	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: at least one source adapter required", errors.ErrInvalidConfig)
	}
	if cfg.Lambda <= 0 || cfg.Lambda > 1 {
		return nil, fmt.Errorf("%w: lambda must be in (0,1]", errors.ErrInvalidConfig)
	}

	var plannerClient, writerClient provider.CompletionClient
	if cfg.UseLLM {
		plannerClient = clients.planner()
		writerClient = clients.writer()
	}

	coordinator := retrieval.NewCoordinator(adapters, retrieval.CoordinatorConfig{
		Timeout:     cfg.RetrievalTimeout,
		RetryDelay:  cfg.RetryDelay,
		RecallLimit: cfg.RecallLimit,
		BaseCutoff:  cfg.BaseCutoff,
	})

	return &Engine{
		cfg:         cfg,
		adapters:    adapters,
		planner:     plan.NewPlanner(plannerClient, cfg.expander),
		coordinator: coordinator,
		synthesizer: synthesis.New(writerClient, cfg.synthesisConfig()),
		writer:      writerClient,
		logger:      logging.WithComponent("pipeline").With("engine", cfg.Name),
	}, nil
}

// Answer runs the single-turn flow for one question. The returned error is
// non-nil only for invalid input; retrieval and synthesis failures are
// absorbed into the response (degraded evidence, template strategy, or the
// explicit no-evidence answer).
func (e *Engine) Answer(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", errors.ErrInvalidConfig)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.answer",
		trace.WithAttributes(attribute.String("engine", e.cfg.Name)))
	var err error
	defer func() { telemetry.End(span, err) }()

	sources, err := e.resolveSources(req.Sources)
	if err != nil {
		return nil, err
	}

	e.logger.Info("stage", "state", StatePlanning, "question_length", len(question))
	decomposition := e.planner.Decompose(ctx, question)
	span.SetAttributes(
		attribute.Int("subqueries", len(decomposition.Subqueries)),
		attribute.Bool("planning_skipped", decomposition.Skipped),
	)

	e.logger.Info("stage", "state", StateRetrieving,
		"subqueries", len(decomposition.Subqueries),
		"sources", len(sources),
	)
	outcome := e.coordinator.Retrieve(ctx, decomposition.Subqueries, sources)

	resp := e.finish(ctx, question, outcome.Hits)
	resp.Question = question
	return resp, nil
}

// finish runs the shared tail of both flows: dedupe, reference map, draft,
// renumber, validate. The hits may come from the cross-product round or
// from research steps.
func (e *Engine) finish(ctx context.Context, question string, hits []source.Hit) *Response {
	e.logger.Info("stage", "state", StateDeduping, "raw_hits", len(hits))
	th := retrieval.ThresholdFor(rawScores(hits))
	results := retrieval.Dedupe(hits, th, retrieval.DedupeConfig{
		Lambda:    e.cfg.Lambda,
		Diversify: e.cfg.Diversify,
	})

	if len(results) == 0 {
		e.logger.Info("stage", "state", StateNoEvidence, "reason", errors.ErrNoEvidence)
		return &Response{
			Text:       e.cfg.NoEvidenceMessage,
			Confidence: 0,
			State:      StateNoEvidence,
		}
	}

	e.logger.Info("stage", "state", StateReferencing, "results", len(results))
	refs := reference.Build(results)

	e.logger.Info("stage", "state", StateDrafting, "references", refs.Len())
	draft, strategy := e.synthesizer.Compose(ctx, question, refs)

	e.logger.Info("stage", "state", StateRenumbering)
	text, finalRefs := reference.Renumber(draft, refs)

	grounding := float32(1)
	if strategy == synthesis.StrategyModel {
		e.logger.Info("stage", "state", StateValidating)
		validated, verdict := synthesis.Validate(text, finalRefs)
		if verdict.Fallback() {
			// The draft cites systematically beyond its evidence; a partly
			// stripped version would still carry the fabricated prose.
			e.logger.Warn("stage", "state", StateFallback,
				"reason", errors.ErrUngroundedDraft,
				"citations", verdict.Total,
				"grounded", verdict.Grounded,
			)
			template := e.synthesizer.ComposeTemplate(refs)
			text, finalRefs = reference.Renumber(template, refs)
			strategy = synthesis.StrategyTemplate
		} else {
			text = validated
			grounding = verdict.Confidence
			if verdict.Stripped > 0 {
				// Compact the surviving markers and drop the references
				// nothing cites any more.
				text, finalRefs = reference.Renumber(text, finalRefs)
				e.logger.Info("ungrounded citations stripped", "stripped", verdict.Stripped)
			}
		}
	}

	e.logger.Info("stage", "state", StateDone,
		"strategy", strategy,
		"citations", finalRefs.Len(),
	)
	return &Response{
		Text:       text,
		Citations:  citationsFrom(finalRefs),
		Confidence: 0.5*meanRelevance(results) + 0.5*grounding,
		State:      StateDone,
		Strategy:   string(strategy),
	}
}

// resolveSources maps the request's source selection onto configured
// adapters, defaulting to all of them in stable name order. A selection
// naming an unconfigured source is a configuration error, rejected before
// any retrieval begins.
func (e *Engine) resolveSources(requested []string) ([]string, error) {
	if len(requested) > 0 {
		for _, name := range requested {
			if _, ok := e.adapters[name]; !ok {
				return nil, fmt.Errorf("%w: unknown source %q", errors.ErrInvalidConfig, name)
			}
		}
		return requested, nil
	}
	names := make([]string, 0, len(e.adapters))
	for name := range e.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func rawScores(hits []source.Hit) []float32 {
	scores := make([]float32, len(hits))
	for i, hit := range hits {
		scores[i] = hit.Score
	}
	return scores
}

func meanRelevance(results []retrieval.Result) float32 {
	if len(results) == 0 {
		return 0
	}
	var sum float32
	for _, r := range results {
		sum += r.Relevance
	}
	return sum / float32(len(results))
}

func citationsFrom(refs *reference.Map) []Citation {
	entries := refs.Entries()
	if len(entries) == 0 {
		return nil
	}
	out := make([]Citation, len(entries))
	for i, entry := range entries {
		out[i] = Citation{
			ID:      i + 1,
			Title:   entry.Title,
			URL:     entry.URL,
			Snippet: entry.Snippet,
		}
	}
	return out
}

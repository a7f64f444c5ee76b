package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/citekit/errors"
	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/pkg/jsonx"
	"github.com/sweetpotato0/citekit/pkg/telemetry"
	"github.com/sweetpotato0/citekit/plan"
	"github.com/sweetpotato0/citekit/provider"
	"github.com/sweetpotato0/citekit/research/store"
	"github.com/sweetpotato0/citekit/source"
)

// Research runs the deep flow: an explicit step plan over prioritised
// sources, follow-up question generation, and optional archival of the
// answer as prior research. Like Answer, it degrades instead of failing;
// the error is non-nil only for invalid input.
func (e *Engine) Research(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", errors.ErrInvalidConfig)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.research",
		trace.WithAttributes(attribute.String("engine", e.cfg.Name)))
	var err error
	defer func() { telemetry.End(span, err) }()

	sources, err := e.resolveSources(req.Sources)
	if err != nil {
		return nil, err
	}

	e.logger.Info("stage", "state", StatePlanning, "flow", "research")
	decomposition := e.planner.Decompose(ctx, question)
	researchPlan := plan.BuildResearchPlan(decomposition, sources, req.Depth)
	span.SetAttributes(attribute.Int("steps", len(researchPlan.Steps)))

	e.logger.Info("stage", "state", StateRetrieving, "steps", len(researchPlan.Steps))
	hits := e.executeSteps(ctx, researchPlan.Steps)

	resp := e.finish(ctx, question, hits)
	resp.Question = question
	resp.Steps = researchPlan.Steps

	if resp.State == StateDone {
		resp.FollowUps = e.followUps(ctx, question, resp)
		e.archive(ctx, question, decomposition, resp)
	}
	return resp, nil
}

// executeSteps runs the planned steps concurrently. Step priority ordered
// the plan; execution is parallel because steps are independent, and a
// failed step contributes nothing rather than stopping the run.
func (e *Engine) executeSteps(ctx context.Context, steps []plan.SearchStep) []source.Hit {
	var wg sync.WaitGroup
	hitCh := make(chan []source.Hit, len(steps))

	for _, step := range steps {
		wg.Add(1)
		go func(step plan.SearchStep) {
			defer wg.Done()
			hits, err := e.coordinator.RetrieveOne(ctx, step.Query, step.Source)
			if err != nil {
				e.logger.Warn("research step degraded to empty",
					"source", step.Source,
					"query", step.Query,
					"error", err,
				)
				return
			}
			hitCh <- hits
		}(step)
	}
	wg.Wait()
	close(hitCh)

	var all []source.Hit
	for hits := range hitCh {
		all = append(all, hits...)
	}
	return all
}

const followUpPrompt = `You suggest follow-up research questions.
Given a question and its cited answer, return strict JSON only:
{"questions":["..."]}.
Rules:
- At most {{max}} questions, each answerable by further retrieval.
- Stay in the language of the original question.
- Do not repeat the original question.`

type followUpOutput struct {
	Questions []string `json:"questions"`
}

// followUps proposes further questions from the finished answer. Model
// output that cannot be parsed falls back to a heuristic built from the
// citation titles; an engine without a writer client goes straight there.
func (e *Engine) followUps(ctx context.Context, question string, resp *Response) []string {
	if e.cfg.MaxFollowUps <= 0 {
		return nil
	}
	if e.writer != nil {
		if questions := e.modelFollowUps(ctx, question, resp.Text); len(questions) > 0 {
			return questions
		}
	}
	return heuristicFollowUps(question, resp.Citations, e.cfg.MaxFollowUps)
}

func (e *Engine) modelFollowUps(ctx context.Context, question, answer string) []string {
	raw, err := e.writer.Complete(ctx, &provider.CompletionRequest{
		SystemPrompt: strings.ReplaceAll(followUpPrompt, "{{max}}", fmt.Sprintf("%d", e.cfg.MaxFollowUps)),
		Messages: []*message.Message{
			message.NewMessage(message.RoleUser,
				fmt.Sprintf("Question: %s\n\nAnswer:\n%s\n\nReturn JSON only.", question, answer)),
		},
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err != nil {
		e.logger.Warn("follow-up generation failed, using heuristic", "error", err)
		return nil
	}
	out, err := jsonx.Decode[followUpOutput](raw)
	if err != nil {
		e.logger.Warn("follow-up output unparseable, using heuristic", "error", err)
		return nil
	}
	cleaned := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		q = strings.TrimSpace(q)
		if q == "" || strings.EqualFold(q, question) {
			continue
		}
		cleaned = append(cleaned, q)
		if len(cleaned) >= e.cfg.MaxFollowUps {
			break
		}
	}
	return cleaned
}

// heuristicFollowUps derives questions from the strongest citation titles.
func heuristicFollowUps(question string, citations []Citation, max int) []string {
	seen := make(map[string]struct{}, len(citations))
	out := make([]string, 0, max)
	for _, c := range citations {
		title := strings.TrimSpace(c.Title)
		if title == "" || strings.EqualFold(title, question) {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, fmt.Sprintf("What more is known about %s?", title))
		if len(out) >= max {
			break
		}
	}
	return out
}

// archive persists the finished answer as prior research so a later
// question can retrieve it. Archival failures are logged, never surfaced.
func (e *Engine) archive(ctx context.Context, question string, d plan.Decomposition, resp *Response) {
	if e.cfg.archive == nil {
		return
	}
	rec := &store.Record{
		Question: question,
		Answer:   resp.Text,
		Topics:   d.Subqueries,
	}
	if err := e.cfg.archive.Save(ctx, rec); err != nil {
		e.logger.Warn("answer archival failed", "error", err)
		return
	}
	e.logger.Info("answer archived as prior research", "topics", len(rec.Topics))
}

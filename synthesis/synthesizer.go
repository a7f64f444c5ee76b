// Package synthesis turns a reference map into a cited draft answer,
// either through a language model or a deterministic template, and
// validates that the draft's citations are grounded in the evidence.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/provider"
	"github.com/sweetpotato0/citekit/reference"
)

// Strategy names which synthesis path produced a draft.
type Strategy string

const (
	StrategyModel    Strategy = "model"
	StrategyTemplate Strategy = "template"
)

// Config controls synthesis behaviour.
type Config struct {
	SystemPrompt     string
	Temperature      float64
	EvidenceTokenCap int // clip the evidence payload to this many tokens
	TemplateSnippets int // snippets per source class in the template path
}

// DefaultConfig returns the standard synthesis settings.
func DefaultConfig() Config {
	return Config{
		SystemPrompt:     defaultSystemPrompt,
		Temperature:      0.2,
		EvidenceTokenCap: 6000,
		TemplateSnippets: 2,
	}
}

const defaultSystemPrompt = `You are a research assistant answering strictly from the supplied references.
Rules:
- Cite every factual statement with [n] markers, where n is a reference number from the list below.
- Use only the supplied references; bring in no outside knowledge.
- Answer in the same language as the question.
- If the references cannot answer the question, say so explicitly instead of guessing.`

// Synthesizer produces a cited draft from a reference map.
type Synthesizer struct {
	llm    provider.CompletionClient
	cfg    Config
	logger *slog.Logger
}

// New creates a synthesizer. A nil client pins every call to the template
// strategy.
func New(llm provider.CompletionClient, cfg Config) *Synthesizer {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.EvidenceTokenCap <= 0 {
		cfg.EvidenceTokenCap = 6000
	}
	if cfg.TemplateSnippets <= 0 {
		cfg.TemplateSnippets = 2
	}
	return &Synthesizer{
		llm:    llm,
		cfg:    cfg,
		logger: logging.WithComponent("synthesizer"),
	}
}

// Compose drafts an answer against the reference map. Any model-call error
// is absorbed here: the pipeline receives a template draft instead of an
// error, never a failed synthesis.
func (s *Synthesizer) Compose(ctx context.Context, question string, refs *reference.Map) (string, Strategy) {
	if s.llm == nil {
		return s.ComposeTemplate(refs), StrategyTemplate
	}

	draft, err := s.composeModel(ctx, question, refs)
	if err != nil {
		s.logger.Warn("model synthesis failed, using template", "error", err)
		return s.ComposeTemplate(refs), StrategyTemplate
	}
	return draft, StrategyModel
}

func (s *Synthesizer) composeModel(ctx context.Context, question string, refs *reference.Map) (string, error) {
	budget := TokenBudget(refs.Len(), refs.DistinctDocuments())
	payload := s.formatReferences(refs)

	resp, err := s.llm.Complete(ctx, &provider.CompletionRequest{
		SystemPrompt: s.cfg.SystemPrompt,
		Messages: []*message.Message{
			message.NewMessage(message.RoleUser,
				fmt.Sprintf("Question:\n%s\n\nReferences:\n%s", question, payload)),
		},
		MaxTokens:   budget,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}
	draft := strings.TrimSpace(resp)
	if draft == "" {
		return "", fmt.Errorf("model returned empty draft")
	}
	s.logger.Info("model draft composed",
		"references", refs.Len(),
		"token_budget", budget,
		"draft_length", len(draft),
	)
	return draft, nil
}

// formatReferences renders each reference as "[n] title (domain)\nsnippet",
// clipping the block once the token cap is reached.
func (s *Synthesizer) formatReferences(refs *reference.Map) string {
	var b strings.Builder
	var used int
	for i, entry := range refs.Entries() {
		line := fmt.Sprintf("[%d] %s (%s)\n%s\n\n", i+1, entry.Title, domainOf(entry.URL), entry.Snippet)
		cost := CountTokens(line)
		if used+cost > s.cfg.EvidenceTokenCap && used > 0 {
			break
		}
		used += cost
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}

// ComposeTemplate is the rule-based, auditable synthesis: the top snippets
// per source class concatenated with inline markers, prior-research
// evidence first, then document evidence, then web evidence.
func (s *Synthesizer) ComposeTemplate(refs *reference.Map) string {
	if refs == nil || refs.Len() == 0 {
		return ""
	}

	type classed struct {
		id      int
		snippet string
	}
	byClass := make(map[string][]classed)
	for i, entry := range refs.Entries() {
		snippet := strings.TrimSpace(entry.Snippet)
		if snippet == "" {
			continue
		}
		byClass[string(entry.Type)] = append(byClass[string(entry.Type)], classed{id: i + 1, snippet: snippet})
	}

	var b strings.Builder
	for _, class := range []string{"prior-research", "document", "web"} {
		entries := byClass[class]
		if len(entries) > s.cfg.TemplateSnippets {
			entries = entries[:s.cfg.TemplateSnippets]
		}
		for _, entry := range entries {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%s [%d]", sentenceTrim(entry.snippet), entry.id)
		}
	}
	return b.String()
}

// sentenceTrim drops a trailing sentence fragment from a snippet so the
// template output reads as complete sentences.
func sentenceTrim(snippet string) string {
	const maxLen = 400
	if len(snippet) <= maxLen {
		return strings.TrimRight(snippet, " .") + "."
	}
	cut := snippet[:maxLen]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > maxLen/2 {
		return cut[:idx+1]
	}
	return cut + "..."
}

func domainOf(raw string) string {
	if raw == "" {
		return "internal"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "internal"
	}
	return parsed.Host
}

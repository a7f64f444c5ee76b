package pipeline

import (
	"strings"
	"time"

	"github.com/sweetpotato0/citekit/plan"
	"github.com/sweetpotato0/citekit/research/store"
	"github.com/sweetpotato0/citekit/synthesis"
)

// Config controls behaviour of the answer engine. It groups prompt knobs
// and low-level retrieval parameters so callers can construct reproducible
// engines from a single struct.
type Config struct {
	Name              string // logical name for tracing/logging
	UseLLM            bool   // model-backed synthesis; false pins the template path
	Diversify         bool   // MMR pass on the evidence set
	Lambda            float32
	RetrievalTimeout  time.Duration
	RetryDelay        time.Duration
	RecallLimit       int
	BaseCutoff        float32 // score floor passed to backends
	NoEvidenceMessage string
	SynthesisPrompt   string
	Temperature       float64
	EvidenceTokenCap  int
	MaxFollowUps      int

	expander plan.Expander
	archive  store.Store // research flow: persist answers as prior research
}

// Option customises the engine configuration.
type Option func(*Config)

// WithName sets the logical engine name used in logs and spans.
func WithName(name string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(name) != "" {
			cfg.Name = name
		}
	}
}

// WithLLM toggles model-backed synthesis. Disabled, the engine runs the
// deterministic template strategy end to end.
func WithLLM(enabled bool) Option {
	return func(cfg *Config) {
		cfg.UseLLM = enabled
	}
}

// WithDiversify toggles the MMR diversification pass.
func WithDiversify(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Diversify = enabled
	}
}

// WithLambda tunes the MMR relevance/diversity trade-off.
func WithLambda(lambda float32) Option {
	return func(cfg *Config) {
		if lambda > 0 && lambda <= 1 {
			cfg.Lambda = lambda
		}
	}
}

// WithRetrievalTimeout bounds each source adapter call.
func WithRetrievalTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		if timeout > 0 {
			cfg.RetrievalTimeout = timeout
		}
	}
}

// WithRetryDelay sets the pause before the single adapter retry.
func WithRetryDelay(delay time.Duration) Option {
	return func(cfg *Config) {
		if delay > 0 {
			cfg.RetryDelay = delay
		}
	}
}

// WithRecallLimit caps hits pulled per source and subquery.
func WithRecallLimit(limit int) Option {
	return func(cfg *Config) {
		if limit > 0 {
			cfg.RecallLimit = limit
		}
	}
}

// WithBaseCutoff sets the raw score floor handed to backends. The dynamic
// threshold is applied on top of this during deduplication.
func WithBaseCutoff(cutoff float32) Option {
	return func(cfg *Config) {
		if cutoff >= 0 {
			cfg.BaseCutoff = cutoff
		}
	}
}

// WithNoEvidenceMessage customises the answer text when retrieval produces
// no usable evidence.
func WithNoEvidenceMessage(message string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(message) != "" {
			cfg.NoEvidenceMessage = message
		}
	}
}

// WithSynthesisPrompt overrides the synthesizer system prompt.
func WithSynthesisPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.SynthesisPrompt = prompt
		}
	}
}

// WithTemperature sets the completion temperature.
func WithTemperature(temp float64) Option {
	return func(cfg *Config) {
		if temp >= 0 {
			cfg.Temperature = temp
		}
	}
}

// WithEvidenceTokenCap clips the evidence payload sent to the model.
func WithEvidenceTokenCap(tokens int) Option {
	return func(cfg *Config) {
		if tokens > 0 {
			cfg.EvidenceTokenCap = tokens
		}
	}
}

// WithMaxFollowUps caps generated follow-up questions.
func WithMaxFollowUps(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.MaxFollowUps = n
		}
	}
}

// WithExpander plugs in the optional query expansion service.
func WithExpander(expander plan.Expander) Option {
	return func(cfg *Config) {
		if expander != nil {
			cfg.expander = expander
		}
	}
}

// WithResearchArchive persists research-flow answers into the given store
// so later questions can retrieve them as prior research.
func WithResearchArchive(archive store.Store) Option {
	return func(cfg *Config) {
		if archive != nil {
			cfg.archive = archive
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:              "citekit",
		UseLLM:            true,
		Diversify:         true,
		Lambda:            0.7,
		RetrievalTimeout:  10 * time.Second,
		RetryDelay:        250 * time.Millisecond,
		RecallLimit:       30,
		BaseCutoff:        0.2,
		NoEvidenceMessage: "No relevant results were found for this question.",
		Temperature:       0.2,
		EvidenceTokenCap:  6000,
		MaxFollowUps:      3,
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (cfg *Config) synthesisConfig() synthesis.Config {
	sc := synthesis.DefaultConfig()
	if cfg.SynthesisPrompt != "" {
		sc.SystemPrompt = cfg.SynthesisPrompt
	}
	sc.Temperature = cfg.Temperature
	sc.EvidenceTokenCap = cfg.EvidenceTokenCap
	return sc
}

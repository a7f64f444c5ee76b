package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetpotato0/citekit/errors"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/source"
)

// Attempt records one adapter call for bookkeeping.
type Attempt struct {
	Source   string
	Subquery string
	Hits     int
	Err      string
	Elapsed  time.Duration
}

// Outcome is the joined result of one retrieval round. Hit order carries no
// meaning; the deduplicator imposes the only deterministic order.
type Outcome struct {
	Hits      []source.Hit
	Attempts  []Attempt
	Elapsed   time.Duration
	Attempted int
}

// CoordinatorConfig tunes fan-out behaviour.
type CoordinatorConfig struct {
	Timeout      time.Duration // per adapter call
	RetryDelay   time.Duration // pause before the single retry
	RecallLimit  int           // per-source recall limit
	BaseCutoff   float32       // score floor passed to backends
	SourceFilter map[string]string
}

// Coordinator fans subqueries out across source adapters concurrently and
// joins every result, including failures, before returning. Adapters are
// injected explicitly; there is no registry or global client state.
type Coordinator struct {
	adapters map[string]source.Adapter
	cfg      CoordinatorConfig
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator over the given adapters.
func NewCoordinator(adapters map[string]source.Adapter, cfg CoordinatorConfig) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	if cfg.RecallLimit <= 0 {
		cfg.RecallLimit = 30
	}
	return &Coordinator{
		adapters: adapters,
		cfg:      cfg,
		logger:   logging.WithComponent("retrieval_coordinator"),
	}
}

// Retrieve issues the full subquery×source cross-product concurrently and
// awaits all calls. A per-source failure or timeout degrades to zero hits
// for that source; the round never aborts because one backend misbehaved.
func (c *Coordinator) Retrieve(ctx context.Context, subqueries []string, sources []string) Outcome {
	start := time.Now()

	type callResult struct {
		attempt Attempt
		hits    []source.Hit
	}

	var wg sync.WaitGroup
	results := make(chan callResult, len(subqueries)*len(sources))

	for _, name := range sources {
		adapter, ok := c.adapters[name]
		if !ok {
			c.logger.Warn("unknown source skipped", "source", name)
			continue
		}
		for _, sq := range subqueries {
			weights := WeightsFor(sq)
			req := source.Request{
				Subquery:     sq,
				Source:       name,
				VectorWeight: weights.Vector,
				TextWeight:   weights.Text,
				Threshold:    c.cfg.BaseCutoff,
				Limit:        c.cfg.RecallLimit,
				Filter:       c.cfg.SourceFilter,
			}
			wg.Add(1)
			go func(adapter source.Adapter, req source.Request) {
				defer wg.Done()
				callStart := time.Now()
				hits, err := c.callWithRetry(ctx, adapter, req)
				attempt := Attempt{
					Source:   req.Source,
					Subquery: req.Subquery,
					Hits:     len(hits),
					Elapsed:  time.Since(callStart),
				}
				if err != nil {
					attempt.Err = err.Error()
					c.logger.Warn("source degraded to empty",
						"source", req.Source,
						"subquery", req.Subquery,
						"error", err,
					)
					hits = nil
				}
				results <- callResult{attempt: attempt, hits: hits}
			}(adapter, req)
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := Outcome{}
	for res := range results {
		out.Attempts = append(out.Attempts, res.attempt)
		out.Attempted++
		out.Hits = append(out.Hits, res.hits...)
	}
	out.Elapsed = time.Since(start)
	c.logger.Info("retrieval round joined",
		"calls", out.Attempted,
		"hits", len(out.Hits),
		"elapsed", out.Elapsed,
	)
	return out
}

// RetrieveOne issues a single subquery against a single source with the
// same timeout and retry behaviour as a full round. Used by the research
// flow, which schedules its own steps instead of the full cross-product.
func (c *Coordinator) RetrieveOne(ctx context.Context, subquery, name string) ([]source.Hit, error) {
	adapter, ok := c.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	weights := WeightsFor(subquery)
	req := source.Request{
		Subquery:     subquery,
		Source:       name,
		VectorWeight: weights.Vector,
		TextWeight:   weights.Text,
		Threshold:    c.cfg.BaseCutoff,
		Limit:        c.cfg.RecallLimit,
		Filter:       c.cfg.SourceFilter,
	}
	return c.callWithRetry(ctx, adapter, req)
}

// callWithRetry time-boxes one adapter call and retries once after a short
// fixed delay. A second failure is final and reported as
// errors.ErrSourceUnavailable; the model call and grounding stages never
// retry, they fall back instead.
func (c *Coordinator) callWithRetry(ctx context.Context, adapter source.Adapter, req source.Request) ([]source.Hit, error) {
	hits, err := c.call(ctx, adapter, req)
	if err == nil || ctx.Err() != nil {
		return hits, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.cfg.RetryDelay):
	}
	hits, err = c.call(ctx, adapter, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSourceUnavailable, err)
	}
	return hits, nil
}

func (c *Coordinator) call(ctx context.Context, adapter source.Adapter, req source.Request) ([]source.Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return adapter.Retrieve(callCtx, req)
}

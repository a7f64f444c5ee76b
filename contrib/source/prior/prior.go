// Package prior exposes archived research answers as a retrieval source.
package prior

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/citekit/research/store"
	"github.com/sweetpotato0/citekit/source"
)

// Name is the source identifier this adapter registers under.
const Name = "prior-research"

// Adapter retrieves prior research records from a store.
type Adapter struct {
	store store.Store
}

// New creates the adapter over the given store.
func New(s store.Store) *Adapter {
	return &Adapter{store: s}
}

// Name returns the source identifier.
func (a *Adapter) Name() string { return Name }

// Retrieve searches the archive and maps records into hits. A record's
// question becomes the hit title and its answer the snippet, so an
// archived answer reads like any other evidence source downstream.
func (a *Adapter) Retrieve(ctx context.Context, req source.Request) ([]source.Hit, error) {
	scored, err := a.store.Search(ctx, req.Subquery, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search prior research: %w", err)
	}

	hits := make([]source.Hit, 0, len(scored))
	for _, sr := range scored {
		if sr.Score < req.Threshold {
			continue
		}
		hits = append(hits, source.Hit{
			Source:     Name,
			Type:       source.TypePrior,
			Title:      sr.Record.Question,
			Snippet:    sr.Record.Answer,
			DocumentID: sr.Record.ID,
			Score:      sr.Score,
		})
	}
	return hits, nil
}

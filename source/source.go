// Package source defines the retrieval adapter contract and the raw hit
// shape shared by every backend. Adapters are narrow clients: they search
// one backend and return raw hits, leaving deduplication, thresholding and
// cross-source ranking to the retrieval package.
package source

import (
	"context"
	"fmt"
	"strings"
)

// Type classifies where a hit came from. The tagged union is constructed at
// the adapter boundary and never re-derived downstream.
type Type string

const (
	TypeDocument Type = "document"
	TypeWeb      Type = "web"
	TypePrior    Type = "prior-research"
)

// Request describes one retrieval call against one source. Immutable once
// dispatched: the coordinator copies it per adapter and never mutates it
// afterwards.
type Request struct {
	Subquery     string
	Source       string  // source identifier the coordinator resolved
	VectorWeight float32 // ∈[0,1], sums to 1 with TextWeight
	TextWeight   float32
	Threshold    float32 // minimum raw score the backend should return
	Limit        int     // recall limit per source
	Filter       map[string]string
}

// Hit is a single raw result from one backend. Produced by an adapter and
// never mutated afterwards; downstream stages copy or annotate.
type Hit struct {
	Source      string  `json:"source"`
	Type        Type    `json:"type"`
	Title       string  `json:"title"`
	Snippet     string  `json:"snippet"`
	URL         string  `json:"url,omitempty"`
	DocumentID  string  `json:"document_id,omitempty"`
	ChunkIndex  int     `json:"chunk_index,omitempty"`
	Score       float32 `json:"score"`
	ContentType string  `json:"content_type,omitempty"`
}

// IdentityKey returns the dedup key: the URL when present, otherwise the
// document id plus chunk index.
func (h Hit) IdentityKey() string {
	if u := strings.TrimSpace(h.URL); u != "" {
		return u
	}
	return fmt.Sprintf("%s#%d", h.DocumentID, h.ChunkIndex)
}

// Adapter searches a single backend. A failed call returns an error; the
// coordinator degrades it to zero hits for that source and proceeds.
type Adapter interface {
	Name() string
	Retrieve(ctx context.Context, req Request) ([]Hit, error)
}

// Noop is the explicit "backend disabled" adapter. It is selected by
// configuration for optional backends instead of probing at runtime.
type Noop struct {
	Label string
}

// Name returns the configured label or "noop".
func (n Noop) Name() string {
	if n.Label != "" {
		return n.Label
	}
	return "noop"
}

// Retrieve always returns no hits.
func (n Noop) Retrieve(ctx context.Context, req Request) ([]Hit, error) {
	return nil, nil
}

package prior

import (
	"context"
	"testing"

	"github.com/sweetpotato0/citekit/research/store"
	"github.com/sweetpotato0/citekit/source"
)

func TestRetrieveMapsRecords(t *testing.T) {
	s := store.NewInMemoryStore()
	ctx := context.Background()
	if err := s.Save(ctx, &store.Record{
		ID:       "r1",
		Question: "What is the solar capacity of Germany?",
		Answer:   "Germany reached 82 gigawatts of installed solar capacity.",
	}); err != nil {
		t.Fatal(err)
	}

	a := New(s)
	hits, err := a.Retrieve(ctx, source.Request{Subquery: "solar capacity germany", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}

	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	hit := hits[0]
	if hit.Type != source.TypePrior || hit.Source != Name {
		t.Errorf("hit = %+v", hit)
	}
	if hit.Title != "What is the solar capacity of Germany?" {
		t.Errorf("title = %q", hit.Title)
	}
	if hit.DocumentID != "r1" {
		t.Errorf("document id = %q", hit.DocumentID)
	}
}

func TestRetrieveAppliesThreshold(t *testing.T) {
	s := store.NewInMemoryStore()
	ctx := context.Background()
	if err := s.Save(ctx, &store.Record{
		ID:       "weak",
		Question: "Completely different subject",
		Answer:   "Mentions solar once in passing.",
	}); err != nil {
		t.Fatal(err)
	}

	a := New(s)
	hits, err := a.Retrieve(ctx, source.Request{Subquery: "solar capacity germany", Threshold: 0.5, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("weak match must fall below the threshold, got %d hits", len(hits))
	}
}

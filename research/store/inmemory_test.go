package store

import (
	"context"
	"testing"
)

func TestInMemorySaveAssignsID(t *testing.T) {
	s := NewInMemoryStore()

	rec := &Record{Question: "How fast is solar growing?", Answer: "Quickly."}
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(context.Background(), "solar", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 record, got %d", len(results))
	}
	if results[0].Record.ID == "" {
		t.Error("saved record has no ID")
	}
	if results[0].Record.CreatedAt.IsZero() {
		t.Error("saved record has no timestamp")
	}
}

func TestInMemorySearchRanksQuestionMatchesHigher(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	questionMatch := &Record{
		ID:       "a",
		Question: "What is the solar capacity of Germany?",
		Answer:   "82 gigawatts.",
	}
	answerMatch := &Record{
		ID:       "b",
		Question: "What about renewables generally?",
		Answer:   "Solar plays a growing role alongside wind.",
	}
	unrelated := &Record{
		ID:       "c",
		Question: "Who painted the ceiling of the Sistine Chapel?",
		Answer:   "Michelangelo.",
	}
	for _, rec := range []*Record{answerMatch, unrelated, questionMatch} {
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.Search(ctx, "solar capacity", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(results))
	}
	if results[0].Record.ID != "a" {
		t.Errorf("question match should rank first, got %s", results[0].Record.ID)
	}
	for _, r := range results {
		if r.Record.ID == "c" {
			t.Error("unrelated record matched")
		}
	}
}

func TestInMemorySearchLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, &Record{ID: id, Question: "solar question " + id}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.Search(ctx, "solar", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("limit ignored: got %d results", len(results))
	}
}

func TestInMemorySaveCopies(t *testing.T) {
	s := NewInMemoryStore()
	rec := &Record{ID: "a", Question: "original"}
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	rec.Question = "mutated"

	results, err := s.Search(context.Background(), "original", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Record.Question != "original" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestScoreRecord(t *testing.T) {
	rec := &Record{
		Question: "solar capacity germany",
		Answer:   "82 gigawatts installed",
	}
	full := scoreRecord("solar capacity germany", rec)
	if full != 1 {
		t.Errorf("full question match = %v, want 1", full)
	}
	if scoreRecord("unrelated topic entirely", rec) != 0 {
		t.Error("unrelated query must score 0")
	}
	if scoreRecord("", rec) != 0 {
		t.Error("empty query must score 0")
	}
}

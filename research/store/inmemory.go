package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps records in process memory. The default backend for
// tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

// Save stores or replaces a record.
func (s *InMemoryStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	cp := *rec
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("research-%d", time.Now().UnixNano())
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cp.ID] = &cp
	return nil
}

// Search scores every record against the query and returns the best
// matches, highest first.
func (s *InMemoryStore) Search(ctx context.Context, query string, limit int) ([]ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]ScoredRecord, 0, len(s.records))
	for _, rec := range s.records {
		score := scoreRecord(query, rec)
		if score <= 0 {
			continue
		}
		cp := *rec
		scored = append(scored, ScoredRecord{Record: &cp, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Package reference assigns stable citation IDs to the final evidence set
// and rewrites draft markers into reader order.
package reference

import (
	"sort"

	"github.com/sweetpotato0/citekit/retrieval"
)

// Map is the ordered, 1-based table of evidence a draft's citations point
// into. IDs are dense and unique; construction is deterministic, so the
// same result set always rebuilds the same map.
type Map struct {
	entries []retrieval.Result
}

// Build constructs the map from a deduplicated result set, ordered by
// relevance descending with title ascending as the tie-break. The input
// slice is not modified.
func Build(results []retrieval.Result) *Map {
	entries := make([]retrieval.Result, len(results))
	copy(entries, results)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Relevance != entries[j].Relevance {
			return entries[i].Relevance > entries[j].Relevance
		}
		return entries[i].Title < entries[j].Title
	})
	return &Map{entries: entries}
}

// fromOrdered wraps entries whose order is already final (renumber output).
func fromOrdered(entries []retrieval.Result) *Map {
	return &Map{entries: entries}
}

// Get returns the entry for a 1-based citation ID.
func (m *Map) Get(id int) (retrieval.Result, bool) {
	if m == nil || id < 1 || id > len(m.entries) {
		return retrieval.Result{}, false
	}
	return m.entries[id-1], true
}

// Len returns the number of references.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the references in ID order (entry i has ID i+1).
func (m *Map) Entries() []retrieval.Result {
	if m == nil {
		return nil
	}
	out := make([]retrieval.Result, len(m.entries))
	copy(out, m.entries)
	return out
}

// DistinctDocuments counts how many distinct documents or URLs back the map.
func (m *Map) DistinctDocuments() int {
	if m == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(m.entries))
	for _, entry := range m.entries {
		key := entry.DocumentID
		if key == "" {
			key = entry.URL
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

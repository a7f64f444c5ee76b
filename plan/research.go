package plan

import (
	"fmt"
	"sort"
	"strings"
)

// SearchStep is one unit of work in the research flow: one query against
// one source, with a priority and a human-readable rationale.
type SearchStep struct {
	Source    string `json:"source"`
	Query     string `json:"query"`
	Priority  int    `json:"priority"`
	Rationale string `json:"rationale"`
}

// ResearchPlan is built once per research request and never mutated.
type ResearchPlan struct {
	Question string
	Steps    []SearchStep
}

// sourcePriority ranks source classes for the research flow: internal
// document collections are checked before prior research, the open web
// last. Lower is earlier.
func sourcePriority(sourceName string) int {
	switch {
	case strings.Contains(sourceName, "web"):
		return 3
	case strings.Contains(sourceName, "prior"):
		return 2
	default:
		return 1
	}
}

// BuildResearchPlan derives the heuristic step plan: the cross-product of
// subqueries and selected sources, ordered by source priority then by
// subquery position, truncated by depth. Depth bounds the number of steps
// (≤0 means no bound).
func BuildResearchPlan(d Decomposition, sources []string, depth int) ResearchPlan {
	steps := make([]SearchStep, 0, len(d.Subqueries)*len(sources))
	for qi, sq := range d.Subqueries {
		for _, src := range sources {
			steps = append(steps, SearchStep{
				Source:    src,
				Query:     sq,
				Priority:  sourcePriority(src)*100 + qi,
				Rationale: fmt.Sprintf("probe %s for %q", src, sq),
			})
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})
	if depth > 0 && len(steps) > depth {
		steps = steps[:depth]
	}
	return ResearchPlan{Question: d.Question, Steps: steps}
}

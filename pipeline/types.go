package pipeline

import (
	"github.com/sweetpotato0/citekit/plan"
)

// State names one stage of the answer pipeline.
type State string

const (
	StatePlanning    State = "PLANNING"
	StateRetrieving  State = "RETRIEVING"
	StateDeduping    State = "DEDUPING"
	StateReferencing State = "REFERENCING"
	StateDrafting    State = "DRAFTING"
	StateRenumbering State = "RENUMBERING"
	StateValidating  State = "VALIDATING"
	StateDone        State = "DONE"
	StateNoEvidence  State = "NO_EVIDENCE" // terminal short-circuit out of DEDUPING
	StateFallback    State = "FALLBACK"    // template-only re-draft out of VALIDATING
)

// Request is one question posed to the engine.
type Request struct {
	Question string
	Sources  []string // source identifiers to query; empty means all configured
	Depth    int      // research flow: max search steps (≤0 means unbounded)
}

// Citation is one evidence entry backing the answer text.
type Citation struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet"`
}

// Response is the structured answer applications consume.
type Response struct {
	Question   string            `json:"question"`
	Text       string            `json:"text"`
	Citations  []Citation        `json:"citations,omitempty"`
	Confidence float32           `json:"confidence"`
	Steps      []plan.SearchStep `json:"search_steps,omitempty"`
	FollowUps  []string          `json:"follow_up_questions,omitempty"`
	State      State             `json:"state"` // terminal state: DONE or NO_EVIDENCE
	Strategy   string            `json:"strategy"`
}

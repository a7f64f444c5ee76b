package synthesis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sweetpotato0/citekit/reference"
)

// Verdict aggregates per-citation grounding checks over a draft.
type Verdict struct {
	Total      int     // citation markers examined
	Grounded   int     // markers whose sentence is supported by the snippet
	Stripped   int     // markers removed from the text
	Confidence float32 // grounded / total; 1 when there are no markers
}

// Fallback reports whether the draft should be discarded entirely: more
// than half the citations ungrounded with more than two present. The hard
// circuit-breaker against systematically fabricated citations.
func (v Verdict) Fallback() bool {
	return v.Total > 2 && float32(v.Total-v.Grounded)/float32(v.Total) > 0.5
}

var citationRegex = regexp.MustCompile(`\[(\d+)\]`)

// overlap below which a citation counts as ungrounded. A tunable
// engineering constant, not a calibrated probability.
const groundingOverlapMin = 0.2

// Validate checks each citation marker in the draft against the snippet it
// references and strips markers whose surrounding sentence the snippet
// does not support. The sentence stays; only the marker goes.
func Validate(draft string, refs *reference.Map) (string, Verdict) {
	verdict := Verdict{Confidence: 1}
	locations := citationRegex.FindAllStringSubmatchIndex(draft, -1)
	if len(locations) == 0 {
		return draft, verdict
	}

	type markerCheck struct {
		start, end int
		grounded   bool
	}
	checks := make([]markerCheck, 0, len(locations))
	for _, loc := range locations {
		id, err := strconv.Atoi(draft[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		verdict.Total++
		entry, ok := refs.Get(id)
		grounded := ok && supports(sentenceAround(draft, loc[0]), entry.Snippet)
		if grounded {
			verdict.Grounded++
		}
		checks = append(checks, markerCheck{start: loc[0], end: loc[1], grounded: grounded})
	}

	if verdict.Total > 0 {
		verdict.Confidence = float32(verdict.Grounded) / float32(verdict.Total)
	}

	var b strings.Builder
	prev := 0
	for _, check := range checks {
		b.WriteString(draft[prev:check.start])
		if check.grounded {
			b.WriteString(draft[check.start:check.end])
		} else {
			verdict.Stripped++
		}
		prev = check.end
	}
	b.WriteString(draft[prev:])
	return b.String(), verdict
}

// sentenceAround returns the sentence containing the byte offset, bounded
// by sentence punctuation or paragraph breaks.
func sentenceAround(text string, offset int) string {
	start := 0
	for i := offset - 1; i >= 0; i-- {
		c := text[i]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			start = i + 1
			break
		}
	}
	end := len(text)
	for i := offset; i < len(text); i++ {
		c := text[i]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			end = i + 1
			break
		}
	}
	return text[start:end]
}

// supports reports whether enough of the sentence's content words appear
// in the snippet. Lexical overlap only; a cheap proxy for entailment.
func supports(sentence, snippet string) bool {
	sentenceTokens := contentTokens(sentence)
	if len(sentenceTokens) == 0 {
		return false
	}
	snippetSet := make(map[string]struct{})
	for _, tok := range contentTokens(snippet) {
		snippetSet[tok] = struct{}{}
	}
	var matched int
	for _, tok := range sentenceTokens {
		if _, ok := snippetSet[tok]; ok {
			matched++
		}
	}
	return float32(matched)/float32(len(sentenceTokens)) >= groundingOverlapMin
}

var wordRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

// contentTokens lowercases and keeps words long enough to carry meaning.
func contentTokens(text string) []string {
	raw := wordRegex.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) >= 3 {
			out = append(out, tok)
		}
	}
	return out
}

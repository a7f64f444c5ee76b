package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sweetpotato0/citekit/source"
)

// Result is a raw hit promoted past the identity-dedup and threshold
// filter. Relevance is the per-source-normalised score in [0,1]; Rank is
// the 1-based position after ordering and optional diversification.
type Result struct {
	source.Hit
	Relevance float32
	Rank      int
}

// DedupeConfig tunes the diversification pass.
type DedupeConfig struct {
	Lambda    float32 // MMR relevance/diversity trade-off
	Diversify bool    // apply MMR when the set is large enough
}

// DefaultDedupeConfig returns the standard dedupe settings.
func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{Lambda: 0.7, Diversify: true}
}

// Dedupe merges multi-source hits into the final evidence set:
//
//  1. identity dedup, first-seen wins (URL, else doc-id+chunk)
//  2. quality filter using the supplied dynamic threshold
//  3. deterministic order: relevance desc, tie-break title asc
//  4. optional MMR diversification for sets larger than three
//
// The returned slice is renumbered 1..k. Empty output means no usable
// evidence; the orchestrator converts that into the explicit no-evidence
// answer.
func Dedupe(hits []source.Hit, th Threshold, cfg DedupeConfig) []Result {
	if len(hits) == 0 {
		return nil
	}
	if cfg.Lambda <= 0 || cfg.Lambda > 1 {
		cfg.Lambda = 0.7
	}

	seen := make(map[string]struct{}, len(hits))
	unique := make([]source.Hit, 0, len(hits))
	for _, hit := range hits {
		key := hit.IdentityKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, hit)
	}

	relevance := normalizeScores(unique)

	filtered := make([]Result, 0, len(unique))
	for i, hit := range unique {
		if relevance[i] < th.QualityMin {
			continue
		}
		filtered = append(filtered, Result{Hit: hit, Relevance: relevance[i]})
	}
	if len(filtered) == 0 {
		return nil
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Relevance != filtered[j].Relevance {
			return filtered[i].Relevance > filtered[j].Relevance
		}
		return filtered[i].Title < filtered[j].Title
	})

	if th.MaxResults > 0 && len(filtered) > th.MaxResults {
		filtered = filtered[:th.MaxResults]
	}

	if cfg.Diversify && len(filtered) > 3 {
		filtered = diversify(filtered, cfg.Lambda)
	}

	for i := range filtered {
		filtered[i].Rank = i + 1
	}
	return filtered
}

// normalizeScores maps raw scores to [0,1] per source convention. Backends
// that report scores above 1 are scaled by their own maximum; everything
// else is clamped.
func normalizeScores(hits []source.Hit) []float32 {
	maxBySource := make(map[string]float32)
	for _, hit := range hits {
		if hit.Score > maxBySource[hit.Source] {
			maxBySource[hit.Source] = hit.Score
		}
	}

	out := make([]float32, len(hits))
	for i, hit := range hits {
		score := hit.Score
		if max := maxBySource[hit.Source]; max > 1 {
			score = score / max
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out[i] = score
	}
	return out
}

// diversify applies Maximal Marginal Relevance: iteratively pick the item
// maximising λ·relevance − (1−λ)·maxSimilarityToSelected. A small
// relevance loss buys reduced redundancy across near-duplicate snippets.
func diversify(candidates []Result, lambda float32) []Result {
	remaining := make([]Result, len(candidates))
	copy(remaining, candidates)

	tokens := make(map[string]map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		tokens[cand.IdentityKey()] = tokenSet(cand.Title + " " + cand.Snippet)
	}

	selected := make([]Result, 0, len(candidates))
	for len(remaining) > 0 {
		bestIdx := -1
		bestScore := float32(math.Inf(-1))
		for idx, cand := range remaining {
			var redundancy float32
			for _, picked := range selected {
				sim := jaccard(tokens[cand.IdentityKey()], tokens[picked.IdentityKey()])
				if sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cand.Relevance - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		if bestIdx == -1 {
			break
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

var tokenRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

func tokenSet(content string) map[string]struct{} {
	terms := tokenRegex.FindAllString(strings.ToLower(content), -1)
	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var common int
	for term := range small {
		if _, ok := large[term]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float32(common) / float32(union)
}

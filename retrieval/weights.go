package retrieval

import "strings"

// Weights is the vector/text balance handed to a search backend.
// VectorWeight and TextWeight always sum to 1.
type Weights struct {
	Vector float32
	Text   float32
}

// WeightsFor maps the shape of a subquery to retrieval tuning weights.
// Single-token queries lean hard on vector similarity because lexical
// matching is unreliable on one word; two-token queries stay balanced;
// longer queries lean on vectors again because literal matching degrades
// as phrasing diverges from indexed text. Pure and total for any
// non-empty string.
func WeightsFor(subquery string) Weights {
	switch tokens := len(strings.Fields(strings.TrimSpace(subquery))); {
	case tokens <= 1:
		return Weights{Vector: 0.8, Text: 0.2}
	case tokens == 2:
		return Weights{Vector: 0.65, Text: 0.35}
	default:
		return Weights{Vector: 0.75, Text: 0.25}
	}
}

package synthesis

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Completion ceilings keyed to evidence richness. A short answer wastes
// strong evidence; a long answer on thin evidence invites fabrication.
const (
	budgetMinimal  = 800
	budgetSmall    = 1000
	budgetMedium   = 1500
	budgetLarge    = 2000
	budgetRich     = 2500
	budgetMaximal  = 3000
	richDocumentCt = 6
)

// TokenBudget returns the completion ceiling for a reference map of the
// given size backed by the given number of distinct documents.
func TokenBudget(referenceCount, distinctDocuments int) int64 {
	switch {
	case referenceCount >= 15 && distinctDocuments >= richDocumentCt:
		return budgetMaximal
	case referenceCount >= 12:
		return budgetRich
	case referenceCount >= 8:
		return budgetLarge
	case referenceCount >= 5:
		return budgetMedium
	case referenceCount >= 3:
		return budgetSmall
	default:
		return budgetMinimal
	}
}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// CountTokens measures text with the cl100k_base encoding. When the
// encoding data is unavailable (offline environments) it falls back to the
// four-characters-per-token approximation.
func CountTokens(text string) int {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoder = enc
		}
	})
	if encoder != nil {
		return len(encoder.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

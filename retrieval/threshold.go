package retrieval

// Threshold is the inclusion cutoff computed from a score distribution.
type Threshold struct {
	QualityMin float32
	MaxResults int
}

// Score bands used to gauge how rich the evidence for a query is.
const (
	highScoreBand   = 0.45
	mediumScoreBand = 0.38
)

// ThresholdFor derives the quality cutoff and the result cap from the full
// unfiltered score distribution of a query. A fixed threshold either
// starves sparse topics or floods rich ones with noise, so the cutoff
// moves with the evidence: lots of high-quality hits raise the bar, scarce
// evidence relaxes it. QualityMin is non-increasing as the high-quality
// count shrinks.
func ThresholdFor(scores []float32) Threshold {
	var high, medium int
	for _, s := range scores {
		if s > highScoreBand {
			high++
		}
		if s > mediumScoreBand {
			medium++
		}
	}

	switch {
	case high >= 15:
		return Threshold{QualityMin: 0.40, MaxResults: 25}
	case high >= 8:
		return Threshold{QualityMin: 0.38, MaxResults: 20}
	case high >= 4:
		return Threshold{QualityMin: 0.37, MaxResults: 15}
	case medium >= 5:
		return Threshold{QualityMin: 0.36, MaxResults: 12}
	default:
		return Threshold{QualityMin: 0.35, MaxResults: 8}
	}
}

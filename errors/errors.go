package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrInvalidConfig indicates that the engine configuration is incomplete
	// or inconsistent. This is the only error class surfaced to callers
	// before retrieval begins.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoEvidence indicates that no source returned usable hits.
	ErrNoEvidence = errors.New("no supporting evidence")

	// ErrSourceUnavailable indicates that a retrieval backend could not be
	// reached. Recovered locally by the coordinator.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUngroundedDraft indicates that too many citations in a model draft
	// failed grounding and the draft was discarded.
	ErrUngroundedDraft = errors.New("draft failed grounding")
)

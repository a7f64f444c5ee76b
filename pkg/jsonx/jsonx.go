// Package jsonx decodes structured output returned by language models.
// Decoding fails closed: callers receive a typed zero result and an error
// they can map to an empty plan instead of aborting the request.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode tries to unmarshal the raw model output into T after stripping fences.
func Decode[T any](raw string) (*T, error) {
	clean := StripFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("decode JSON: empty payload")
	}
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.DisallowUnknownFields()
	var out T
	if err := dec.Decode(&out); err != nil {
		// Retry once without the unknown-field guard; models often add
		// harmless extra keys.
		var loose T
		if lerr := json.Unmarshal([]byte(clean), &loose); lerr != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return &loose, nil
	}
	return &out, nil
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}

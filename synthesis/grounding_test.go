package synthesis

import (
	"strings"
	"testing"
)

func TestValidateKeepsGroundedCitations(t *testing.T) {
	refs := testRefs(docResult("Solar report",
		"Installed solar capacity in Germany reached 82 gigawatts during 2024.", 0.9))

	draft := "Installed solar capacity reached 82 gigawatts in Germany [1]."
	text, verdict := Validate(draft, refs)

	if text != draft {
		t.Errorf("grounded draft was modified: %q", text)
	}
	if verdict.Total != 1 || verdict.Grounded != 1 || verdict.Stripped != 0 {
		t.Errorf("verdict = %+v", verdict)
	}
	if verdict.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", verdict.Confidence)
	}
}

func TestValidateStripsUngroundedMarker(t *testing.T) {
	refs := testRefs(docResult("Solar report",
		"Installed solar capacity in Germany reached 82 gigawatts during 2024.", 0.9))

	draft := "Napoleon crowned himself emperor of France in 1804 [1]."
	text, verdict := Validate(draft, refs)

	if strings.Contains(text, "[1]") {
		t.Errorf("ungrounded marker survived: %q", text)
	}
	if !strings.Contains(text, "Napoleon crowned himself") {
		t.Error("the sentence itself must survive, only the marker goes")
	}
	if verdict.Stripped != 1 {
		t.Errorf("stripped = %d, want 1", verdict.Stripped)
	}
	if verdict.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", verdict.Confidence)
	}
}

func TestValidateNoMarkers(t *testing.T) {
	refs := testRefs(docResult("Solar report", "snippet", 0.9))
	text, verdict := Validate("A draft with no citations at all.", refs)
	if text != "A draft with no citations at all." {
		t.Errorf("marker-free draft was modified: %q", text)
	}
	if verdict.Confidence != 1 {
		t.Errorf("confidence = %v, want 1 for no markers", verdict.Confidence)
	}
}

func TestValidateUnknownIDIsUngrounded(t *testing.T) {
	refs := testRefs(docResult("Solar report",
		"Installed solar capacity in Germany reached 82 gigawatts during 2024.", 0.9))

	text, verdict := Validate("Installed solar capacity reached 82 gigawatts [9].", refs)
	if strings.Contains(text, "[9]") {
		t.Errorf("marker pointing outside the map survived: %q", text)
	}
	if verdict.Grounded != 0 {
		t.Errorf("grounded = %d, want 0", verdict.Grounded)
	}
}

func TestFallbackCircuitBreaker(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		grounded int
		want     bool
	}{
		{"two of three ungrounded", 3, 1, true},
		{"exactly half ungrounded", 4, 2, false},
		{"few citations never trip", 2, 0, false},
		{"all grounded", 5, 5, false},
		{"most of many ungrounded", 10, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Verdict{Total: tt.total, Grounded: tt.grounded}
			if got := v.Fallback(); got != tt.want {
				t.Errorf("Fallback() with %d/%d grounded = %v, want %v",
					tt.grounded, tt.total, got, tt.want)
			}
		})
	}
}

func TestValidateMixedDraft(t *testing.T) {
	refs := testRefs(
		docResult("Solar report",
			"Installed solar capacity in Germany reached 82 gigawatts during 2024.", 0.9),
		docResult("Wind report",
			"Offshore wind farms in the North Sea produced record output last winter.", 0.8),
	)

	draft := "Installed solar capacity reached 82 gigawatts in Germany [1]. " +
		"Offshore wind farms produced record output in the North Sea [2]. " +
		"The moon is made of green cheese [1]."
	text, verdict := Validate(draft, refs)

	if verdict.Total != 3 || verdict.Grounded != 2 || verdict.Stripped != 1 {
		t.Fatalf("verdict = %+v", verdict)
	}
	if verdict.Fallback() {
		t.Error("one bad citation out of three must not trip the circuit breaker")
	}
	if strings.Count(text, "[1]") != 1 {
		t.Errorf("expected exactly one surviving [1]: %q", text)
	}
	if !strings.Contains(text, "[2]") {
		t.Errorf("grounded [2] stripped: %q", text)
	}
}

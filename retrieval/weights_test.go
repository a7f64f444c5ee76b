package retrieval

import "testing"

func TestWeightsFor(t *testing.T) {
	tests := []struct {
		name     string
		subquery string
		vector   float32
		text     float32
	}{
		{"single token", "Klimaschutz", 0.8, 0.2},
		{"single token with whitespace", "  Photosynthese  ", 0.8, 0.2},
		{"two tokens", "climate policy", 0.65, 0.35},
		{"three tokens", "german climate policy", 0.75, 0.25},
		{"long query", "how does the european union regulate carbon emissions", 0.75, 0.25},
		{"empty", "", 0.8, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeightsFor(tt.subquery)
			if w.Vector != tt.vector || w.Text != tt.text {
				t.Errorf("WeightsFor(%q) = (%v, %v), want (%v, %v)",
					tt.subquery, w.Vector, w.Text, tt.vector, tt.text)
			}
			if w.Vector+w.Text != 1 {
				t.Errorf("weights for %q do not sum to 1", tt.subquery)
			}
		})
	}
}

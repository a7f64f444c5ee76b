package embed

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	if sim := CosineSimilarity(a, b); math.Abs(float64(sim)-1) > 1e-5 {
		t.Errorf("identical vectors: got %v, want 1", sim)
	}

	c := []float32{0, 1, 0}
	if sim := CosineSimilarity(a, c); math.Abs(float64(sim)) > 1e-5 {
		t.Errorf("orthogonal vectors: got %v, want 0", sim)
	}

	if CosineSimilarity(a, []float32{1, 2}) != 0 {
		t.Error("mismatched dimensions must score 0")
	}
	if CosineSimilarity(a, []float32{0, 0, 0}) != 0 {
		t.Error("zero vector must score 0")
	}
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", norm)
	}

	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector must pass through unchanged")
	}
}

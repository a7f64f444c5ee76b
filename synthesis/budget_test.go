package synthesis

import "testing"

func TestTokenBudget(t *testing.T) {
	tests := []struct {
		name       string
		references int
		documents  int
		want       int64
	}{
		{"no evidence", 0, 0, 800},
		{"two references", 2, 1, 800},
		{"three references", 3, 2, 1000},
		{"five references", 5, 3, 1500},
		{"eight references", 8, 4, 2000},
		{"twelve references", 12, 5, 2500},
		{"rich evidence", 15, 6, 3000},
		{"many references, few documents", 20, 3, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenBudget(tt.references, tt.documents); got != tt.want {
				t.Errorf("TokenBudget(%d, %d) = %d, want %d",
					tt.references, tt.documents, got, tt.want)
			}
		})
	}
}

func TestTokenBudgetMonotone(t *testing.T) {
	var prev int64
	for refs := 0; refs <= 20; refs++ {
		got := TokenBudget(refs, refs)
		if got < prev {
			t.Fatalf("budget fell from %d to %d at %d references", prev, got, refs)
		}
		prev = got
	}
}

func TestCountTokensNonEmpty(t *testing.T) {
	if CountTokens("") != 0 {
		t.Error("empty text must cost zero tokens")
	}
	if CountTokens("the quick brown fox jumps over the lazy dog") == 0 {
		t.Error("non-empty text must cost tokens")
	}
}

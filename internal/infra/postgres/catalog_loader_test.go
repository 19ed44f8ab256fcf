package postgres

import (
	"testing"

	"conversation-deck-service/internal/domain"
)

func TestOrderLike(t *testing.T) {
	counted := []domain.Category{
		{ID: "extra", Name: "extra", Count: 1},
		{ID: "b", Name: "B", Count: 2},
		{ID: "a", Name: "A", Count: 3},
	}
	known := []domain.Category{{ID: "a"}, {ID: "b"}, {ID: "unused"}}

	got := orderLike(counted, known)
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "extra"} {
		if got[i].ID != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, got[i].ID)
		}
	}
}

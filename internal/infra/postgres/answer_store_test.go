package postgres

import (
	"context"
	"errors"
	"io"
	"testing"

	"conversation-deck-service/internal/domain"
)

func TestClassifyTransportErrorsAsUnavailable(t *testing.T) {
	err := classify("query answers", io.ErrUnexpectedEOF)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}

	if err := classify("query answers", context.DeadlineExceeded); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected deadline to be unavailable, got %v", err)
	}
}

func TestValidID(t *testing.T) {
	if !validID("7b0f5a52-6f0e-4e8e-9f6e-3f7c1b2a9d10") {
		t.Fatalf("expected uuid to be valid")
	}
	for _, id := range []string{"not-a-uuid", ""} {
		if validID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestGuardsSkipTheDatabase(t *testing.T) {
	// a nil db would panic if any of these reached it
	store := NewAnswerStore(nil)
	ctx := context.Background()

	n, err := store.DeleteWhere(ctx, domain.AnswerFilter{ID: "bogus", SessionID: "s1"})
	if err != nil || n != 0 {
		t.Fatalf("expected benign no-op delete, got n=%d err=%v", n, err)
	}

	if _, err := store.DeleteWhere(ctx, domain.AnswerFilter{}); !errors.Is(err, domain.ErrStoreRejected) {
		t.Fatalf("expected unfiltered delete to be rejected, got %v", err)
	}

	rows, err := store.Query(ctx, domain.AnswerFilter{ID: "bogus"}, domain.NewestFirst)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no rows, got %d err=%v", len(rows), err)
	}

	if _, err := store.UpdateByID(ctx, "bogus", domain.AnswerPatch{AnswerText: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRowToDomain(t *testing.T) {
	row := answerRow{ID: "id", QuestionID: 3, AnswerText: "a", SessionID: "s", UserName: "Bob", Category: "deep"}
	a := row.toDomain()
	if a.AuthorName != "Bob" || a.SessionID != "s" || a.Category != "deep" {
		t.Fatalf("unexpected mapping: %+v", a)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conversation-deck-service/internal/domain"
)

// RecordStore is the remote collection of answer records.
type RecordStore interface {
	Query(ctx context.Context, filter domain.AnswerFilter, order domain.SortOrder) ([]domain.Answer, error)
	Insert(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	UpdateByID(ctx context.Context, id string, patch domain.AnswerPatch) (domain.Answer, error)
	DeleteWhere(ctx context.Context, filter domain.AnswerFilter) (int, error)
}

// AnswerClient keeps one session's answers in sync with a RecordStore.
// It does no locking; callers serialise access.
type AnswerClient struct {
	store     RecordStore
	sessionID string
	now       func() time.Time
	cache     []domain.Answer
}

// NewAnswerClient scopes a client to sessionID.
func NewAnswerClient(store RecordStore, sessionID string) *AnswerClient {
	return NewAnswerClientWithClock(store, sessionID, time.Now)
}

// NewAnswerClientWithClock allows deterministic timestamps in tests.
func NewAnswerClientWithClock(store RecordStore, sessionID string, now func() time.Time) *AnswerClient {
	return &AnswerClient{store: store, sessionID: sessionID, now: now}
}

// LoadMine replaces the cache with the session's answers, newest first.
func (c *AnswerClient) LoadMine(ctx context.Context) ([]domain.Answer, error) {
	answers, err := c.store.Query(ctx, domain.AnswerFilter{SessionID: c.sessionID}, domain.NewestFirst)
	if err != nil {
		recordAnswerOp("load", err)
		return nil, fmt.Errorf("load answers: %w", err)
	}
	c.cache = answers
	recordAnswerOp("load", nil)
	return c.Mine(), nil
}

// Mine returns a copy of the cached answers.
func (c *AnswerClient) Mine() []domain.Answer {
	out := make([]domain.Answer, len(c.cache))
	copy(out, c.cache)
	return out
}

// Save creates or updates the session's answer for in.QuestionID.
func (c *AnswerClient) Save(ctx context.Context, in domain.AnswerInput) (domain.Answer, error) {
	in.AnswerText = strings.TrimSpace(in.AnswerText)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if err := validateAnswerInput(in); err != nil {
		recordAnswerOp("save", err)
		return domain.Answer{}, err
	}

	existing, err := c.store.Query(ctx, domain.AnswerFilter{SessionID: c.sessionID, QuestionID: in.QuestionID}, domain.NewestFirst)
	if err != nil {
		recordAnswerOp("save", err)
		return domain.Answer{}, fmt.Errorf("lookup answer: %w", err)
	}

	now := c.now()
	var saved domain.Answer
	updated := false
	if len(existing) > 0 {
		saved, err = c.store.UpdateByID(ctx, existing[0].ID, domain.AnswerPatch{
			AnswerText: in.AnswerText,
			AuthorName: in.AuthorName,
			UpdatedAt:  now,
		})
		switch {
		case err == nil:
			updated = true
		case errors.Is(err, domain.ErrNotFound):
			// Deleted elsewhere since the lookup; save it as a new answer.
			c.forget(existing[0].ID)
		default:
			recordAnswerOp("save", err)
			return domain.Answer{}, fmt.Errorf("update answer: %w", err)
		}
	}
	if !updated {
		saved, err = c.store.Insert(ctx, domain.Answer{
			QuestionID:   in.QuestionID,
			QuestionText: in.QuestionText,
			AnswerText:   in.AnswerText,
			Category:     in.Category,
			SessionID:    c.sessionID,
			AuthorName:   in.AuthorName,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			recordAnswerOp("save", err)
			return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
		}
	}

	c.remember(saved)
	recordAnswerOp("save", nil)
	return saved, nil
}

// Delete removes one of the session's answers. It reports false without an
// error when nothing owned by this session matched; the id is still dropped
// from the cache, since another tab may have deleted it first.
func (c *AnswerClient) Delete(ctx context.Context, answerID string) (bool, error) {
	if answerID == "" {
		return false, nil
	}
	n, err := c.store.DeleteWhere(ctx, domain.AnswerFilter{ID: answerID, SessionID: c.sessionID})
	if err != nil {
		recordAnswerOp("delete", err)
		return false, fmt.Errorf("delete answer: %w", err)
	}
	c.forget(answerID)
	if n == 0 {
		recordAnswerOp("delete", domain.ErrNotFound)
		return false, nil
	}
	recordAnswerOp("delete", nil)
	return true, nil
}

// FindByQuestion looks up the cached answer for a question.
func (c *AnswerClient) FindByQuestion(questionID int) (domain.Answer, bool) {
	for _, a := range c.cache {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return domain.Answer{}, false
}

// FetchCommunity returns every session's answers grouped by author name, with
// the owning session ids cleared.
func (c *AnswerClient) FetchCommunity(ctx context.Context) ([]domain.PersonAnswers, error) {
	answers, err := c.store.Query(ctx, domain.AnswerFilter{}, domain.NewestFirst)
	if err != nil {
		recordAnswerOp("community", err)
		return nil, fmt.Errorf("fetch community answers: %w", err)
	}
	for i := range answers {
		answers[i].SessionID = ""
	}
	recordAnswerOp("community", nil)
	return GroupByAuthor(answers), nil
}

// GroupByAuthor partitions answers by exact author name, keeping input order
// inside each group. Groups appear in order of their first answer, so a
// newest-first input yields groups ordered by most recent answer.
func GroupByAuthor(answers []domain.Answer) []domain.PersonAnswers {
	index := make(map[string]int)
	var groups []domain.PersonAnswers
	for _, a := range answers {
		name := a.AuthorName
		if name == "" {
			name = domain.AnonymousAuthor
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, domain.PersonAnswers{DisplayName: name, LastAnsweredAt: a.CreatedAt})
		}
		g := &groups[i]
		g.Answers = append(g.Answers, a)
		g.Total++
		if a.CreatedAt.After(g.LastAnsweredAt) {
			g.LastAnsweredAt = a.CreatedAt
		}
	}
	return groups
}

func (c *AnswerClient) remember(a domain.Answer) {
	for i := range c.cache {
		if c.cache[i].ID == a.ID {
			c.cache[i] = a
			return
		}
	}
	c.cache = append([]domain.Answer{a}, c.cache...)
}

func (c *AnswerClient) forget(id string) {
	kept := c.cache[:0:0]
	for _, a := range c.cache {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	c.cache = kept
}

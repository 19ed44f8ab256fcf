package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"conversation-deck-service/internal/domain"
	"github.com/google/uuid"
)

// AnswerStore is an in-memory implementation of app.RecordStore. It enforces
// the one-answer-per-(session, question) rule like the Postgres unique index.
type AnswerStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	seq     int64
	records map[string]storedAnswer
}

type storedAnswer struct {
	answer domain.Answer
	seq    int64
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{
		clock:   time.Now,
		records: make(map[string]storedAnswer),
	}
}

func (s *AnswerStore) Query(_ context.Context, filter domain.AnswerFilter, order domain.SortOrder) ([]domain.Answer, error) {
	s.mu.RLock()
	matched := make([]storedAnswer, 0, len(s.records))
	for _, r := range s.records {
		if matches(r.answer, filter) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.answer.CreatedAt.Equal(b.answer.CreatedAt) {
			if order == domain.OldestFirst {
				return a.answer.CreatedAt.Before(b.answer.CreatedAt)
			}
			return a.answer.CreatedAt.After(b.answer.CreatedAt)
		}
		if order == domain.OldestFirst {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	out := make([]domain.Answer, len(matched))
	for i, r := range matched {
		out[i] = r.answer
	}
	return out, nil
}

func (s *AnswerStore) Insert(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.answer.SessionID == answer.SessionID && r.answer.QuestionID == answer.QuestionID {
			return domain.Answer{}, domain.Rejected("insert answer",
				fmt.Errorf("answer for question %d already exists in session", answer.QuestionID))
		}
	}

	answer.ID = uuid.NewString()
	now := s.clock()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	if answer.UpdatedAt.IsZero() {
		answer.UpdatedAt = answer.CreatedAt
	}
	s.seq++
	s.records[answer.ID] = storedAnswer{answer: answer, seq: s.seq}
	return answer, nil
}

func (s *AnswerStore) UpdateByID(_ context.Context, id string, patch domain.AnswerPatch) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return domain.Answer{}, domain.Rejected("update answer", domain.ErrNotFound)
	}
	r.answer.AnswerText = patch.AnswerText
	r.answer.AuthorName = patch.AuthorName
	r.answer.UpdatedAt = patch.UpdatedAt
	if r.answer.UpdatedAt.IsZero() {
		r.answer.UpdatedAt = s.clock()
	}
	s.records[id] = r
	return r.answer, nil
}

func (s *AnswerStore) DeleteWhere(_ context.Context, filter domain.AnswerFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, r := range s.records {
		if matches(r.answer, filter) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many records are stored.
func (s *AnswerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(a domain.Answer, f domain.AnswerFilter) bool {
	if f.ID != "" && a.ID != f.ID {
		return false
	}
	if f.SessionID != "" && a.SessionID != f.SessionID {
		return false
	}
	if f.QuestionID != 0 && a.QuestionID != f.QuestionID {
		return false
	}
	return true
}

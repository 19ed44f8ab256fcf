package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"conversation-deck-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type answerRow struct {
	bun.BaseModel `bun:"table:answers"`

	ID           string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	QuestionID   int       `bun:"question_id,notnull"`
	QuestionText string    `bun:"question_text,notnull"`
	AnswerText   string    `bun:"answer_text,notnull"`
	Category     string    `bun:"category,nullzero"`
	SessionID    string    `bun:"user_session,notnull"`
	UserName     string    `bun:"user_name,nullzero"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:           r.ID,
		QuestionID:   r.QuestionID,
		QuestionText: r.QuestionText,
		AnswerText:   r.AnswerText,
		Category:     r.Category,
		SessionID:    r.SessionID,
		AuthorName:   r.UserName,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// AnswerStore implements app.RecordStore on the answers table.
type AnswerStore struct {
	db *bun.DB
}

func NewAnswerStore(db *bun.DB) *AnswerStore {
	return &AnswerStore{db: db}
}

func (s *AnswerStore) Query(ctx context.Context, filter domain.AnswerFilter, order domain.SortOrder) ([]domain.Answer, error) {
	if filter.ID != "" && !validID(filter.ID) {
		return nil, nil
	}
	var rows []answerRow
	q := s.db.NewSelect().Model(&rows)
	q = applyFilter(q, filter)
	if order == domain.OldestFirst {
		q = q.OrderExpr("created_at ASC, id ASC")
	} else {
		q = q.OrderExpr("created_at DESC, id DESC")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, classify("query answers", err)
	}
	out := make([]domain.Answer, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *AnswerStore) Insert(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	row := &answerRow{
		QuestionID:   answer.QuestionID,
		QuestionText: answer.QuestionText,
		AnswerText:   answer.AnswerText,
		Category:     answer.Category,
		SessionID:    answer.SessionID,
		UserName:     answer.AuthorName,
		CreatedAt:    answer.CreatedAt,
		UpdatedAt:    answer.UpdatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := s.db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		return domain.Answer{}, classify("insert answer", err)
	}
	return row.toDomain(), nil
}

func (s *AnswerStore) UpdateByID(ctx context.Context, id string, patch domain.AnswerPatch) (domain.Answer, error) {
	if !validID(id) {
		return domain.Answer{}, domain.Rejected("update answer", domain.ErrNotFound)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	row := new(answerRow)
	_, err := s.db.NewUpdate().
		Model(row).
		Set("answer_text = ?", patch.AnswerText).
		Set("user_name = ?", nullIfEmpty(patch.AuthorName)).
		Set("updated_at = ?", updatedAt).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && row.ID == "") {
		return domain.Answer{}, domain.Rejected("update answer", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Answer{}, classify("update answer", err)
	}
	return row.toDomain(), nil
}

func (s *AnswerStore) DeleteWhere(ctx context.Context, filter domain.AnswerFilter) (int, error) {
	if filter == (domain.AnswerFilter{}) {
		return 0, domain.Rejected("delete answers", fmt.Errorf("refusing unfiltered delete"))
	}
	if filter.ID != "" && !validID(filter.ID) {
		return 0, nil
	}
	q := s.db.NewDelete().Model((*answerRow)(nil))
	if filter.ID != "" {
		q = q.Where("id = ?", filter.ID)
	}
	if filter.SessionID != "" {
		q = q.Where("user_session = ?", filter.SessionID)
	}
	if filter.QuestionID != 0 {
		q = q.Where("question_id = ?", filter.QuestionID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, classify("delete answers", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("delete answers", err)
	}
	return int(n), nil
}

func applyFilter(q *bun.SelectQuery, f domain.AnswerFilter) *bun.SelectQuery {
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.SessionID != "" {
		q = q.Where("user_session = ?", f.SessionID)
	}
	if f.QuestionID != 0 {
		q = q.Where("question_id = ?", f.QuestionID)
	}
	return q
}

// ids are assigned by gen_random_uuid(); anything else cannot match a row
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// classify separates errors Postgres answered with from transport failures.
func classify(op string, err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return domain.Rejected(op, err)
	}
	return domain.Unavailable(op, err)
}

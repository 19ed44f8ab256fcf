package domain

import "time"

// AnonymousAuthor labels community answers saved without an author name.
const AnonymousAuthor = "Anonymous"

// Question is a single conversation prompt from the catalog.
type Question struct {
	ID       int    `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Category describes a tag used to filter the deck.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"-"`
}

// Catalog is the fixed question reference data in catalog order.
type Catalog struct {
	Questions  []Question `json:"questions"`
	Categories []Category `json:"categories"`
}

// Answer is a saved free-text answer, unique per (SessionID, QuestionID).
// SessionID is the owner's credential and never leaves the process.
type Answer struct {
	ID           string    `json:"id"`
	QuestionID   int       `json:"questionId"`
	QuestionText string    `json:"questionText"`
	AnswerText   string    `json:"answerText"`
	Category     string    `json:"category,omitempty"`
	SessionID    string    `json:"-"`
	AuthorName   string    `json:"authorName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AnswerInput carries what a caller supplies when saving an answer.
type AnswerInput struct {
	QuestionID   int    `json:"questionId" validate:"gt=0"`
	QuestionText string `json:"questionText"`
	AnswerText   string `json:"answerText" validate:"notblank,max=4000"`
	Category     string `json:"category,omitempty"`
	AuthorName   string `json:"authorName,omitempty" validate:"max=80"`
}

// AnswerPatch lists the fields an update may change.
type AnswerPatch struct {
	AnswerText string
	AuthorName string
	UpdatedAt  time.Time
}

// AnswerFilter selects answer records. Zero-valued fields do not filter.
type AnswerFilter struct {
	ID         string
	SessionID  string
	QuestionID int
}

// SortOrder orders query results by creation time.
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// PersonAnswers groups community answers under one author name.
type PersonAnswers struct {
	DisplayName    string    `json:"displayName"`
	Answers        []Answer  `json:"answers"`
	Total          int       `json:"total"`
	LastAnsweredAt time.Time `json:"lastAnsweredAt"`
}

// DeckState is a read-only snapshot of a deck for clients.
type DeckState struct {
	Question         *Question `json:"question,omitempty"`
	Position         int       `json:"position"`
	Total            int       `json:"total"`
	Shuffled         bool      `json:"shuffled"`
	ActiveCategories []string  `json:"activeCategories"`
}

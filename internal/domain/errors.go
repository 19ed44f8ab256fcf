package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDeck is returned when navigating a deck with no questions.
	ErrEmptyDeck = errors.New("deck has no questions")
	// ErrIndexOutOfRange indicates a jump to a position outside the deck.
	ErrIndexOutOfRange = errors.New("deck index out of range")
	// ErrValidation is returned for answer input that cannot be saved.
	ErrValidation = errors.New("invalid answer input")
	// ErrStoreUnavailable indicates the record store could not be reached.
	ErrStoreUnavailable = errors.New("answer store unavailable")
	// ErrStoreRejected indicates the record store refused the request.
	ErrStoreRejected = errors.New("answer store rejected request")
	// ErrNotFound indicates an answer is absent or owned by another session.
	ErrNotFound = errors.New("answer not found")
	// ErrCatalogNotFound indicates the question catalog could not be loaded.
	ErrCatalogNotFound = errors.New("question catalog not found")
	// ErrSessionNotFound is returned when a session has not been opened.
	ErrSessionNotFound = errors.New("deck session not found")
)

// StoreError reports a failed record store call. It matches both its Kind
// (ErrStoreUnavailable or ErrStoreRejected) and the underlying cause.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps err as a store outage for operation op.
func Unavailable(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrStoreUnavailable, Err: err}
}

// Rejected wraps err as a refused store request for operation op.
func Rejected(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrStoreRejected, Err: err}
}

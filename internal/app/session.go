package app

import (
	"sync"
	"time"

	"conversation-deck-service/internal/deck"
)

// Session is the in-process state of one anonymous session: its deck, its
// answer cache and the connections attached to it.
type Session struct {
	id       string
	openedAt time.Time

	mu         sync.Mutex
	deck       *deck.Deck
	answers    *AnswerClient
	authorName string
	conns      int
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return &Session{id: id, openedAt: time.Now()}
}

// IsIdle reports whether no connection is attached.
func (s *Session) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns == 0
}

func (s *Session) ready() bool {
	return s.deck != nil && s.answers != nil
}

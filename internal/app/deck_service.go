package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conversation-deck-service/internal/deck"
	"conversation-deck-service/internal/domain"
	"go.uber.org/zap"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfIdle(sessionID string)
}

// CatalogRepository loads the question catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// NameStore persists the display name chosen by a session.
type NameStore interface {
	GetName(ctx context.Context, sessionID string) (string, error)
	SetName(ctx context.Context, sessionID, name string) error
	DeleteName(ctx context.Context, sessionID string) error
}

// View is what a client sees after each command.
type View struct {
	Deck       domain.DeckState `json:"deck"`
	Answer     *domain.Answer   `json:"answer,omitempty"`
	AuthorName string           `json:"authorName,omitempty"`
	SavedCount int              `json:"savedCount"`
}

// DeckService composes a deck and an answer client per session.
type DeckService struct {
	sessions SessionRepository
	catalogs CatalogRepository
	store    RecordStore
	names    NameStore
	logger   *zap.Logger
	newDeck  func([]domain.Question) *deck.Deck
}

func NewDeckService(sessions SessionRepository, catalogs CatalogRepository, store RecordStore, names NameStore, logger *zap.Logger) *DeckService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeckService{
		sessions: sessions,
		catalogs: catalogs,
		store:    store,
		names:    names,
		logger:   logger,
		newDeck:  deck.New,
	}
}

// WithDeckFactory swaps how decks are built; tests use it to seed shuffles.
func (s *DeckService) WithDeckFactory(fn func([]domain.Question) *deck.Deck) *DeckService {
	s.newDeck = fn
	return s
}

// Open attaches a connection to a session, building its deck on first use.
// If saved answers cannot be loaded the session is still opened: the View is
// valid and the returned error wraps the store failure. Call Refresh to retry.
func (s *DeckService) Open(ctx context.Context, sessionID string) (View, error) {
	if sessionID == "" {
		return View{}, domain.ErrSessionNotFound
	}
	sess := s.attach(sessionID)

	sess.mu.Lock()
	var loadErr error
	if !sess.ready() {
		catalog, err := s.catalogs.GetCatalog(ctx)
		if err != nil {
			sess.mu.Unlock()
			s.Close(ctx, sessionID)
			return View{}, fmt.Errorf("open session: %w", err)
		}
		sess.deck = s.newDeck(catalog.Questions)
		sess.answers = NewAnswerClient(s.store, sessionID)

		if name, err := s.names.GetName(ctx, sessionID); err != nil {
			s.logger.Warn("load display name failed", zap.String("session", sessionID), zap.Error(err))
		} else {
			sess.authorName = name
		}
		if _, err := sess.answers.LoadMine(ctx); err != nil {
			s.logger.Warn("load answers failed", zap.String("session", sessionID), zap.Error(err))
			loadErr = err
		}
		s.logger.Info("session opened", zap.String("session", sessionID), zap.Int("questions", sess.deck.Len()))
	}
	view := s.viewLocked(sess)
	sess.mu.Unlock()
	return view, loadErr
}

// Close detaches a connection and drops the session once nothing is attached.
func (s *DeckService) Close(_ context.Context, sessionID string) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	sess.mu.Lock()
	if sess.conns > 0 {
		sess.conns--
		if sess.conns == 0 {
			openSessions.Dec()
		}
	}
	idle := sess.conns == 0
	sess.mu.Unlock()

	if idle {
		s.sessions.DeleteIfIdle(sessionID)
		s.logger.Debug("session released",
			zap.String("session", sess.id),
			zap.Duration("open_for", time.Since(sess.openedAt)))
	}
}

func (s *DeckService) attach(sessionID string) *Session {
	for {
		sess := s.sessions.GetOrCreate(sessionID)
		sess.mu.Lock()
		sess.conns++
		if sess.conns == 1 {
			openSessions.Inc()
		}
		sess.mu.Unlock()

		// DeleteIfIdle may have dropped the session between the two calls.
		if cur, ok := s.sessions.Get(sessionID); ok && cur == sess {
			return sess
		}
		sess.mu.Lock()
		sess.conns--
		if sess.conns == 0 {
			openSessions.Dec()
		}
		sess.mu.Unlock()
	}
}

// Current returns the view without changing anything.
func (s *DeckService) Current(_ context.Context, sessionID string) (View, error) {
	return s.command(sessionID, "current", func(*Session) error { return nil })
}

func (s *DeckService) Next(_ context.Context, sessionID string) (View, error) {
	return s.command(sessionID, "next", func(sess *Session) error { return sess.deck.Advance() })
}

func (s *DeckService) Prev(_ context.Context, sessionID string) (View, error) {
	return s.command(sessionID, "prev", func(sess *Session) error { return sess.deck.Retreat() })
}

func (s *DeckService) Shuffle(_ context.Context, sessionID string) (View, error) {
	return s.command(sessionID, "shuffle", func(sess *Session) error {
		sess.deck.Shuffle()
		return nil
	})
}

func (s *DeckService) Reset(_ context.Context, sessionID string) (View, error) {
	return s.command(sessionID, "reset", func(sess *Session) error {
		sess.deck.Reset()
		return nil
	})
}

// Filter applies a category filter, which also reshuffles the deck.
func (s *DeckService) Filter(_ context.Context, sessionID string, categories []string) (View, error) {
	return s.command(sessionID, "filter", func(sess *Session) error {
		sess.deck.ApplyFilter(categories)
		return nil
	})
}

func (s *DeckService) GoTo(_ context.Context, sessionID string, index int) (View, error) {
	return s.command(sessionID, "goto", func(sess *Session) error { return sess.deck.GoTo(index) })
}

// SaveAnswer stores an answer for the current question. An empty author name
// falls back to the session's display name.
func (s *DeckService) SaveAnswer(ctx context.Context, sessionID, answerText, authorName string) (domain.Answer, error) {
	var saved domain.Answer
	_, err := s.command(sessionID, "save", func(sess *Session) error {
		q, ok := sess.deck.Current()
		if !ok {
			return domain.ErrEmptyDeck
		}
		author := strings.TrimSpace(authorName)
		if author == "" {
			author = sess.authorName
		}
		a, err := sess.answers.Save(ctx, domain.AnswerInput{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			AnswerText:   answerText,
			Category:     q.Category,
			AuthorName:   author,
		})
		if err != nil {
			return err
		}
		saved = a
		return nil
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return saved, nil
}

// DeleteAnswer removes one of the session's answers; false means nothing matched.
func (s *DeckService) DeleteAnswer(ctx context.Context, sessionID, answerID string) (bool, error) {
	var deleted bool
	_, err := s.command(sessionID, "delete", func(sess *Session) error {
		var err error
		deleted, err = sess.answers.Delete(ctx, answerID)
		return err
	})
	return deleted, err
}

// History returns the session's cached answers, newest first.
func (s *DeckService) History(_ context.Context, sessionID string) ([]domain.Answer, error) {
	var out []domain.Answer
	_, err := s.command(sessionID, "history", func(sess *Session) error {
		out = sess.answers.Mine()
		return nil
	})
	return out, err
}

// Refresh reloads the session's answers from the store.
func (s *DeckService) Refresh(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	var out []domain.Answer
	_, err := s.command(sessionID, "refresh", func(sess *Session) error {
		var err error
		out, err = sess.answers.LoadMine(ctx)
		return err
	})
	return out, err
}

// Community returns all sessions' answers grouped by author. It does not
// need an open session.
func (s *DeckService) Community(ctx context.Context) ([]domain.PersonAnswers, error) {
	groups, err := NewAnswerClient(s.store, "").FetchCommunity(ctx)
	if err != nil {
		s.logger.Warn("fetch community failed", zap.Error(err))
		return nil, err
	}
	return groups, nil
}

// Categories lists catalog categories with their question counts.
func (s *DeckService) Categories(ctx context.Context) ([]domain.Category, error) {
	c, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Categories, nil
}

// SetName stores the session's display name. A blank name clears it.
func (s *DeckService) SetName(ctx context.Context, sessionID, name string) (string, error) {
	name = strings.TrimSpace(name)
	_, err := s.command(sessionID, "name", func(sess *Session) error {
		var err error
		if name == "" {
			err = s.names.DeleteName(ctx, sessionID)
		} else {
			err = s.names.SetName(ctx, sessionID, name)
		}
		if err != nil {
			return fmt.Errorf("save display name: %w", err)
		}
		sess.authorName = name
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *DeckService) command(sessionID, name string, fn func(*Session) error) (View, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		recordDeckCommand(name, domain.ErrSessionNotFound)
		return View{}, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.ready() {
		recordDeckCommand(name, domain.ErrSessionNotFound)
		return View{}, domain.ErrSessionNotFound
	}

	err := fn(sess)
	recordDeckCommand(name, err)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrStoreRejected) {
			s.logger.Warn("command failed", zap.String("command", name), zap.String("session", sessionID), zap.Error(err))
		} else {
			s.logger.Debug("command rejected", zap.String("command", name), zap.String("session", sessionID), zap.Error(err))
		}
		return s.viewLocked(sess), err
	}
	return s.viewLocked(sess), nil
}

func (s *DeckService) viewLocked(sess *Session) View {
	v := View{
		Deck:       sess.deck.State(),
		AuthorName: sess.authorName,
		SavedCount: len(sess.answers.cache),
	}
	if v.Deck.Question != nil {
		if a, ok := sess.answers.FindByQuestion(v.Deck.Question.ID); ok {
			v.Answer = &a
		}
	}
	return v
}

package app

import (
	"errors"

	"conversation-deck-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deck_answer_operations_total",
		Help: "Answer store client operations by result",
	}, []string{"op", "result"})

	deckCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deck_commands_total",
		Help: "Deck navigation commands by result",
	}, []string{"command", "result"})

	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deck_open_sessions",
		Help: "Sessions with at least one attached connection",
	})
)

func recordAnswerOp(op string, err error) {
	answerOps.WithLabelValues(op, resultLabel(err)).Inc()
}

func recordDeckCommand(cmd string, err error) {
	deckCommands.WithLabelValues(cmd, resultLabel(err)).Inc()
}

// ErrorCode maps an error to the stable code reported to clients.
func ErrorCode(err error) string {
	return resultLabel(err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyDeck):
		return "empty_deck"
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, domain.ErrStoreRejected):
		return "store_rejected"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	default:
		return "internal"
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"conversation-deck-service/internal/app"
	"conversation-deck-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.DeckService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.DeckService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type filterPayload struct {
	Categories []string `json:"categories"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type savePayload struct {
	AnswerText string `json:"answerText"`
	AuthorName string `json:"authorName"`
}

type deletePayload struct {
	AnswerID string `json:"answerId"`
}

type namePayload struct {
	Name string `json:"name"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type savedPayload struct {
	Answer domain.Answer `json:"answer"`
	View   app.View      `json:"view"`
}

type deletedPayload struct {
	AnswerID string   `json:"answerId"`
	Deleted  bool     `json:"deleted"`
	View     app.View `json:"view"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errBadPayload = errors.New("invalid payload")

// ServeWS upgrades HTTP requests to websockets and runs one session's command loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)

	conn, err := h.upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	view, err := h.service.Open(ctx, sessionID)
	if err != nil && !isStoreError(err) {
		h.writeError(conn, err)
		return
	}
	defer h.service.Close(context.Background(), sessionID)

	_ = conn.WriteJSON(outboundMessage[sessionPayload]{Type: "session", Payload: sessionPayload{SessionID: sessionID}})
	_ = conn.WriteJSON(outboundMessage[app.View]{Type: "state", Payload: view})
	if err != nil {
		h.writeError(conn, err)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg, err := h.dispatch(ctx, sessionID, inbound)
		if err != nil {
			if !h.writeError(conn, err) {
				break
			}
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("ws write error", zap.String("session", sessionID), zap.Error(err))
			break
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, sessionID string, in inboundMessage) (any, error) {
	state := func(v app.View, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		return outboundMessage[app.View]{Type: "state", Payload: v}, nil
	}

	switch in.Type {
	case "current":
		return state(h.service.Current(ctx, sessionID))
	case "next":
		return state(h.service.Next(ctx, sessionID))
	case "prev":
		return state(h.service.Prev(ctx, sessionID))
	case "shuffle":
		return state(h.service.Shuffle(ctx, sessionID))
	case "reset":
		return state(h.service.Reset(ctx, sessionID))
	case "filter":
		var p filterPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return state(h.service.Filter(ctx, sessionID, p.Categories))
	case "goto":
		var p gotoPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return state(h.service.GoTo(ctx, sessionID, p.Index))
	case "save":
		var p savePayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		answer, err := h.service.SaveAnswer(ctx, sessionID, p.AnswerText, p.AuthorName)
		if err != nil {
			return nil, err
		}
		view, err := h.service.Current(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return outboundMessage[savedPayload]{Type: "saved", Payload: savedPayload{Answer: answer, View: view}}, nil
	case "delete":
		var p deletePayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		deleted, err := h.service.DeleteAnswer(ctx, sessionID, p.AnswerID)
		if err != nil {
			return nil, err
		}
		view, err := h.service.Current(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return outboundMessage[deletedPayload]{Type: "deleted", Payload: deletedPayload{AnswerID: p.AnswerID, Deleted: deleted, View: view}}, nil
	case "history":
		answers, err := h.service.History(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return outboundMessage[[]domain.Answer]{Type: "history", Payload: nonNil(answers)}, nil
	case "refresh":
		answers, err := h.service.Refresh(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return outboundMessage[[]domain.Answer]{Type: "history", Payload: nonNil(answers)}, nil
	case "community":
		groups, err := h.service.Community(ctx)
		if err != nil {
			return nil, err
		}
		return outboundMessage[[]domain.PersonAnswers]{Type: "community", Payload: nonNil(groups)}, nil
	case "categories":
		cats, err := h.service.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return outboundMessage[[]domain.Category]{Type: "categories", Payload: cats}, nil
	case "setName":
		var p namePayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		name, err := h.service.SetName(ctx, sessionID, p.Name)
		if err != nil {
			return nil, err
		}
		return outboundMessage[namePayload]{Type: "profile", Payload: namePayload{Name: name}}, nil
	default:
		return nil, errUnsupported
	}
}

var errUnsupported = errors.New("unsupported message type")

// writeError reports err to the client; false means the connection is gone.
func (h *WSHandler) writeError(conn *websocket.Conn, err error) bool {
	code := app.ErrorCode(err)
	switch {
	case errors.Is(err, errBadPayload):
		code = "bad_request"
	case errors.Is(err, errUnsupported):
		code = "unsupported"
	}
	if code == "internal" {
		h.logger.Error("ws command failed", zap.Error(err))
	}
	return conn.WriteJSON(outboundMessage[errorPayload]{
		Type:    "error",
		Payload: errorPayload{Code: code, Message: err.Error()},
	}) == nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBadPayload
	}
	return nil
}

func isStoreError(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrStoreRejected)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

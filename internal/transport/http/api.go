package http

import (
	"encoding/json"
	"net/http"

	"conversation-deck-service/internal/app"
	"go.uber.org/zap"
)

// API serves the read-only JSON endpoints.
type API struct {
	service *app.DeckService
	logger  *zap.Logger
}

func NewAPI(service *app.DeckService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{service: service, logger: logger}
}

// Register mounts the API and the websocket endpoint on mux.
func (a *API) Register(mux *http.ServeMux, ws *WSHandler) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /categories", a.categories)
	mux.HandleFunc("GET /community", a.community)
	mux.HandleFunc("GET /session", a.session)
	mux.HandleFunc("/ws", ws.ServeWS)
}

func (a *API) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.service.Categories(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (a *API) community(w http.ResponseWriter, r *http.Request) {
	groups, err := a.service.Community(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(groups))
}

// session issues the session cookie without opening a websocket.
func (a *API) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionPayload{SessionID: ensureSession(w, r)})
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if isStoreError(err) {
		status = http.StatusBadGateway
	}
	a.logger.Warn("api request failed", zap.Error(err))
	writeJSON(w, status, errorPayload{Code: app.ErrorCode(err), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

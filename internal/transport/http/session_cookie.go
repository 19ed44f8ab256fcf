package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is the cookie carrying the anonymous session identifier.
const SessionCookie = "deck_session"

const sessionMaxAge = 365 * 24 * time.Hour

// NewSessionID returns an opaque identifier: creation time plus a random suffix.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "session_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// ensureSession returns the caller's session id, issuing a cookie for a new
// one when the request carries none. Only the cookie is trusted.
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && validSessionID(c.Value) {
		return c.Value
	}
	id := NewSessionID(time.Now())
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func validSessionID(id string) bool {
	return id != "" && len(id) <= 128 && !strings.ContainsAny(id, " \t\r\n;,")
}

package http

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conversation-deck-service/internal/app"
	"conversation-deck-service/internal/catalog"
	"conversation-deck-service/internal/deck"
	"conversation-deck-service/internal/domain"
	"conversation-deck-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(catalog.MustDefault()), time.Minute)
	service := app.NewDeckService(memory.NewSessionStore(), catalogs, memory.NewAnswerStore(), memory.NewNameStore(), zap.NewNop()).
		WithDeckFactory(func(qs []domain.Question) *deck.Deck {
			return deck.NewWithRand(qs, rand.New(rand.NewSource(3)))
		})

	mux := http.NewServeMux()
	NewAPI(service, nil).Register(mux, NewWSHandler(service, nil))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	if sessionID != "" {
		header.Set("Cookie", SessionCookie+"="+sessionID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) json.RawMessage {
	t.Helper()
	var msg envelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, expect, msg.Type, string(msg.Payload))
	return msg.Payload
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func readView(t *testing.T, conn *websocket.Conn) app.View {
	t.Helper()
	var v app.View
	require.NoError(t, json.Unmarshal(readNext(t, conn, "state"), &v))
	return v
}

func TestWebSocketDeckFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "")

	var sess sessionPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "session"), &sess))
	require.True(t, strings.HasPrefix(sess.SessionID, "session_"))

	view := readView(t, conn)
	require.Equal(t, 186, view.Deck.Total)
	require.Equal(t, 1, view.Deck.Question.ID)

	send(t, conn, "next", nil)
	view = readView(t, conn)
	require.Equal(t, 1, view.Deck.Position)

	send(t, conn, "filter", map[string]any{"categories": []string{"dreams"}})
	view = readView(t, conn)
	require.Equal(t, 10, view.Deck.Total)
	require.True(t, view.Deck.Shuffled)

	send(t, conn, "reset", nil)
	view = readView(t, conn)
	require.False(t, view.Deck.Shuffled)

	send(t, conn, "filter", map[string]any{"categories": []string{"nothing"}})
	view = readView(t, conn)
	require.Zero(t, view.Deck.Total)

	send(t, conn, "next", nil)
	var e errorPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "error"), &e))
	require.Equal(t, "empty_deck", e.Code)

	send(t, conn, "bogus", nil)
	require.NoError(t, json.Unmarshal(readNext(t, conn, "error"), &e))
	require.Equal(t, "unsupported", e.Code)
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "session_1_abc")
	readNext(t, conn, "session")
	readView(t, conn)

	send(t, conn, "save", map[string]any{"answerText": "   "})
	var e errorPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "error"), &e))
	require.Equal(t, "validation", e.Code)

	send(t, conn, "setName", map[string]any{"name": " Alice "})
	var profile namePayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "profile"), &profile))
	require.Equal(t, "Alice", profile.Name)

	send(t, conn, "save", map[string]any{"answerText": "my answer"})
	var saved savedPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "saved"), &saved))
	require.Equal(t, "my answer", saved.Answer.AnswerText)
	require.Equal(t, "Alice", saved.Answer.AuthorName)
	require.NotNil(t, saved.View.Answer)
	require.Equal(t, 1, saved.View.SavedCount)

	send(t, conn, "history", nil)
	var history []domain.Answer
	require.NoError(t, json.Unmarshal(readNext(t, conn, "history"), &history))
	require.Len(t, history, 1)

	send(t, conn, "community", nil)
	var groups []domain.PersonAnswers
	require.NoError(t, json.Unmarshal(readNext(t, conn, "community"), &groups))
	require.Len(t, groups, 1)
	require.Equal(t, "Alice", groups[0].DisplayName)

	send(t, conn, "delete", map[string]any{"answerId": saved.Answer.ID})
	var deleted deletedPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "deleted"), &deleted))
	require.True(t, deleted.Deleted)
	require.Nil(t, deleted.View.Answer)
}

func TestCategoriesEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/categories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cats []domain.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	require.Len(t, cats, 11)
}

func TestCommunityEndpointEmpty(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/community")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var groups []domain.PersonAnswers
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Empty(t, groups)
}

func TestSessionEndpointIssuesCookie(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/session")
	require.NoError(t, err)
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	var sess sessionPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	require.Equal(t, cookie.Value, sess.SessionID)
}

func TestNewSessionID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	a := NewSessionID(at)
	b := NewSessionID(at)
	require.True(t, strings.HasPrefix(a, "session_1700000000123_"))
	require.Len(t, a, len("session_1700000000123_")+9)
	require.NotEqual(t, a, b)
}

func TestCommunityDoesNotLeakSessionIDs(t *testing.T) {
	server := newTestServer(t)
	const owner = "session_1_alicealic"
	conn := dial(t, server, owner)
	readNext(t, conn, "session")
	readView(t, conn)

	send(t, conn, "save", map[string]any{"answerText": "mine", "authorName": "Alice"})
	var saved savedPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "saved"), &saved))

	resp, err := http.Get(server.URL + "/community")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), saved.Answer.ID)
	require.NotContains(t, string(body), owner)
	require.NotContains(t, string(body), "sessionId")

	send(t, conn, "community", nil)
	require.NotContains(t, string(readNext(t, conn, "community")), owner)

	// a session id in the query string is ignored; the caller gets a new session
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?sessionId=" + owner
	other, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	var sess sessionPayload
	require.NoError(t, json.Unmarshal(readNext(t, other, "session"), &sess))
	require.NotEqual(t, owner, sess.SessionID)
	readView(t, other)

	send(t, other, "delete", map[string]any{"answerId": saved.Answer.ID})
	var deleted deletedPayload
	require.NoError(t, json.Unmarshal(readNext(t, other, "deleted"), &deleted))
	require.False(t, deleted.Deleted)

	send(t, conn, "history", nil)
	var history []domain.Answer
	require.NoError(t, json.Unmarshal(readNext(t, conn, "history"), &history))
	require.Len(t, history, 1)
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/konkoor/konkoor-backend/internal/service"
	ws "github.com/konkoor/konkoor-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, sessions *stubSessions, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	h := NewWSHandler(sessions, zerolog.Nop(), nil)
	r := gin.New()
	r.GET("/ws/v1/student/attempts/:attempt_id/stream", withClaims(7, service.RoleStudent), h.ExamStream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/student/attempts/9/stream" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestExamStreamActions(t *testing.T) {
	conn, _, err := dialStream(t, &stubSessions{}, "?session=tok")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionPing}))
	var ack ws.AckResponse
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, ws.EventPong, ack.Event)

	sel := "c"
	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAutosave, QuestionID: 11, SelectedAnswer: &sel}))
	var saved ws.SavedResponse
	require.NoError(t, conn.ReadJSON(&saved))
	require.Equal(t, ws.EventSaved, saved.Event)
	require.Equal(t, int64(11), saved.QuestionID)
	require.Equal(t, "c", string(*saved.Answer.SelectedAnswer))

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionBookmark, QuestionID: 12}))
	var marked ws.BookmarkedResponse
	require.NoError(t, conn.ReadJSON(&marked))
	require.Equal(t, int64(12), marked.QuestionID)
	require.True(t, marked.IsBookmarked)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionActivity, ActivityType: "fullscreen_exit"}))
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, ws.EventLogged, ack.Event)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: "teleport"}))
	var bad ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&bad))
	require.Equal(t, "INVALID_PAYLOAD", bad.Code)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionSubmit}))
	var graded ws.GradedResponse
	require.NoError(t, conn.ReadJSON(&graded))
	require.Equal(t, ws.EventGraded, graded.Event)
	require.Equal(t, 62.5, graded.Result.Percentage)

	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestExamStreamClosesOnExpiry(t *testing.T) {
	conn, _, err := dialStream(t, &stubSessions{err: service.ErrTimeExpired}, "?session=tok")
	require.NoError(t, err)
	defer conn.Close()

	sel := "a"
	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAutosave, QuestionID: 11, SelectedAnswer: &sel}))
	var e ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&e))
	require.Equal(t, ws.EventError, e.Event)
	require.Equal(t, "TIME_EXPIRED", e.Code)

	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestExamStreamKeepsOpenOnValidationError(t *testing.T) {
	conn, _, err := dialStream(t, &stubSessions{err: service.ErrInvalidOption}, "?session=tok")
	require.NoError(t, err)
	defer conn.Close()

	sel := "z"
	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionAutosave, QuestionID: 11, SelectedAnswer: &sel}))
	var e ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&e))
	require.Equal(t, "INVALID_OPTION", e.Code)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionPing}))
	var ack ws.AckResponse
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, ws.EventPong, ack.Event)
}

func TestExamStreamRequiresSession(t *testing.T) {
	_, resp, err := dialStream(t, &stubSessions{}, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

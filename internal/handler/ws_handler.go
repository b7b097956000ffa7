package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/konkoor/konkoor-backend/internal/middleware"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/konkoor/konkoor-backend/internal/service"
	ws "github.com/konkoor/konkoor-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const wsActionTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler carries the exam actions over a WebSocket for low-latency autosave.
type WSHandler struct {
	sessions ExamSession
	now      func() time.Time
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions ExamSession, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		now:      time.Now,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn is one student's stream for one attempt.
type wsConn struct {
	conn      *websocket.Conn
	studentID int64
	attemptID int64
	session   string
	log       zerolog.Logger
}

// ExamStream godoc
// WS /ws/v1/student/attempts/:attempt_id/stream?token=...&session=...
// Every action runs through the same service calls as the REST endpoints.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		response.Fail(c, http.StatusForbidden, response.ErrSessionRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s := &wsConn{
		conn:      conn,
		studentID: claims.UserID,
		attemptID: attemptID,
		session:   session,
		log: h.log.With().
			Int64("student_id", claims.UserID).
			Int64("attempt_id", attemptID).
			Logger(),
	}
	s.log.Info().Msg("Student connected")

	for {
		msg, err := ws.ReadRequest(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		if done := h.dispatch(s, msg); done {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt finished"),
				time.Now().Add(time.Second))
			return
		}
	}
}

// dispatch handles one frame and reports whether the attempt is over.
func (h *WSHandler) dispatch(s *wsConn, msg ws.Request) bool {
	ctx, cancel := context.WithTimeout(context.Background(), wsActionTimeout)
	defer cancel()

	switch msg.Action {
	case ws.ActionPing:
		ws.WriteTyped(s.conn, ws.AckResponse{Event: ws.EventPong})

	case ws.ActionAutosave:
		state, err := h.sessions.SubmitAnswer(ctx, s.studentID, s.attemptID, s.session, service.AnswerInput{
			QuestionID: msg.QuestionID,
			Selected:   msg.SelectedAnswer,
			TimeSpent:  msg.TimeSpent,
		}, h.now())
		if err != nil {
			return h.writeErr(s, err)
		}
		ws.WriteTyped(s.conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID, Answer: state})

	case ws.ActionBookmark:
		marked, err := h.sessions.ToggleBookmark(ctx, s.studentID, s.attemptID, s.session, msg.QuestionID, h.now())
		if err != nil {
			return h.writeErr(s, err)
		}
		ws.WriteTyped(s.conn, ws.BookmarkedResponse{Event: ws.EventBookmarked, QuestionID: msg.QuestionID, IsBookmarked: marked})

	case ws.ActionActivity:
		if err := h.sessions.LogActivity(ctx, s.studentID, s.attemptID, s.session, msg.ActivityType, h.now()); err != nil {
			return h.writeErr(s, err)
		}
		ws.WriteTyped(s.conn, ws.AckResponse{Event: ws.EventLogged})

	case ws.ActionSubmit:
		result, err := h.sessions.Submit(ctx, s.studentID, s.attemptID, s.session, h.now())
		if err != nil {
			return h.writeErr(s, err)
		}
		s.log.Info().Float64("percentage", result.Percentage).Msg("Attempt submitted over stream")
		ws.WriteTyped(s.conn, ws.GradedResponse{Event: ws.EventGraded, Result: result})
		return true

	default:
		s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		ws.WriteError(s.conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
	}
	return false
}

// writeErr reports err to the client and tells the loop to stop once the
// attempt can no longer take actions.
func (h *WSHandler) writeErr(s *wsConn, err error) bool {
	var de *service.DomainError
	if !errors.As(err, &de) {
		s.log.Error().Err(err).Msg("Stream action failed")
		ws.WriteError(s.conn, string(response.ErrInternal), response.GetMessage(response.ErrInternal))
		return false
	}

	code := response.ErrCode(de.Code)
	ws.WriteError(s.conn, de.Code, response.GetMessage(code))

	switch {
	case errors.Is(err, service.ErrTimeExpired),
		errors.Is(err, service.ErrAttemptFinalized),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrAttemptNotOwned),
		errors.Is(err, service.ErrAttemptNotFound):
		return true
	}
	return false
}

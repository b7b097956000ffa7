package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/response"
)

// ContextKeyExamSession is the Gin context key for the attempt session token.
const ContextKeyExamSession = "exam_session"

// RequireExamSession reads the per-attempt session token from header and
// rejects the request when it is absent. Whether it matches the attempt is
// decided by the service.
func RequireExamSession(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(header))
		if token == "" {
			response.AbortFail(c, http.StatusForbidden, response.ErrInvalidSession)
			return
		}
		c.Set(ContextKeyExamSession, token)
		c.Next()
	}
}

// GetExamSession returns the token stored by RequireExamSession.
func GetExamSession(c *gin.Context) string {
	return c.GetString(ContextKeyExamSession)
}

package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids caching of responses. Exam payloads are per-attempt and
// must never be served from a shared cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

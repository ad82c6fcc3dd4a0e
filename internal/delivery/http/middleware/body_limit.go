package middleware

import (
	"net/http"

	"portfolio-backend/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

const (
	DefaultBodyLimit   = 100 << 10
	MsgRequestTooLarge = "Request body too large"
)

// BodyLimit rejects declared oversize bodies up front and caps the rest
// with http.MaxBytesReader, whose error handlers map to 413.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			response.Error(c, http.StatusRequestEntityTooLarge, MsgRequestTooLarge)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

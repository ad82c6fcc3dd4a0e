package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request ID.
	RequestIDKey = "RequestID"
)

// RequestID preserves a well-formed incoming X-Request-ID or generates one,
// and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(RequestIDKey, rid)
		c.Header(HeaderRequestID, rid)

		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > 64 {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

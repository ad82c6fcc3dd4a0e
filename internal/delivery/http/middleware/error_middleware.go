package middleware

import (
	"errors"
	"net/http"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// MsgInternal is returned for panics and errors without a public message.
const MsgInternal = "Something went wrong!"

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(secLogger *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if !apperror.IsClientError(appErr) {
				attrs := []any{
					"error", err,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c),
				}
				if appErr.Err != nil {
					attrs = append(attrs, "cause", appErr.Err.Error())
				}
				logger.Log.Error("Request failed", attrs...)
			}
			response.Error(c, appErr.Code, appErr.Message)
			return
		}

		// Never expose internal error details to clients.
		logger.Log.Error("Internal Server Error",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", GetRequestID(c),
		)
		secLogger.LogServerError(c.Request.Context(), c.ClientIP(), GetRequestID(c), c.Request.URL.Path, err)
		response.Error(c, http.StatusInternalServerError, MsgInternal)
	}
}

// Recovery turns a panic into the generic JSON 500.
func Recovery(secLogger *security.SecurityLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"request_id", GetRequestID(c),
		)
		secLogger.LogServerError(c.Request.Context(), c.ClientIP(), GetRequestID(c), c.Request.URL.Path, errors.New("panic"))
		if !c.Writer.Written() {
			response.Error(c, http.StatusInternalServerError, MsgInternal)
		}
		c.Abort()
	})
}

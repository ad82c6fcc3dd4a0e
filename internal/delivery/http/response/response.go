package response

import (
	"github.com/gin-gonic/gin"
)

// Response is the success body: a message plus optional data.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Error: message})
}

package apperror

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func RequestTooLarge(message string) *AppError {
	return New(http.StatusRequestEntityTooLarge, message, nil)
}

// Internal carries a public message for a server-side failure; err stays private.
func Internal(message string, err error) *AppError {
	return New(http.StatusInternalServerError, message, err)
}

// IsClientError reports whether err is an AppError carrying a 4xx code.
func IsClientError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500
}

package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FirstMessage reduces validator errors to one message. Tags earlier in priority
// win when several fields fail at once.
// ok is false when err is not a validator.ValidationErrors or no tag is mapped.
func FirstMessage(err error, priority []string, messages map[string]string) (string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "", false
	}

	failed := make(map[string]bool, len(validationErrors))
	for _, e := range validationErrors {
		failed[e.Tag()] = true
	}
	for _, tag := range priority {
		if failed[tag] {
			msg, ok := messages[tag]
			return msg, ok
		}
	}
	return "", false
}

// FormatValidationErrors converts validator.ValidationErrors to log-friendly lines.
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s: failed %q", e.Field(), e.Tag()))
	}
	return messages
}

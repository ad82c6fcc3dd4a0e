package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// local@domain.tld: one "@", a "." somewhere after it, no whitespace anywhere.
	// Whitespace includes Unicode spaces, line/paragraph separators, vertical tab and BOM.
	emailRegex = regexp.MustCompile(`^[^@\s\v\p{Z}\x{FEFF}]+@[^@\s\v\p{Z}\x{FEFF}]+\.[^@\s\v\p{Z}\x{FEFF}]+$`)
)

// New returns a validator with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_email", ContactEmail)
}

// ContactEmail validates the loose address shape accepted by the contact form.
func ContactEmail(fl validator.FieldLevel) bool {
	return IsContactEmail(fl.Field().String())
}

// IsContactEmail reports whether s has the local@domain.tld shape.
func IsContactEmail(s string) bool {
	return emailRegex.MatchString(s)
}

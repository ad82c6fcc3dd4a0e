package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsContactEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.c", true},
		{"ada@example.com", true},
		{"first.last+tag@sub.example.co.uk", true},
		{"a@b", false},
		{"a b@c.d", false},
		{"a@b .c", false},
		{"a@b.c ", false},
		{"\ta@b.c", false},
		{"a\u00a0b@c.d", false},
		{"a @c.d", false},
		{"ab.c", false},
		{"a@@b.c", false},
		{"a@b@c.d", false},
		{"a@b.c@d", false},
		{"@b.c", false},
		{"a@.c", false},
		{"a@b.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContactEmail(tt.email))
		})
	}
}

type sample struct {
	Name  string `validate:"required"`
	Email string `validate:"required,contact_email"`
}

func TestFirstMessage(t *testing.T) {
	v := New()
	priority := []string{"required", "contact_email"}
	messages := map[string]string{
		"required":      "missing",
		"contact_email": "bad email",
	}

	t.Run("required beats email", func(t *testing.T) {
		err := v.Struct(sample{Name: "", Email: "nope"})
		msg, ok := FirstMessage(err, priority, messages)
		assert.True(t, ok)
		assert.Equal(t, "missing", msg)
	})

	t.Run("email only", func(t *testing.T) {
		err := v.Struct(sample{Name: "Ada", Email: "nope"})
		msg, ok := FirstMessage(err, priority, messages)
		assert.True(t, ok)
		assert.Equal(t, "bad email", msg)
	})

	t.Run("not a validation error", func(t *testing.T) {
		_, ok := FirstMessage(assert.AnError, priority, messages)
		assert.False(t, ok)
	})
}

func TestFormatValidationErrors(t *testing.T) {
	err := New().Struct(sample{})
	lines := FormatValidationErrors(err)
	assert.Equal(t, []string{`Name: failed "required"`, `Email: failed "required"`}, lines)
}

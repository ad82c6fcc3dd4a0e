package domain

import (
	"context"
	"time"
)

// User-facing messages of the contact endpoint. Clients match on these strings.
const (
	MsgAllFieldsRequired = "All fields are required"
	MsgInvalidEmail      = "Invalid email format"
	MsgInvalidBody       = "Invalid request body"
	MsgSubmitted         = "Form submitted successfully"
	MsgSubmitFailed      = "Error submitting form. Please try again later."
)

// FormSubmission represents a contact form submission. It lives for a single request.
type FormSubmission struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,contact_email"`
	Subject string `json:"subject" form:"subject" validate:"required"`
	Message string `json:"message" form:"message" validate:"required"`
}

// SubmissionEcho is returned to the submitter on success. The message body is never echoed.
type SubmissionEcho struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

// Echo strips the message body.
func (s FormSubmission) Echo() SubmissionEcho {
	return SubmissionEcho{Name: s.Name, Email: s.Email, Subject: s.Subject}
}

// StoredSubmission is the persisted form of an accepted submission.
type StoredSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactUsecase defines the contact form operations
type ContactUsecase interface {
	// Validate classifies a submission without side effects.
	Validate(s FormSubmission) error
	// Submit validates the submission and runs the accept hook.
	Submit(ctx context.Context, s FormSubmission) (*SubmissionEcho, error)
}

// AcceptHook runs once for every submission that passed validation.
type AcceptHook interface {
	OnAccept(ctx context.Context, s FormSubmission) error
}

// AcceptHookFunc adapts a function to AcceptHook.
type AcceptHookFunc func(ctx context.Context, s FormSubmission) error

func (f AcceptHookFunc) OnAccept(ctx context.Context, s FormSubmission) error {
	return f(ctx, s)
}

// SubmissionRepository persists accepted submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, s *StoredSubmission) error
}

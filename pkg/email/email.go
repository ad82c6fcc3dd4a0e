package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"portfolio-backend/config"

	"gopkg.in/gomail.v2"
)

const defaultSendTimeout = 15 * time.Second

var ErrNotConfigured = errors.New("email: SMTP is not configured")

// Sender delivers prepared messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends contact notifications through an SMTP relay.
type Mailer struct {
	fromEmail  string
	toEmail    string
	configured bool
	sender     Sender
	timeout    time.Duration
}

// ContactEmailData is the content of one notification.
type ContactEmailData struct {
	SenderName  string
	SenderEmail string
	Subject     string
	Message     string
	RequestID   string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &Mailer{
		fromEmail:  from,
		toEmail:    cfg.ContactEmailTo,
		configured: cfg.SMTPConfigured(),
		sender:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		timeout:    defaultSendTimeout,
	}
}

// WithSender replaces the SMTP transport.
func (m *Mailer) WithSender(s Sender) *Mailer {
	m.sender = s
	return m
}

var contactEmailTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New portfolio message</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #222; }
        .wrap { max-width: 600px; margin: 0 auto; padding: 20px; }
        .label { font-weight: bold; color: #555; }
        .message { background: #f5f5f5; padding: 15px; border-left: 4px solid #333; white-space: pre-wrap; }
        .meta { color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="wrap">
        <h2>New message from the portfolio contact form</h2>
        <p><span class="label">From:</span> {{.SenderName}} &lt;{{.SenderEmail}}&gt;</p>
        <p><span class="label">Subject:</span> {{.Subject}}</p>
        <div class="message">{{.Message}}</div>
        {{if .RequestID}}<p class="meta">Request {{.RequestID}}</p>{{end}}
    </div>
</body>
</html>`))

// headerValue strips CR and LF so submitted text cannot add headers.
func headerValue(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func renderBody(data ContactEmailData) (string, error) {
	var body bytes.Buffer
	if err := contactEmailTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// BuildMessage renders the notification for data.
func (m *Mailer) BuildMessage(data ContactEmailData) (*gomail.Message, error) {
	body, err := renderBody(data)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.fromEmail)
	msg.SetHeader("To", m.toEmail)
	msg.SetHeader("Reply-To", headerValue(data.SenderEmail))
	msg.SetHeader("Subject", "Portfolio contact: "+headerValue(data.Subject))
	msg.SetBody("text/html", body)
	return msg, nil
}

// SendContactEmail delivers a notification to the configured recipient.
// It gives up when ctx ends or the send timeout passes, whichever is first.
func (m *Mailer) SendContactEmail(ctx context.Context, data ContactEmailData) error {
	if !m.IsConfigured() {
		return ErrNotConfigured
	}

	msg, err := m.BuildMessage(data)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(msg)
	}()

	wait := m.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

// IsConfigured reports whether the relay and recipient are known.
func (m *Mailer) IsConfigured() bool {
	return m.configured && m.sender != nil
}

package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"portfolio-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type senderFunc func(m ...*gomail.Message) error

func (f senderFunc) DialAndSend(m ...*gomail.Message) error { return f(m...) }

func testConfig() *config.Config {
	return &config.Config{
		SMTPHost:       "smtp.example.com",
		SMTPPort:       587,
		SMTPUsername:   "relay@example.com",
		SMTPPassword:   "pw",
		ContactEmailTo: "me@example.com",
	}
}

func TestBuildMessageStripsHeaderBreaks(t *testing.T) {
	m := NewMailer(testConfig())

	msg, err := m.BuildMessage(ContactEmailData{
		SenderName:  "Ada",
		SenderEmail: "ada@example.com",
		Subject:     "Hi\r\nBcc: victim@example.com",
		Message:     "Hello",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"relay@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"me@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("Reply-To"))
	assert.Equal(t, []string{"Portfolio contact: Hi  Bcc: victim@example.com"}, msg.GetHeader("Subject"))
	assert.Empty(t, msg.GetHeader("Bcc"))

	var out bytes.Buffer
	_, err = msg.WriteTo(&out)
	require.NoError(t, err)

	headers, body, found := strings.Cut(out.String(), "\r\n\r\n")
	require.True(t, found)
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, headers, "Subject: Portfolio contact: Hi  Bcc: victim@example.com")
	assert.NotEmpty(t, body)
}

func TestRenderBodyEscapesInput(t *testing.T) {
	body, err := renderBody(ContactEmailData{SenderName: "<b>Ada</b>", Message: "<script>x</script>", RequestID: "req-1"})
	require.NoError(t, err)

	assert.Contains(t, body, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Request req-1")
}

func TestSendContactEmail(t *testing.T) {
	data := ContactEmailData{SenderName: "Ada", SenderEmail: "ada@example.com", Subject: "Hi", Message: "Hello"}

	t.Run("delivers through the sender", func(t *testing.T) {
		var sent []*gomail.Message
		m := NewMailer(testConfig()).WithSender(senderFunc(func(msgs ...*gomail.Message) error {
			sent = append(sent, msgs...)
			return nil
		}))

		require.NoError(t, m.SendContactEmail(context.Background(), data))
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"me@example.com"}, sent[0].GetHeader("To"))
	})

	t.Run("not configured", func(t *testing.T) {
		m := NewMailer(&config.Config{})
		assert.ErrorIs(t, m.SendContactEmail(context.Background(), data), ErrNotConfigured)
	})

	t.Run("transport failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		m := NewMailer(testConfig()).WithSender(senderFunc(func(...*gomail.Message) error { return boom }))
		assert.ErrorIs(t, m.SendContactEmail(context.Background(), data), boom)
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		m := NewMailer(testConfig()).WithSender(senderFunc(func(...*gomail.Message) error {
			<-release
			return nil
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := m.SendContactEmail(ctx, data)
		assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
	})
}

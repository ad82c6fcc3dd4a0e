package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventRateLimitStoreDown EventType = "rate_limit_store_unavailable"
	EventValidationFailed   EventType = "validation_failed"
	EventSubmissionAccepted EventType = "submission_accepted"
	EventServerError        EventType = "server_error"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Severity     Severity               `json:"severity"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip"
	SubjectValue string                 `json:"subject_value,omitempty"` // Masked or hashed for PII
	IPHash       string                 `json:"ip_hash,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events.
// A nil *SecurityLogger is valid and discards everything.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persistFunc func(ctx context.Context, event SecurityEvent) error
}

// NewZapLogger builds the production zap logger used for security events.
func NewZapLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// NewSecurityLogger wraps zapLogger. serviceName and environment are stamped on every event.
func NewSecurityLogger(zapLogger *zap.Logger, serviceName, environment string) *SecurityLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &SecurityLogger{
		zapLogger:   zapLogger,
		serviceName: serviceName,
		environment: environment,
	}
}

// SetPersistFunc sets the function to persist events to database
func (sl *SecurityLogger) SetPersistFunc(f func(ctx context.Context, event SecurityEvent) error) {
	if sl == nil {
		return
	}
	sl.persistFunc = f
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if sl == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment

	level := levelFor(event.Event)
	event.Level = level.String()
	event.Severity = SeverityFor(event.Event)

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IPHash != "" {
		fields = append(fields, zap.String("ip_hash", event.IPHash))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)

	if sl.persistFunc != nil {
		go func(e SecurityEvent) {
			// The request context is usually gone by the time this runs.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := sl.persistFunc(ctx, e); err != nil {
				sl.zapLogger.Error("Failed to persist security event", zap.Error(err))
			}
		}(event)
	}
}

func levelFor(event EventType) zapcore.Level {
	switch event {
	case EventSubmissionAccepted:
		return zapcore.InfoLevel
	case EventRateLimitTriggered, EventValidationFailed:
		return zapcore.WarnLevel
	case EventRateLimitStoreDown, EventServerError:
		return zapcore.ErrorLevel
	}
	return zapcore.WarnLevel
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string, limit int) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: HashValue(ip),
		IPHash:       hashIP(ip),
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint, "limit": limit},
	})
}

// LogRateLimitStoreDown logs a failing counter backend.
func (sl *SecurityLogger) LogRateLimitStoreDown(ctx context.Context, ip, requestID string, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventRateLimitStoreDown,
		SubjectType: "system",
		IPHash:      hashIP(ip),
		RequestID:   requestID,
		Details:     map[string]interface{}{"error": err.Error()},
	})
}

// LogValidationFailed logs a rejected contact submission.
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, email, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventValidationFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IPHash:       hashIP(ip),
		RequestID:    requestID,
		Details:      map[string]interface{}{"reason": reason},
	})
}

// LogSubmissionAccepted logs an accepted contact submission.
func (sl *SecurityLogger) LogSubmissionAccepted(ctx context.Context, email, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventSubmissionAccepted,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IPHash:       hashIP(ip),
		RequestID:    requestID,
	})
}

// LogServerError logs an internal failure that was hidden from the client.
func (sl *SecurityLogger) LogServerError(ctx context.Context, ip, requestID, endpoint string, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventServerError,
		IPHash:    hashIP(ip),
		RequestID: requestID,
		Details:   map[string]interface{}{"endpoint": endpoint, "error": err.Error()},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	if sl == nil {
		return nil
	}
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

// Raw client addresses never leave the process.
func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	return HashValue(ip)
}

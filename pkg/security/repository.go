package security

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const securityEventsSchema = `
CREATE TABLE IF NOT EXISTS security_events (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT NOT NULL,
	service       TEXT NOT NULL,
	environment   TEXT NOT NULL,
	level         TEXT NOT NULL,
	severity      TEXT NOT NULL,
	subject_type  TEXT,
	subject_value TEXT,
	ip_hash       TEXT,
	user_agent    TEXT,
	request_id    TEXT,
	details       JSONB,
	created_at    TIMESTAMPTZ NOT NULL
)`

// SecurityEventRepository handles persistence of security events to database
type SecurityEventRepository struct {
	db *pgxpool.Pool
}

// NewSecurityEventRepository creates a new repository for security events
func NewSecurityEventRepository(db *pgxpool.Pool) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

// EnsureSchema creates the security_events table when missing.
func (r *SecurityEventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, securityEventsSchema); err != nil {
		return fmt.Errorf("failed to create security_events table: %w", err)
	}
	return nil
}

// PersistEvent inserts a security event into the database
func (r *SecurityEventRepository) PersistEvent(ctx context.Context, event SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			event_type, service, environment, level, severity,
			subject_type, subject_value, ip_hash, user_agent,
			request_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var detailsJSON []byte
	if len(event.Details) > 0 {
		detailsJSON, _ = json.Marshal(event.Details)
	} else {
		detailsJSON = []byte("null")
	}

	_, err := r.db.Exec(ctx, query,
		string(event.Event),
		event.Service,
		event.Environment,
		event.Level,
		string(event.Severity),
		event.SubjectType,
		event.SubjectValue,
		event.IPHash,
		event.UserAgent,
		event.RequestID,
		string(detailsJSON),
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to persist security event: %w", err)
	}

	return nil
}

// CreatePersistFunc creates a persist function for the SecurityLogger
func (r *SecurityEventRepository) CreatePersistFunc() func(context.Context, SecurityEvent) error {
	return r.PersistEvent
}

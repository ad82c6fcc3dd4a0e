package postgres

import (
	"context"
	"fmt"

	"portfolio-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const contactSubmissionsSchema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	subject    TEXT NOT NULL,
	message    TEXT NOT NULL,
	client_ip  TEXT,
	user_agent TEXT,
	request_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type submissionRepo struct {
	db *pgxpool.Pool
}

// SubmissionRepository adds schema management to domain.SubmissionRepository.
type SubmissionRepository interface {
	domain.SubmissionRepository
	EnsureSchema(ctx context.Context) error
}

func NewSubmissionRepository(db *pgxpool.Pool) SubmissionRepository {
	return &submissionRepo{db: db}
}

// EnsureSchema creates contact_submissions when missing.
func (r *submissionRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, contactSubmissionsSchema); err != nil {
		return fmt.Errorf("failed to create contact_submissions table: %w", err)
	}
	return nil
}

func (r *submissionRepo) Create(ctx context.Context, s *domain.StoredSubmission) error {
	query := `
		INSERT INTO contact_submissions (id, name, email, subject, message, client_ip, user_agent, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.Email, s.Subject, s.Message,
		s.ClientIP, s.UserAgent, s.RequestID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return nil
}

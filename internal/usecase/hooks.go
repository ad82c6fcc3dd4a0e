package usecase

import (
	"context"
	"fmt"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/email"

	"github.com/google/uuid"
)

// DelayHook waits d before accepting. It returns ctx.Err() if ctx ends first.
func DelayHook(d time.Duration) domain.AcceptHook {
	return domain.AcceptHookFunc(func(ctx context.Context, _ domain.FormSubmission) error {
		if d <= 0 {
			return nil
		}
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// PersistHook stores every accepted submission through repo.
func PersistHook(repo domain.SubmissionRepository) domain.AcceptHook {
	return domain.AcceptHookFunc(func(ctx context.Context, s domain.FormSubmission) error {
		stored := &domain.StoredSubmission{
			ID:        uuid.NewString(),
			Name:      s.Name,
			Email:     s.Email,
			Subject:   s.Subject,
			Message:   s.Message,
			ClientIP:  ctxString(ctx, domain.KeyClientIP),
			UserAgent: ctxString(ctx, domain.KeyUserAgent),
			RequestID: ctxString(ctx, domain.KeyRequestID),
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.Create(ctx, stored); err != nil {
			return fmt.Errorf("persist submission: %w", err)
		}
		return nil
	})
}

// Notifier delivers a notification for an accepted submission.
type Notifier interface {
	SendContactEmail(ctx context.Context, data email.ContactEmailData) error
}

// NotifyHook emails the site owner about every accepted submission.
func NotifyHook(n Notifier) domain.AcceptHook {
	return domain.AcceptHookFunc(func(ctx context.Context, s domain.FormSubmission) error {
		err := n.SendContactEmail(ctx, email.ContactEmailData{
			SenderName:  s.Name,
			SenderEmail: s.Email,
			Subject:     s.Subject,
			Message:     s.Message,
			RequestID:   ctxString(ctx, domain.KeyRequestID),
		})
		if err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		return nil
	})
}

// ChainHooks runs hooks in order and stops at the first error. Nil hooks are skipped.
func ChainHooks(hooks ...domain.AcceptHook) domain.AcceptHook {
	chain := make([]domain.AcceptHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			chain = append(chain, h)
		}
	}
	return domain.AcceptHookFunc(func(ctx context.Context, s domain.FormSubmission) error {
		for _, h := range chain {
			if err := h.OnAccept(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

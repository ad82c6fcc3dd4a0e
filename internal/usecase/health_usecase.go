package usecase

import (
	"context"
	"time"

	"portfolio-backend/internal/domain"
)

type healthUsecase struct {
	startedAt time.Time
	now       func() time.Time
}

// NewHealthUsecase reports uptime relative to startedAt. now defaults to time.Now.
func NewHealthUsecase(startedAt time.Time, now func() time.Time) domain.HealthUsecase {
	if now == nil {
		now = time.Now
	}
	return &healthUsecase{startedAt: startedAt, now: now}
}

func (u *healthUsecase) Check(ctx context.Context) domain.HealthStatus {
	now := u.now()
	return domain.HealthStatus{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(u.startedAt).Seconds(),
	}
}

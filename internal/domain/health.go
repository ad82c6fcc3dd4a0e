package domain

import (
	"context"
	"time"
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}

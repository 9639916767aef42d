package ports

import (
	"context"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

// AuditRepository persists auth audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuthEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]domain.AuthEvent, error)
}

// AuditService records a single audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AttemptLimiter throttles repeated sign-in failures per email.
type AttemptLimiter interface {
	// Allowed reports whether another attempt may proceed.
	Allowed(ctx context.Context, email string) (bool, error)
	// RecordFailure registers a failed attempt.
	RecordFailure(ctx context.Context, email string) error
	// Reset clears the failure counter after a successful sign-in.
	Reset(ctx context.Context, email string) error
}

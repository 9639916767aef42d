package ports

import (
	"context"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionEvent is published when a session changes outside the request that
// created it, so streaming consumers can react.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"` // "revoked"
}

// SessionPublisher broadcasts session lifecycle events.
type SessionPublisher interface {
	PublishRevoked(ctx context.Context, sessionID string) error
}

// SessionSubscriber delivers session lifecycle events until ctx is cancelled.
type SessionSubscriber interface {
	Subscribe(ctx context.Context) (<-chan SessionEvent, error)
}

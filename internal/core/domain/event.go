package domain

import "time"

// AuthEventType identifies the kind of audit event recorded.
type AuthEventType string

const (
	EventSignIn         AuthEventType = "sign_in"
	EventSignUp         AuthEventType = "sign_up"
	EventSignOut        AuthEventType = "sign_out"
	EventSocialSignIn   AuthEventType = "social_sign_in"
	EventPasswordChange AuthEventType = "password_change"
)

// AuthEvent is a single audit record emitted by the auth service. Events for
// the same email are processed in order.
type AuthEvent struct {
	Type      AuthEventType
	Email     string
	UserID    string
	Success   bool
	Reason    string // failure reason, empty on success
	IP        string
	Timestamp time.Time
}

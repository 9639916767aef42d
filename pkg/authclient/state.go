// Package authclient is the Go client SDK for the auth platform: typed
// wrappers for the auth actions, a push-fed observer projecting the current
// authentication state, and a server-sent-events source feeding it.
package authclient

import "time"

// User is the client-side projection of an account. Read-only; the service
// owns the canonical record.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Image         string    `json:"image,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session is the client-side projection of the server session record.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionData pairs the user with their session; both present or both absent.
type SessionData struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

// AuthState is the normalized view every consumer reads. It is recomputed
// in full on every push; there is no partial merge.
//
// Invariants, re-established on each update:
//   - IsAuthenticated ⟺ Session != nil && !IsLoading
//   - User == nil ⟺ Session == nil
type AuthState struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *User
	Session         *Session
	Err             error
}

// Update is a single push from a session source: fresh data (nil when
// signed out) or a transport error.
type Update struct {
	Data *SessionData
	Err  error
}

package ports

import (
	"context"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

// Credentials carries client metadata attached to a new session.
type Credentials struct {
	Email     string
	Password  string
	Name      string // sign-up only
	IP        string
	UserAgent string
}

// AuthResult is returned by operations that establish a session.
type AuthResult struct {
	User    *domain.User
	Session domain.Session
	Token   string // HS256 access token for Bearer API auth
}

type AuthService interface {
	SignUp(ctx context.Context, creds Credentials) (*AuthResult, error)
	SignIn(ctx context.Context, creds Credentials) (*AuthResult, error)
	SignOut(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, *domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	BeginSocial(ctx context.Context, provider, callbackURL string) (*SocialRedirect, error)
	CompleteSocial(ctx context.Context, in SocialCallback) (*AuthResult, error)
}

// SocialRedirect carries everything the handler needs to send the browser to
// the identity provider.
type SocialRedirect struct {
	AuthURL     string
	State       string
	Nonce       string
	CallbackURL string
}

// SocialCallback groups the parameters of the provider's redirect back.
type SocialCallback struct {
	Provider  string
	Code      string
	State     string
	Nonce     string
	IP        string
	UserAgent string
}

package ports

import (
	"context"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

// BeginInput carries inputs for initiating a social sign-in flow.
type BeginInput struct {
	CallbackURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// OAuthProvider initiates and completes an authentication flow against a
// social identity provider.
type OAuthProvider interface {
	// Begin starts the flow and returns the provider auth URL plus the opaque
	// state and nonce the callback must present.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the flow, verifying nonce, and returns the identity.
	Exchange(ctx context.Context, in ExchangeInput) (domain.Identity, error)
}

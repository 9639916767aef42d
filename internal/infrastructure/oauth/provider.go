package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

// Provider implements ports.OAuthProvider for any OIDC-compliant social
// identity provider (Google, GitHub via an OIDC bridge, etc.).
type Provider struct {
	config       *oauth2.Config
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for one social provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
	Scopes       []string
	HTTPClient   *http.Client // optional
}

// NewProvider performs OIDC discovery against the issuer and builds the
// OAuth2 code-flow configuration from the discovered endpoints.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("oauth: client credentials are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("oauth: redirect URL is required")
	}
	if cfg.IssuerURL == "" {
		return nil, errors.New("oauth: issuer URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, "/")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.CallbackURL == "" {
		return "", "", "", errors.New("oauth: callback URL is required")
	}

	state, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domain.Identity, error) {
	if in.Code == "" {
		return domain.Identity{}, errors.New("oauth: authorization code is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return domain.Identity{}, errors.New("oauth: missing id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Nonce         string `json:"nonce"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.Identity{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if in.Nonce != "" && claims.Nonce != in.Nonce {
		return domain.Identity{}, errors.New("oauth: invalid nonce")
	}

	identity := domain.Identity{
		Subject:       claims.Sub,
		Email:         claims.Email,
		Name:          claims.Name,
		Image:         claims.Picture,
		EmailVerified: claims.EmailVerified,
	}

	// Some providers omit profile claims from the id_token; fall back to the
	// userinfo endpoint for the gaps.
	if identity.Email == "" || identity.Name == "" {
		if err := p.fillFromUserInfo(ctx, token, &identity); err != nil {
			return domain.Identity{}, err
		}
	}
	if identity.Email == "" {
		return domain.Identity{}, errors.New("oauth: provider returned no email")
	}

	return identity, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, token *oauth2.Token, identity *domain.Identity) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := ui.Claims(&claims); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	if identity.Email == "" {
		identity.Email = claims.Email
		identity.EmailVerified = claims.EmailVerified
	}
	if identity.Name == "" {
		identity.Name = claims.Name
	}
	if identity.Image == "" {
		identity.Image = claims.Picture
	}
	return nil
}

// randomString returns a cryptographically secure URL-safe string of exactly
// n characters.
func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < n {
		s += "x"
	}
	return s[:n], nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements email/password and social authentication on top of
// a user repository, a session store, and per-provider OAuth adapters.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	publisher ports.SessionPublisher
	limiter   ports.AttemptLimiter
	providers map[string]ports.OAuthProvider
	audit     ports.AuditService

	jwtSecret            string
	sessionTTL           time.Duration
	bcryptCost           int
	requireVerifiedEmail bool
}

// AuthServiceOptions groups dependencies for AuthService. Zero-value TTL and
// cost fall back to sensible defaults.
type AuthServiceOptions struct {
	Users     ports.UserRepository
	Sessions  ports.SessionStore
	Publisher ports.SessionPublisher
	Limiter   ports.AttemptLimiter
	Providers map[string]ports.OAuthProvider
	Audit     ports.AuditService

	JWTSecret            string
	SessionTTL           time.Duration
	BcryptCost           int
	RequireVerifiedEmail bool
}

func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost <= 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:                opts.Users,
		sessions:             opts.Sessions,
		publisher:            opts.Publisher,
		limiter:              opts.Limiter,
		providers:            opts.Providers,
		audit:                opts.Audit,
		jwtSecret:            opts.JWTSecret,
		sessionTTL:           opts.SessionTTL,
		bcryptCost:           opts.BcryptCost,
		requireVerifiedEmail: opts.RequireVerifiedEmail,
	}
}

func (s *AuthService) SignUp(ctx context.Context, creds ports.Credentials) (*ports.AuthResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(creds.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        creds.Email,
		Name:         creds.Name,
		PasswordHash: string(hash),
		Provider:     domain.ProviderCredential,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		s.record(ctx, domain.EventSignUp, creds, "", err)
		return nil, err
	}

	result, err := s.establishSession(ctx, created, creds.IP, creds.UserAgent)
	s.record(ctx, domain.EventSignUp, creds, created.ID, err)
	return result, err
}

func (s *AuthService) SignIn(ctx context.Context, creds ports.Credentials) (*ports.AuthResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allowed(ctx, creds.Email)
		if err != nil {
			return nil, fmt.Errorf("attempt limiter: %w", err)
		}
		if !ok {
			s.record(ctx, domain.EventSignIn, creds, "", domain.ErrTooManyAttempts)
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		s.failure(ctx, domain.EventSignIn, creds, err)
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		s.failure(ctx, domain.EventSignIn, creds, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	if s.requireVerifiedEmail && !user.EmailVerified {
		s.record(ctx, domain.EventSignIn, creds, user.ID, domain.ErrEmailNotVerified)
		return nil, domain.ErrEmailNotVerified
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, creds.Email); err != nil {
			return nil, fmt.Errorf("attempt limiter reset: %w", err)
		}
	}

	result, err := s.establishSession(ctx, user, creds.IP, creds.UserAgent)
	s.record(ctx, domain.EventSignIn, creds, user.ID, err)
	return result, err
}

func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil // already gone, sign-out is idempotent
		}
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRevoked(ctx, sessionID); err != nil {
			return fmt.Errorf("publish revocation: %w", err)
		}
	}
	s.record(ctx, domain.EventSignOut, ports.Credentials{}, sess.UserID, nil)
	return nil
}

func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domain.Session, *domain.User, error) {
	if sessionID == "" {
		return nil, nil, domain.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return nil, nil, fmt.Errorf("cleanup expired session: %w", err)
		}
		return nil, nil, domain.ErrSessionExpired
	}
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &sess, user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.record(ctx, domain.EventPasswordChange, ports.Credentials{Email: user.Email}, userID, nil)
	return nil
}

func (s *AuthService) BeginSocial(ctx context.Context, provider, callbackURL string) (*ports.SocialRedirect, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	authURL, state, nonce, err := p.Begin(ctx, ports.BeginInput{CallbackURL: callbackURL})
	if err != nil {
		return nil, fmt.Errorf("begin %s flow: %w", provider, err)
	}
	return &ports.SocialRedirect{
		AuthURL:     authURL,
		State:       state,
		Nonce:       nonce,
		CallbackURL: callbackURL,
	}, nil
}

func (s *AuthService) CompleteSocial(ctx context.Context, in ports.SocialCallback) (*ports.AuthResult, error) {
	p, ok := s.providers[in.Provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	identity, err := p.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange %s code: %w", in.Provider, err)
	}

	// Link by email: an existing account keeps its record, a first-time
	// social sign-in creates a verified one.
	user, err := s.users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := time.Now().UTC()
		user, err = s.users.Create(ctx, &domain.User{
			Email:         identity.Email,
			Name:          identity.Name,
			Image:         identity.Image,
			EmailVerified: true,
			Provider:      in.Provider,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err != nil {
		return nil, err
	}

	result, err := s.establishSession(ctx, user, in.IP, in.UserAgent)
	s.record(ctx, domain.EventSocialSignIn, ports.Credentials{Email: identity.Email, IP: in.IP}, user.ID, err)
	return result, err
}

func (s *AuthService) establishSession(ctx context.Context, user *domain.User, ip, userAgent string) (*ports.AuthResult, error) {
	now := time.Now().UTC()
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := s.generateToken(user, sess)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &ports.AuthResult{User: user, Session: sess, Token: token}, nil
}

func (s *AuthService) generateToken(user *domain.User, sess domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"sid":   sess.ID,
		"exp":   sess.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// failure records a failed attempt with the limiter before auditing.
func (s *AuthService) failure(ctx context.Context, typ domain.AuthEventType, creds ports.Credentials, cause error) {
	if s.limiter != nil {
		_ = s.limiter.RecordFailure(ctx, creds.Email)
	}
	s.record(ctx, typ, creds, "", cause)
}

func (s *AuthService) record(ctx context.Context, typ domain.AuthEventType, creds ports.Credentials, userID string, cause error) {
	if s.audit == nil {
		return
	}
	event := domain.AuthEvent{
		Type:      typ,
		Email:     creds.Email,
		UserID:    userID,
		Success:   cause == nil,
		IP:        creds.IP,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		event.Reason = cause.Error()
	}
	_ = s.audit.Record(ctx, event)
}

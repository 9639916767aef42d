package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchbase/auth-platform/pkg/autherr"
)

// ErrInFlight is returned when an action is invoked while a previous
// invocation of the same action is still pending. Each action holds a
// single-slot guard; overlapping calls are rejected rather than raced.
var ErrInFlight = errors.New("authclient: action already in flight")

// Result is the discriminated outcome of an auth action. Error is non-nil
// exactly when Success is false, and always carries a normalized AuthError,
// whether the failure was reported by the service or thrown by transport.
type Result struct {
	Success bool
	Error   *autherr.AuthError
}

// SocialResult carries the provider redirect URL for a social sign-in. The
// flow completes out-of-process; the observer reflects the outcome once the
// session stream picks it up.
type SocialResult struct {
	Success     bool
	RedirectURL string
	Error       *autherr.AuthError
}

// SignInInput are the email/password credentials.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpInput registers a new account.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Client is the SDK entry point. It talks to the auth service over HTTP,
// keeps the bearer token from the last successful sign-in, and pushes every
// session change into its Observer so route guards react without explicit
// navigation.
type Client struct {
	baseURL  string
	http     *http.Client
	observer *Observer

	mu        sync.RWMutex
	token     string
	sessionID string

	signInFlight  atomic.Bool
	signUpFlight  atomic.Bool
	signOutFlight atomic.Bool
	socialFlight  atomic.Bool
}

// Options configures a Client. A nil HTTPClient gets a 30-second-timeout
// default.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Observer   *Observer // optional; one is created when absent
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	obs := opts.Observer
	if obs == nil {
		obs = NewObserver()
	}
	return &Client{
		baseURL:  opts.BaseURL,
		http:     hc,
		observer: obs,
	}
}

// Observer returns the observer fed by this client.
func (c *Client) Observer() *Observer { return c.observer }

// Token returns the bearer token from the last successful sign-in, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SessionID returns the current session identifier, or "".
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// authPayload mirrors the service's successful sign-in/up response body.
type authPayload struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
	Token   string  `json:"token"`
}

// SignIn authenticates with email and password. Failures of any kind come
// back inside Result; the returned error is non-nil only for the in-flight
// rejection.
func (c *Client) SignIn(ctx context.Context, in SignInInput) (Result, error) {
	if !c.signInFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer c.signInFlight.Store(false)

	return c.establish(ctx, "/auth/sign-in", in)
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (Result, error) {
	if !c.signUpFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer c.signUpFlight.Store(false)

	return c.establish(ctx, "/auth/sign-up", in)
}

// SignOut revokes the current session. No navigation happens here: the
// observer transitions to unauthenticated and the route guard reacts.
func (c *Client) SignOut(ctx context.Context) (Result, error) {
	if !c.signOutFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer c.signOutFlight.Store(false)

	resp, err := c.do(ctx, http.MethodPost, "/auth/sign-out", nil)
	if err != nil {
		ae := autherr.Normalize(err)
		return Result{Error: &ae}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		ae := decodeFailure(resp)
		return Result{Error: &ae}, nil
	}

	c.mu.Lock()
	c.token = ""
	c.sessionID = ""
	c.mu.Unlock()

	c.observer.Apply(Update{Data: nil})
	return Result{Success: true}, nil
}

// SignInWithSocial begins an OAuth flow with the given provider and returns
// the provider redirect URL. The post-authentication callback lands on the
// service, not here.
func (c *Client) SignInWithSocial(ctx context.Context, provider string) (SocialResult, error) {
	if !c.socialFlight.CompareAndSwap(false, true) {
		return SocialResult{}, ErrInFlight
	}
	defer c.socialFlight.Store(false)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/social/"+provider, nil)
	if err != nil {
		ae := autherr.Normalize(err)
		return SocialResult{Error: &ae}, nil
	}

	// Capture the provider redirect instead of following it.
	hc := *c.http
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := hc.Do(req)
	if err != nil {
		ae := autherr.Normalize(err)
		return SocialResult{Error: &ae}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		ae := decodeFailure(resp)
		return SocialResult{Error: &ae}, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		ae := autherr.Normalize(errors.New("missing provider redirect"))
		return SocialResult{Error: &ae}, nil
	}
	return SocialResult{Success: true, RedirectURL: location}, nil
}

// ChangePassword replaces the current password. Requires a signed-in client.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (Result, error) {
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/change-password", body)
	if err != nil {
		ae := autherr.Normalize(err)
		return Result{Error: &ae}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		ae := decodeFailure(resp)
		return Result{Error: &ae}, nil
	}
	return Result{Success: true}, nil
}

// Refresh fetches the current session state once and pushes it into the
// observer. Useful at startup and after an out-of-process social flow.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/auth/session", nil)
	if err != nil {
		c.observer.Apply(Update{Err: err})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		c.observer.Apply(Update{Data: nil})
		return nil
	}
	if resp.StatusCode >= 400 {
		ae := decodeFailure(resp)
		c.observer.Apply(Update{Err: ae})
		return ae
	}

	var data SessionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.observer.Apply(Update{Err: err})
		return fmt.Errorf("decode session: %w", err)
	}
	c.observer.Apply(Update{Data: &data})
	return nil
}

// Dashboard fetches the authenticated dashboard payload. Pair it with
// RunAuthenticated so the read is suppressed while signed out.
func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "/dashboard", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeFailure(resp)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode dashboard: %w", err)
	}
	return payload, nil
}

// establish posts credentials, records the returned session, and pushes the
// authenticated state into the observer.
func (c *Client) establish(ctx context.Context, path string, body any) (Result, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		ae := autherr.Normalize(err)
		return Result{Error: &ae}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		ae := decodeFailure(resp)
		return Result{Error: &ae}, nil
	}

	var payload authPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		ae := autherr.Normalize(fmt.Errorf("decode auth response: %w", err))
		return Result{Error: &ae}, nil
	}

	c.mu.Lock()
	c.token = payload.Token
	c.sessionID = payload.Session.ID
	c.mu.Unlock()

	c.observer.Apply(Update{Data: &SessionData{User: payload.User, Session: payload.Session}})
	return Result{Success: true}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// decodeFailure turns an error response into a normalized AuthError. Bodies
// that are not the service envelope still normalize, via the status text.
func decodeFailure(resp *http.Response) autherr.AuthError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var svc autherr.ServiceError
	if err := json.Unmarshal(data, &svc); err == nil && (svc.Err.Code != "" || svc.Err.Message != "") {
		return autherr.Normalize(&svc)
	}
	return autherr.Normalize(fmt.Errorf("auth service: %s", resp.Status))
}

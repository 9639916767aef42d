package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user_1",
		"email": "alice@example.com",
		"sid":   "sess_1",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func run(t *testing.T, mw echo.MiddlewareFunc, decorate func(*http.Request)) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return nil })
	return c, handler(c)
}

func noResolver(echo.Context, string) (string, string, error) {
	return "", "", errors.New("resolver must not be called")
}

func TestAuth_ValidBearerToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, validClaims())

	c, err := run(t, Auth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Get(CtxUserID); got != "user_1" {
		t.Fatalf("user_id = %v", got)
	}
	if got := c.Get(CtxEmail); got != "alice@example.com" {
		t.Fatalf("email = %v", got)
	}
	if got := c.Get(CtxSessionID); got != "sess_1" {
		t.Fatalf("session_id = %v", got)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signToken(t, jwt.SigningMethodHS256, claims)

	_, err := run(t, Auth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_WrongSigningMethod(t *testing.T) {
	// HS512 with the right secret still fails the explicit alg check.
	token := signToken(t, jwt.SigningMethodHS512, validClaims())

	_, err := run(t, Auth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	_, err := run(t, Auth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Token abc")
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_MissingCredentials(t *testing.T) {
	_, err := run(t, Auth(testSecret, noResolver), nil)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_SessionCookieResolved(t *testing.T) {
	resolver := func(_ echo.Context, sessionID string) (string, string, error) {
		if sessionID != "sess_1" {
			t.Fatalf("sessionID = %q", sessionID)
		}
		return "user_1", "alice@example.com", nil
	}

	c, err := run(t, Auth(testSecret, resolver), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session_id", Value: "sess_1"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Get(CtxUserID); got != "user_1" {
		t.Fatalf("user_id = %v", got)
	}
	if got := c.Get(CtxSessionID); got != "sess_1" {
		t.Fatalf("session_id = %v", got)
	}
}

func TestAuth_SessionCookieRejected(t *testing.T) {
	resolver := func(echo.Context, string) (string, string, error) {
		return "", "", domain.ErrSessionNotFound
	}

	_, err := run(t, Auth(testSecret, resolver), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session_id", Value: "gone"})
	})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("resolver error must propagate, got %v", err)
	}
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	c, err := run(t, OptionalAuth(testSecret, noResolver), nil)
	if err != nil {
		t.Fatalf("anonymous request must pass, got %v", err)
	}
	if c.Get(CtxUserID) != nil {
		t.Fatal("no identity should be injected")
	}
}

func TestOptionalAuth_BadTokenPassesThrough(t *testing.T) {
	c, err := run(t, OptionalAuth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	if err != nil {
		t.Fatalf("invalid token must pass in optional mode, got %v", err)
	}
	if c.Get(CtxUserID) != nil {
		t.Fatal("no identity should be injected")
	}
}

func TestOptionalAuth_ValidTokenInjectsIdentity(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, validClaims())

	c, err := run(t, OptionalAuth(testSecret, noResolver), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Get(CtxUserID); got != "user_1" {
		t.Fatalf("user_id = %v", got)
	}
}

package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/launchbase/auth-platform/pkg/autherr"
)

func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	writeEnvelope := func(w http.ResponseWriter, status int, code autherr.Code, message string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(autherr.NewServiceError(string(code), message))
	}

	payload := authPayload{
		User:    User{ID: "user_1", Email: "alice@example.com", Name: "Alice"},
		Session: Session{ID: "sess_1", UserID: "user_1", ExpiresAt: time.Now().Add(time.Hour)},
		Token:   "token-abc",
	}

	mux.HandleFunc("POST /auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		var in SignInInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "correct horse" {
			writeEnvelope(w, http.StatusUnauthorized, autherr.CodeInvalidCredentials, "Invalid email or password")
			return
		}
		json.NewEncoder(w).Encode(payload)
	})

	mux.HandleFunc("POST /auth/sign-up", func(w http.ResponseWriter, r *http.Request) {
		var in SignUpInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Email == "taken@example.com" {
			writeEnvelope(w, http.StatusConflict, autherr.CodeEmailAlreadyExists, "An account with this email already exists")
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(payload)
	})

	mux.HandleFunc("POST /auth/sign-out", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /auth/social/google", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://accounts.example.com/authorize?state=xyz", http.StatusFound)
	})

	mux.HandleFunc("GET /auth/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-abc" {
			writeEnvelope(w, http.StatusUnauthorized, autherr.CodeUnauthorized, "You are not authorized to perform this action")
			return
		}
		json.NewEncoder(w).Encode(SessionData{User: payload.User, Session: payload.Session})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SignInSuccess(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	res, err := c.SignIn(context.Background(), SignInInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Error != nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if c.Token() != "token-abc" {
		t.Fatalf("token not recorded: %q", c.Token())
	}
	if !c.Observer().IsAuthenticated() {
		t.Fatal("observer should be authenticated after sign-in")
	}
	if c.Observer().UserID() != "user_1" {
		t.Fatalf("observer user = %q", c.Observer().UserID())
	}
}

func TestClient_SignInWrongPassword(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	res, err := c.SignIn(context.Background(), SignInInput{Email: "alice@example.com", Password: "nope"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == nil || res.Error.Code != autherr.CodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %+v", res.Error)
	}
	if res.Error.Message != "Invalid email or password. Please try again." {
		t.Fatalf("unexpected message %q", res.Error.Message)
	}
}

func TestClient_SignUpDuplicateEmail(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	res, err := c.SignUp(context.Background(), SignUpInput{Email: "taken@example.com", Password: "hunter22", Name: "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Error == nil || res.Error.Code != autherr.CodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS, got %+v", res.Error)
	}
}

func TestClient_SignOutIsReactive(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	if _, err := c.SignIn(context.Background(), SignInInput{Email: "alice@example.com", Password: "correct horse"}); err != nil {
		t.Fatal(err)
	}

	res, err := c.SignOut(context.Background())
	if err != nil || !res.Success {
		t.Fatalf("sign-out failed: res=%+v err=%v", res, err)
	}
	if c.Token() != "" {
		t.Fatal("token must be cleared on sign-out")
	}
	// No navigation call exists; the observer state is the only effect.
	s := c.Observer().State()
	if s.IsAuthenticated || s.User != nil || s.Session != nil {
		t.Fatalf("observer must be signed out, got %+v", s)
	}
	if c.Observer().Route() != RoutePublic {
		t.Fatal("route guard should fall back to public")
	}
}

func TestClient_InFlightGuard(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/sign-in" {
			<-release
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SignIn(context.Background(), SignInInput{Email: "a@b.c", Password: "x"})
	}()

	// Wait for the first call to hold the slot.
	deadline := time.Now().Add(2 * time.Second)
	for !c.signInFlight.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first sign-in never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := c.SignIn(context.Background(), SignInInput{Email: "a@b.c", Password: "x"})
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	// Other actions hold independent slots.
	if _, err := c.SignOut(context.Background()); errors.Is(err, ErrInFlight) {
		t.Fatal("sign-out must not share the sign-in slot")
	}

	close(release)
	wg.Wait()
}

func TestClient_SocialCapturesRedirect(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	res, err := c.SignInWithSocial(context.Background(), "google")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Error)
	}
	if res.RedirectURL != "https://accounts.example.com/authorize?state=xyz" {
		t.Fatalf("unexpected redirect %q", res.RedirectURL)
	}
}

func TestClient_TransportFailureNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(Options{BaseURL: srv.URL})
	res, err := c.SignIn(context.Background(), SignInInput{Email: "a@b.c", Password: "x"})
	if err != nil {
		t.Fatalf("transport failures belong in Result, got %v", err)
	}
	if res.Error == nil || res.Error.Code != autherr.CodeNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %+v", res.Error)
	}
}

func TestClient_RefreshPushesSession(t *testing.T) {
	srv := authServer(t)
	c := New(Options{BaseURL: srv.URL})

	// Without a token the service answers 401 and the observer settles signed out.
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("unauthorized refresh should not error: %v", err)
	}
	if c.Observer().IsAuthenticated() {
		t.Fatal("expected signed-out state")
	}

	if _, err := c.SignIn(context.Background(), SignInInput{Email: "alice@example.com", Password: "correct horse"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := c.Observer().UserID(); got != "user_1" {
		t.Fatalf("observer user = %q", got)
	}
}

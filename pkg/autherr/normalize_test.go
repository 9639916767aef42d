package autherr

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
)

func TestNormalize_NilInput(t *testing.T) {
	ae := Normalize(nil)
	if ae.Code != CodeUnknown {
		t.Fatalf("expected UNKNOWN_ERROR, got %s", ae.Code)
	}
	if ae.Message != "An unexpected error occurred" {
		t.Fatalf("unexpected message: %q", ae.Message)
	}
}

func TestNormalize_ServiceMessages(t *testing.T) {
	cases := []struct {
		message string
		want    Code
	}{
		{"Invalid credentials", CodeInvalidCredentials},
		{"Invalid credential", CodeInvalidCredentials},
		{"User already exists", CodeEmailAlreadyExists},
		{"duplicate key", CodeEmailAlreadyExists},
		{"User not found", CodeUserNotFound},
		{"no user with that email", CodeUserNotFound},
		{"Email not verified", CodeEmailNotVerified},
		{"please verify your email", CodeEmailNotVerified},
		{"password is too weak", CodeWeakPassword},
		{"session expired", CodeSessionExpired},
		{"token expired", CodeSessionExpired},
		{"unauthorized", CodeUnauthorized},
		{"access forbidden", CodeUnauthorized},
	}

	for _, tc := range cases {
		ae := Normalize(NewServiceError("", tc.message))
		if ae.Code != tc.want {
			t.Errorf("Normalize(%q) = %s, want %s", tc.message, ae.Code, tc.want)
		}
		if ae.Message == "" {
			t.Errorf("Normalize(%q) produced an empty message", tc.message)
		}
	}
}

// A message matching several rules resolves to the first rule in order, not
// the most specific one.
func TestNormalize_RuleOrdering(t *testing.T) {
	// "already exists" is tested before "not found".
	ae := Normalize(NewServiceError("", "User already exists, duplicate email not found"))
	if ae.Code != CodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS, got %s", ae.Code)
	}

	// "invalid"+"credential" is tested before "session".
	ae = Normalize(NewServiceError("", "invalid credential for this session"))
	if ae.Code != CodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", ae.Code)
	}

	// A bare "invalid session" reaches the session rule.
	ae = Normalize(NewServiceError("", "invalid session"))
	if ae.Code != CodeSessionExpired {
		t.Fatalf("expected SESSION_EXPIRED, got %s", ae.Code)
	}
}

func TestNormalize_ExplicitCodeWins(t *testing.T) {
	// The code field overrides whatever the message says.
	ae := Normalize(NewServiceError("WEAK_PASSWORD", "user not found"))
	if ae.Code != CodeWeakPassword {
		t.Fatalf("expected WEAK_PASSWORD, got %s", ae.Code)
	}

	// An unknown code falls back to message matching.
	ae = Normalize(NewServiceError("SOMETHING_NEW", "user not found"))
	if ae.Code != CodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %s", ae.Code)
	}
}

func TestNormalize_UnmatchedServiceMessageFallsThrough(t *testing.T) {
	ae := Normalize(NewServiceError("", "the database caught fire"))
	if ae.Code != CodeUnknown {
		t.Fatalf("expected UNKNOWN_ERROR, got %s", ae.Code)
	}
	if ae.Message != "the database caught fire" {
		t.Fatalf("expected the raw message to carry through, got %q", ae.Message)
	}
}

func TestNormalize_NetworkErrors(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "http://localhost", Err: errors.New("connection refused")}
	if ae := Normalize(urlErr); ae.Code != CodeNetworkError {
		t.Fatalf("url.Error: expected NETWORK_ERROR, got %s", ae.Code)
	}

	if ae := Normalize(errors.New("failed to fetch")); ae.Code != CodeNetworkError {
		t.Fatalf("fetch message: expected NETWORK_ERROR, got %s", ae.Code)
	}

	if ae := Normalize(errors.New("fetch failed")); ae.Code != CodeNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %s", ae.Code)
	}
}

func TestNormalize_GenericError(t *testing.T) {
	ae := Normalize(errors.New("boom"))
	if ae.Code != CodeUnknown {
		t.Fatalf("expected UNKNOWN_ERROR, got %s", ae.Code)
	}
	if ae.Message != "boom" {
		t.Fatalf("expected message %q, got %q", "boom", ae.Message)
	}
}

func TestNormalize_WrappedServiceError(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", NewServiceError("", "invalid credentials"))
	if ae := Normalize(wrapped); ae.Code != CodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS through wrapping, got %s", ae.Code)
	}
}

func TestNormalize_UnknownShapes(t *testing.T) {
	inputs := []any{42, "a string", struct{ X int }{1}, map[string]string{"k": "v"}}
	for _, in := range inputs {
		ae := Normalize(in)
		if ae.Code != CodeUnknown {
			t.Errorf("Normalize(%v) = %s, want UNKNOWN_ERROR", in, ae.Code)
		}
		if ae.Message == "" {
			t.Errorf("Normalize(%v) produced an empty message", in)
		}
	}
}

// Every input normalizes into the closed nine-code set with a message.
func TestNormalize_Total(t *testing.T) {
	inputs := []any{
		nil,
		errors.New("anything"),
		NewServiceError("", ""),
		NewServiceError("INVALID_CREDENTIALS", ""),
		&url.Error{Op: "Post", URL: "/", Err: errors.New("x")},
		"plain string",
		3.14,
	}
	for _, in := range inputs {
		ae := Normalize(in)
		if !ae.Code.Valid() {
			t.Errorf("Normalize(%v) produced out-of-set code %q", in, ae.Code)
		}
		if ae.Message == "" {
			t.Errorf("Normalize(%v) produced an empty message", in)
		}
	}
}

func TestIs(t *testing.T) {
	if !Is(NewServiceError("", "invalid credentials"), CodeInvalidCredentials) {
		t.Fatal("Is should report INVALID_CREDENTIALS")
	}
	if Is(errors.New("boom"), CodeInvalidCredentials) {
		t.Fatal("Is should not match a generic error")
	}
}

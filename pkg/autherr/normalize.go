package autherr

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// rule pairs a message predicate with the code it selects. Rules are
// evaluated strictly in slice order; a message matching several rules gets
// the first one. That ordering is load-bearing: "invalid session" must
// resolve to SESSION_EXPIRED only because no earlier rule matched, and a
// message with both "already exists" and "not found" resolves to
// EMAIL_ALREADY_EXISTS.
type rule struct {
	match func(msg string) bool
	code  Code
}

var serviceRules = []rule{
	{func(m string) bool { return strings.Contains(m, "invalid") && strings.Contains(m, "credential") }, CodeInvalidCredentials},
	{func(m string) bool { return strings.Contains(m, "already exists") || strings.Contains(m, "duplicate") }, CodeEmailAlreadyExists},
	{func(m string) bool { return strings.Contains(m, "not found") || strings.Contains(m, "no user") }, CodeUserNotFound},
	{func(m string) bool { return strings.Contains(m, "not verified") || strings.Contains(m, "verify") }, CodeEmailNotVerified},
	{func(m string) bool { return strings.Contains(m, "password") && strings.Contains(m, "weak") }, CodeWeakPassword},
	{func(m string) bool { return strings.Contains(m, "expired") || strings.Contains(m, "session") }, CodeSessionExpired},
	{func(m string) bool { return strings.Contains(m, "unauthorized") || strings.Contains(m, "forbidden") }, CodeUnauthorized},
}

// Normalize maps an arbitrary failure onto the closed AuthError taxonomy.
// It is total: it never fails and always returns a well-formed AuthError.
//
// Resolution order:
//  1. nil input → UNKNOWN_ERROR with the generic message.
//  2. A service envelope (*ServiceError, directly or wrapped): an explicit
//     code field wins outright; otherwise the lower-cased message runs
//     through the ordered substring rules. No match falls through to 4.
//  3. A network-level failure → NETWORK_ERROR.
//  4. Any error with a message → UNKNOWN_ERROR carrying that message.
//  5. Anything else → UNKNOWN_ERROR with the default message.
func Normalize(raw any) AuthError {
	if raw == nil {
		return AuthError{Code: CodeUnknown, Message: msgUnknown}
	}

	if svc := asServiceError(raw); svc != nil {
		if code := Code(svc.Err.Code); code.Valid() {
			return AuthError{Code: code, Message: Message(code), Original: raw}
		}
		msg := strings.ToLower(svc.Err.Message)
		for _, r := range serviceRules {
			if r.match(msg) {
				return AuthError{Code: r.code, Message: Message(r.code), Original: raw}
			}
		}
	}

	if err, ok := raw.(error); ok && err != nil {
		if isNetworkError(err) {
			return AuthError{Code: CodeNetworkError, Message: msgNetworkError, Original: raw}
		}
		if m := err.Error(); m != "" {
			return AuthError{Code: CodeUnknown, Message: m, Original: raw}
		}
	}

	return AuthError{Code: CodeUnknown, Message: msgUnknownRetry, Original: raw}
}

// Is reports whether raw normalizes to the given code.
func Is(raw any, code Code) bool {
	return Normalize(raw).Code == code
}

func asServiceError(raw any) *ServiceError {
	switch v := raw.(type) {
	case *ServiceError:
		return v
	case ServiceError:
		return &v
	case error:
		var svc *ServiceError
		if errors.As(v, &svc) {
			return svc
		}
	}
	return nil
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fetch") || strings.Contains(msg, "connection refused")
}

// Package autherr defines the closed taxonomy of authentication error codes
// shared by the server and the client SDK, and the normalizer that maps
// arbitrary failures onto it.
package autherr

// Code identifies one of the nine auth failure categories. The set is
// closed: Normalize never produces a value outside it.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeEmailAlreadyExists Code = "EMAIL_ALREADY_EXISTS"
	CodeEmailNotVerified   Code = "EMAIL_NOT_VERIFIED"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeSessionExpired     Code = "SESSION_EXPIRED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

// User-facing messages, fixed per code.
const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgUserNotFound       = "User not found. Please check your email."
	msgEmailExists        = "An account with this email already exists."
	msgEmailNotVerified   = "Please verify your email before signing in."
	msgWeakPassword       = "Password is too weak. Please choose a stronger password."
	msgNetworkError       = "Network error. Please check your internet connection and try again."
	msgSessionExpired     = "Your session has expired. Please sign in again."
	msgUnauthorized       = "You are not authorized to perform this action."
	msgUnknown            = "An unexpected error occurred"
	msgUnknownRetry       = "An unexpected error occurred. Please try again."
)

var messages = map[Code]string{
	CodeInvalidCredentials: msgInvalidCredentials,
	CodeUserNotFound:       msgUserNotFound,
	CodeEmailAlreadyExists: msgEmailExists,
	CodeEmailNotVerified:   msgEmailNotVerified,
	CodeWeakPassword:       msgWeakPassword,
	CodeNetworkError:       msgNetworkError,
	CodeSessionExpired:     msgSessionExpired,
	CodeUnauthorized:       msgUnauthorized,
	CodeUnknown:            msgUnknownRetry,
}

// Message returns the fixed user-facing message for a code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return msgUnknownRetry
}

// Valid reports whether code belongs to the closed set.
func (c Code) Valid() bool {
	_, ok := messages[c]
	return ok
}

// AuthError is a value type: a code, its user-facing message, and the raw
// failure retained for diagnostics only. It has no identity beyond the call
// that produced it.
type AuthError struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Original any    `json:"-"`
}

// Error satisfies the error interface with the user-facing message.
func (e AuthError) Error() string { return e.Message }

// ServiceError is the wire shape of a failure reported by the auth service:
// the {"error": {"code", "message"}} envelope every error response carries.
type ServiceError struct {
	Err struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ServiceError) Error() string {
	if e.Err.Message != "" {
		return e.Err.Message
	}
	return "service error"
}

// NewServiceError builds a ServiceError; used by tests and by the server's
// response envelope.
func NewServiceError(code, message string) *ServiceError {
	var e ServiceError
	e.Err.Code = code
	e.Err.Message = message
	return &e
}

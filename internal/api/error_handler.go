package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/launchbase/auth-platform/internal/api/metrics"
	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/pkg/autherr"
)

// errorBody is the canonical error envelope for all API errors. Carrying an
// explicit taxonomy code lets clients branch on codes and keep substring
// matching only as a fallback for foreign services.
type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and taxonomy code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": {"code", "message"}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		if code != "" {
			metrics.AuthErrorsTotal.WithLabelValues(code).Inc()
		}
		_ = c.JSON(status, errorResponse{Error: errorBody{Code: code, Message: msg}})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, "", fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, string(autherr.CodeInvalidCredentials), "invalid credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, string(autherr.CodeUserNotFound), "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, string(autherr.CodeEmailAlreadyExists), "user already exists"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return http.StatusForbidden, string(autherr.CodeEmailNotVerified), "email not verified"
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, string(autherr.CodeWeakPassword), "password too weak"
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, string(autherr.CodeSessionExpired), "session expired"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, string(autherr.CodeUnauthorized), "no active session"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, string(autherr.CodeUnauthorized), "unauthorized"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, string(autherr.CodeUnknown), "too many sign-in attempts, try again later"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, string(autherr.CodeUnknown), "unknown social provider"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, string(autherr.CodeUnknown), "internal server error"
}

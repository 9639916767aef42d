package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/launchbase/auth-platform/internal/api/metrics"
	"github.com/launchbase/auth-platform/internal/api/middleware"
	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

const (
	sessionCookieName  = "session_id"
	stateCookieName    = "oauth_state"
	nonceCookieName    = "oauth_nonce"
	redirectCookieName = "oauth_redirect"
)

// CookieOptions controls the attributes of cookies set by the auth handlers.
type CookieOptions struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type authResponse struct {
	User    *domain.User   `json:"user"`
	Session domain.Session `json:"session"`
	Token   string         `json:"token"`
}

type sessionResponse struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"session"`
}

// SignUp creates a new account and signs it in.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.SignUp(c.Request().Context(), ports.Credentials{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		metrics.SignUpsTotal.WithLabelValues(signUpOutcome(err)).Inc()
		return err
	}

	metrics.SignUpsTotal.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()
	h.setSessionCookie(c, result.Session)
	return c.JSON(http.StatusCreated, authResponse{User: result.User, Session: result.Session, Token: result.Token})
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.SignIn(c.Request().Context(), ports.Credentials{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(signInOutcome(err)).Inc()
		return err
	}

	metrics.SignInsTotal.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()
	h.setSessionCookie(c, result.Session)
	return c.JSON(http.StatusOK, authResponse{User: result.User, Session: result.Session, Token: result.Token})
}

// SignOut revokes the caller's session.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      204  "session revoked"
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	sessionID := h.sessionID(c)
	if sessionID != "" {
		if err := h.authService.SignOut(c.Request().Context(), sessionID); err != nil {
			return err
		}
		metrics.SessionsActive.Dec()
	}
	h.clearCookie(c, sessionCookieName)
	return c.NoContent(http.StatusNoContent)
}

// Session returns the caller's current session state.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]any
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sessionID := h.sessionID(c)
	sess, user, err := h.authService.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user, Session: sess})
}

// ChangePassword replaces the authenticated user's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Passwords"
// @Success      204   "password changed"
// @Failure      401   {object}  map[string]any
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	if err := h.authService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Social begins an OAuth flow and redirects the browser to the provider.
//
// @Summary      Begin social sign-in
// @Tags         auth
// @Param        provider      path   string  true   "Provider name"
// @Param        callback_url  query  string  false  "Post-authentication path"
// @Success      302  "redirect to provider"
// @Failure      400  {object}  map[string]any
// @Router       /auth/social/{provider} [get]
func (h *AuthHandler) Social(c echo.Context) error {
	provider := c.Param("provider")

	// Post-auth destination; relative paths only so the callback cannot be
	// turned into an open redirect.
	callbackURL := c.QueryParam("callback_url")
	if u, err := url.Parse(callbackURL); err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		callbackURL = "/dashboard"
	}

	redirect, err := h.authService.BeginSocial(c.Request().Context(), provider, callbackURL)
	if err != nil {
		metrics.SocialFlowsTotal.WithLabelValues(provider, "error").Inc()
		return err
	}

	metrics.SocialFlowsTotal.WithLabelValues(provider, "begin").Inc()
	h.setFlowCookie(c, stateCookieName, redirect.State)
	h.setFlowCookie(c, nonceCookieName, redirect.Nonce)
	h.setFlowCookie(c, redirectCookieName, redirect.CallbackURL)
	return c.Redirect(http.StatusFound, redirect.AuthURL)
}

// Callback completes an OAuth flow when the provider redirects back.
//
// @Summary      Social sign-in callback
// @Tags         auth
// @Param        provider  path   string  true  "Provider name"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "Opaque state"
// @Success      302  "redirect to the post-auth destination"
// @Failure      400  {object}  map[string]any
// @Router       /auth/callback/{provider} [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	provider := c.Param("provider")
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code or state")
	}

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing state parameter")
	}
	nonceCookie, err := c.Cookie(nonceCookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing nonce")
	}

	result, err := h.authService.CompleteSocial(c.Request().Context(), ports.SocialCallback{
		Provider:  provider,
		Code:      code,
		State:     state,
		Nonce:     nonceCookie.Value,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		metrics.SocialFlowsTotal.WithLabelValues(provider, "error").Inc()
		return err
	}

	metrics.SocialFlowsTotal.WithLabelValues(provider, "success").Inc()
	metrics.SessionsActive.Inc()
	h.setSessionCookie(c, result.Session)
	h.clearCookie(c, stateCookieName)
	h.clearCookie(c, nonceCookieName)

	destination := "/dashboard"
	if rc, err := c.Cookie(redirectCookieName); err == nil && rc.Value != "" {
		destination = rc.Value
	}
	h.clearCookie(c, redirectCookieName)
	return c.Redirect(http.StatusFound, destination)
}

// sessionID resolves the caller's session from the middleware claims first,
// then the cookie, so both Bearer and cookie clients work.
func (h *AuthHandler) sessionID(c echo.Context) string {
	if sid, _ := c.Get(middleware.CtxSessionID).(string); sid != "" {
		return sid
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sess domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) setFlowCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func signInOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

func signUpOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "duplicate"
	case errors.Is(err, domain.ErrWeakPassword):
		return "weak_password"
	default:
		return "error"
	}
}

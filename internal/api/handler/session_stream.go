package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/launchbase/auth-platform/internal/api/middleware"
	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

const (
	streamHeartbeat   = 25 * time.Second
	streamExpiryCheck = time.Minute
)

// SessionStreamHandler pushes the caller's session state over server-sent
// events: one event on connect, another whenever the session is revoked or
// expires. Clients never poll; revocations arrive through the subscriber.
type SessionStreamHandler struct {
	authService ports.AuthService
	events      ports.SessionSubscriber
	log         zerolog.Logger
}

func NewSessionStreamHandler(authService ports.AuthService, events ports.SessionSubscriber, log zerolog.Logger) *SessionStreamHandler {
	return &SessionStreamHandler{authService: authService, events: events, log: log}
}

// Stream handles GET /auth/session/stream.
//
// @Summary      Session state stream
// @Tags         auth
// @Produce      text/event-stream
// @Success      200  "server-sent session events"
// @Router       /auth/session/stream [get]
func (h *SessionStreamHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	// Initial state: the current session or null.
	signedIn := h.emitState(c, sessionID)
	if !signedIn {
		sessionID = ""
	}

	var eventCh <-chan ports.SessionEvent
	if sessionID != "" {
		ch, err := h.events.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe session events: %w", err)
		}
		eventCh = ch
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	expiry := time.NewTicker(streamExpiryCheck)
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case <-expiry.C:
			if sessionID != "" && !h.emitState(c, sessionID) {
				return nil // session expired, final null emitted
			}
		case event, ok := <-eventCh:
			if !ok {
				return nil
			}
			if event.SessionID != sessionID {
				continue
			}
			h.emit(c, nil)
			return nil
		}
	}
}

// emitState writes the current session state; reports whether the session is
// still live.
func (h *SessionStreamHandler) emitState(c echo.Context, sessionID string) bool {
	sess, user, err := h.authService.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionExpired) {
			h.log.Error().Err(err).Msg("session stream state lookup failed")
		}
		h.emit(c, nil)
		return false
	}
	h.emit(c, &sessionResponse{User: user, Session: sess})
	return true
}

func (h *SessionStreamHandler) emit(c echo.Context, payload *sessionResponse) {
	res := c.Response()
	data := []byte("null")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			h.log.Error().Err(err).Msg("session stream encode failed")
			return
		}
		data = encoded
	}
	fmt.Fprintf(res, "event: session\ndata: %s\n\n", data)
	res.Flush()
}

func (h *SessionStreamHandler) sessionID(c echo.Context) string {
	// The route sits behind OptionalAuth: claims are present when the caller
	// sent valid credentials, absent otherwise, and a fresh client simply
	// observes the signed-out state.
	if sid, _ := c.Get(middleware.CtxSessionID).(string); sid != "" {
		return sid
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

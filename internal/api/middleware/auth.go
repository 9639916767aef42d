package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID    = "user_id"
	CtxEmail     = "email"
	CtxSessionID = "session_id"
)

const sessionCookieName = "session_id"

// SessionResolver validates an opaque session ID and returns the user it
// belongs to. Implemented by the auth service.
type SessionResolver func(c echo.Context, sessionID string) (userID, email string, err error)

// Auth authenticates a request from either a Bearer access token or the
// session cookie, and injects the resolved identity into context. Bearer
// wins when both are present.
func Auth(jwtSecret string, resolve SessionResolver) echo.MiddlewareFunc {
	return auth(jwtSecret, resolve, true)
}

// OptionalAuth injects identity when valid credentials are present but lets
// anonymous requests through instead of rejecting them.
func OptionalAuth(jwtSecret string, resolve SessionResolver) echo.MiddlewareFunc {
	return auth(jwtSecret, resolve, false)
}

func auth(jwtSecret string, resolve SessionResolver, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if header := c.Request().Header.Get("Authorization"); header != "" {
				parts := strings.SplitN(header, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					if !required {
						return next(c)
					}
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
				}

				claims := jwt.MapClaims{}
				tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
					if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
						return nil, jwt.ErrTokenSignatureInvalid
					}
					return []byte(jwtSecret), nil
				})
				if err != nil || !tkn.Valid {
					if !required {
						return next(c)
					}
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}

				c.Set(CtxUserID, stringClaim(claims, "sub"))
				c.Set(CtxEmail, stringClaim(claims, "email"))
				c.Set(CtxSessionID, stringClaim(claims, "sid"))
				return next(c)
			}

			cookie, err := c.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				if !required {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}
			userID, email, err := resolve(c, cookie.Value)
			if err != nil {
				if !required {
					return next(c)
				}
				return err
			}

			c.Set(CtxUserID, userID)
			c.Set(CtxEmail, email)
			c.Set(CtxSessionID, cookie.Value)
			return next(c)
		}
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

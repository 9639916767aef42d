package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/launchbase/auth-platform/internal/api/handler"
	"github.com/launchbase/auth-platform/internal/api/middleware"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

// Deps carries everything the router wires into handlers. Services are
// constructed in main so their lifecycles (worker pools, subscriptions)
// outlive individual requests.
type Deps struct {
	AuthService ports.AuthService
	Users       ports.UserRepository
	Audit       ports.AuditRepository
	Events      ports.SessionSubscriber

	Mongo *mongo.Database
	Redis *redis.Client

	JWTSecret    string
	CookieDomain string
	CookieSecure bool

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	cookies := handler.CookieOptions{Domain: deps.CookieDomain, Secure: deps.CookieSecure}
	authHandler := handler.NewAuthHandler(deps.AuthService, cookies)
	streamHandler := handler.NewSessionStreamHandler(deps.AuthService, deps.Events, deps.Log)
	dashboardHandler := handler.NewDashboardHandler(deps.Users, deps.Audit)

	resolve := sessionResolver(deps.AuthService)
	requireAuth := middleware.Auth(deps.JWTSecret, resolve)
	optionalAuth := middleware.OptionalAuth(deps.JWTSecret, resolve)

	// --- Auth routes ---
	e.POST("/auth/sign-up", authHandler.SignUp)
	e.POST("/auth/sign-in", authHandler.SignIn)
	e.POST("/auth/sign-out", authHandler.SignOut, optionalAuth)
	e.GET("/auth/session", authHandler.Session, optionalAuth)
	e.GET("/auth/session/stream", streamHandler.Stream, optionalAuth)
	e.GET("/auth/social/:provider", authHandler.Social)
	e.GET("/auth/callback/:provider", authHandler.Callback)
	e.POST("/auth/change-password", authHandler.ChangePassword, requireAuth)

	// --- Authenticated app routes ---
	e.GET("/dashboard", dashboardHandler.Dashboard, requireAuth)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}

// sessionResolver adapts the auth service to the middleware's cookie path.
func sessionResolver(svc ports.AuthService) middleware.SessionResolver {
	return func(c echo.Context, sessionID string) (string, string, error) {
		_, user, err := svc.GetSession(c.Request().Context(), sessionID)
		if err != nil {
			return "", "", err
		}
		return user.ID, user.Email, nil
	}
}

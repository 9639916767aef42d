// @title        Auth Platform API
// @version      1.0
// @description  Email/password and social authentication with session streaming.
// @BasePath     /
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/launchbase/auth-platform/internal/api"
	"github.com/launchbase/auth-platform/internal/core/ports"
	"github.com/launchbase/auth-platform/internal/core/service"
	mongodb "github.com/launchbase/auth-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/launchbase/auth-platform/internal/infrastructure/db/redis"
	"github.com/launchbase/auth-platform/internal/infrastructure/oauth"
	"github.com/launchbase/auth-platform/internal/infrastructure/queue"
	"github.com/launchbase/auth-platform/internal/pkg/config"
	"github.com/launchbase/auth-platform/pkg/logger"

	_ "github.com/launchbase/auth-platform/docs" // swagger registration
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories and stores ---
	users := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	sessions := redisdb.NewSessionStore(rdb)
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.Auth.MaxSignInFailures, cfg.Auth.SignInFailureWindow)
	events := redisdb.NewSessionEvents(rdb)

	// --- Audit pipeline: sharded workers in front of Mongo ---
	dispatcher := queue.NewDispatcher(0, service.NewAuditService(auditRepo), log)
	dispatcher.Start(ctx)

	// --- Social providers ---
	providers := buildProviders(ctx, cfg, log)

	authService := service.NewAuthService(service.AuthServiceOptions{
		Users:                users,
		Sessions:             sessions,
		Publisher:            events,
		Limiter:              limiter,
		Providers:            providers,
		Audit:                dispatcher,
		JWTSecret:            cfg.Auth.JWTSecret,
		SessionTTL:           cfg.Auth.SessionTTL,
		BcryptCost:           cfg.Auth.BcryptCost,
		RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmail,
	})

	e := api.NewRouter(api.Deps{
		AuthService:  authService,
		Users:        users,
		Audit:        auditRepo,
		Events:       events,
		Mongo:        db,
		Redis:        rdb,
		JWTSecret:    cfg.Auth.JWTSecret,
		CookieDomain: cfg.Auth.CookieDomain,
		CookieSecure: cfg.Auth.CookieSecure,
		Log:          log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth platform listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildProviders configures one OIDC adapter per enabled social provider.
// A provider that fails discovery is skipped with a warning rather than
// taking the whole service down.
func buildProviders(ctx context.Context, cfg *config.Config, log zerolog.Logger) map[string]ports.OAuthProvider {
	providers := make(map[string]ports.OAuthProvider)
	for name, pc := range map[string]config.OAuthProviderConfig{
		"google": cfg.OAuth.Google,
		"github": cfg.OAuth.Github,
	} {
		if !pc.Enabled() {
			continue
		}
		p, err := oauth.NewProvider(ctx, oauth.ProviderConfig{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			IssuerURL:    pc.IssuerURL,
		})
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("social provider disabled")
			continue
		}
		providers[name] = p
	}
	return providers
}

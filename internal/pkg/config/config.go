package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	OAuth OAuthConfig
}

type AuthConfig struct {
	JWTSecret            string        `env:"JWT_SECRET"`
	SessionTTL           time.Duration `env:"SESSION_TTL,            default=168h"`
	BcryptCost           int           `env:"BCRYPT_COST,            default=10"`
	RequireVerifiedEmail bool          `env:"REQUIRE_VERIFIED_EMAIL, default=false"`
	MaxSignInFailures    int           `env:"MAX_SIGNIN_FAILURES,    default=5"`
	SignInFailureWindow  time.Duration `env:"SIGNIN_FAILURE_WINDOW,  default=15m"`
	CookieDomain         string        `env:"COOKIE_DOMAIN"`
	CookieSecure         bool          `env:"COOKIE_SECURE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_platform"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// OAuthProviderConfig configures one social provider. A provider with an
// empty client ID is considered disabled.
type OAuthProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	IssuerURL    string `env:"ISSUER_URL"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

func (c OAuthProviderConfig) Enabled() bool { return c.ClientID != "" }

type OAuthConfig struct {
	Google OAuthProviderConfig `env:", prefix=OAUTH_GOOGLE_"`
	Github OAuthProviderConfig `env:", prefix=OAUTH_GITHUB_"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// Package config centralizes process configuration, loaded from environment
// variables (with local .env support for development). Keep infra values
// here and pass a typed Config into bootstrap's builders.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// ServerConfig controls the HTTP API composition root.
type ServerConfig struct {
	Host string `env:"SERVER_HOST,default=0.0.0.0"`
	Port string `env:"SERVER_PORT,default=8080"`
}

// DatabaseConfig controls the Postgres connection pool.
type DatabaseConfig struct {
	DSN             string `env:"DATABASE_DSN"`
	MaxOpenConns    int    `env:"DATABASE_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int    `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifeMins int    `env:"DATABASE_CONN_MAX_LIFETIME_MINUTES,default=30"`
}

// RedisConfig controls the connection registry's shared-state adapter .
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
}

// LoggingConfig controls the root slog handler.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

// LLMConfig carries provider credentials for the failover chain .
type LLMConfig struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
}

// ResilienceConfig carries the tunables this declare as config.
type ResilienceConfig struct {
	CircuitBreakerFailureThreshold int `env:"CIRCUIT_BREAKER_FAILURE_THRESHOLD,default=5"`
	CircuitBreakerRecoverySeconds  int `env:"CIRCUIT_BREAKER_RECOVERY_SECONDS,default=30"`
	CircuitBreakerSuccessThreshold int `env:"CIRCUIT_BREAKER_SUCCESS_THRESHOLD,default=2"`
	RateLimitRequestsPerSecond     int `env:"RATE_LIMIT_REQUESTS_PER_SECOND,default=10"`
	RateLimitBurst                 int `env:"RATE_LIMIT_BURST,default=20"`
	UsageDailyLimitCents           int `env:"USAGE_DAILY_LIMIT_CENTS,default=2000"`
	UsageSessionLimitCents         int `env:"USAGE_SESSION_LIMIT_CENTS,default=500"`
	ConnectionRegistryTTLSeconds   int `env:"CONNECTION_REGISTRY_TTL_SECONDS,default=90"`
}

// WebhookConfig carries the payment provider's webhook verification secret.
type WebhookConfig struct {
	PaymentSigningSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

// AuthConfig carries the shared secret this process signs and verifies
// session bearer tokens with.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

// PaymentConfig carries Stripe credentials and the price IDs each paid
// tier bills against.
type PaymentConfig struct {
	StripeSecretKey  string `env:"STRIPE_SECRET_KEY"`
	StripePriceIDPro  string `env:"STRIPE_PRICE_ID_PRO"`
	StripePriceIDTeam string `env:"STRIPE_PRICE_ID_TEAM"`
}

// Config is the top-level process configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME,default=wayfinder"`
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Logging     LoggingConfig
	LLM         LLMConfig
	Resilience  ResilienceConfig
	Webhook     WebhookConfig
	Auth        AuthConfig
	Payment     PaymentConfig
}

// Load loads a local .env file if present (missing is not an error), then
// decodes environment variables into a validated Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		// envdecode errors when no tagged fields were present in the
		// environment; treat that as "defaults only" rather than failing.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return Config{}, fmt.Errorf("config: decode env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: DATABASE_DSN is required")
	}
	return nil
}

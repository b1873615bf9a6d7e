package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Env is "dev", "test" or anything else for production. Development
	// conveniences must be opted into.
	Env  string `envconfig:"APP_ENV" default:"production"`
	Port int    `envconfig:"PORT" default:"8080"`

	// Storage selects the backing store: "postgres" or "memory".
	Storage     string `envconfig:"STORAGE" default:"postgres"`
	DBURL       string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"salestrack"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"salestrack"`
	DBName      string `envconfig:"DB_NAME" default:"salestrack"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	JWTSecret           string `envconfig:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `envconfig:"JWT_ACCESS_TTL_MINUTES" default:"720"`

	// AuthLegacyHeaders trusts X-User-ID/Role/Name without a token.
	AuthLegacyHeaders bool `envconfig:"AUTH_LEGACY_HEADERS" default:"false"`
	// AuthDevFallbackUserID names the user assumed for credential-less
	// requests. Honoured only when Env is "dev".
	AuthDevFallbackUserID int64 `envconfig:"AUTH_DEV_FALLBACK_USER_ID"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	APIRateLimit   int64         `envconfig:"API_RATE_LIMIT" default:"120"`
	APIRateWindow  time.Duration `envconfig:"API_RATE_WINDOW" default:"1m"`
	LoginRateLimit int64         `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	MaxBodyBytes       int64    `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	OTELEnabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTELSampleRatio float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func (c Config) validate() error {
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		if !c.IsDev() && c.Env != "test" {
			return fmt.Errorf("JWT_SECRET is required outside dev")
		}
	}

	if c.AuthDevFallbackUserID != 0 && !c.IsDev() {
		return fmt.Errorf("AUTH_DEV_FALLBACK_USER_ID is only allowed when APP_ENV=dev")
	}

	if c.APIRateLimit <= 0 || c.APIRateWindow <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_WINDOW must be positive")
	}

	return nil
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithRequestTimeout bounds work done on behalf of a request while keeping
// its trace and cancellation.
func WithRequestTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/appointment-booking-api/shared/mailer"
	"github.com/vasapolrittideah/appointment-booking-api/shared/provider"
)

// Config is the full runtime configuration of the booking service.
type Config struct {
	Environment         string `env:"APP_ENV"                envDefault:"development"`
	LogLevel            string `env:"LOG_LEVEL"              envDefault:"info"`
	FrontendURL         string `env:"FRONTEND_URL"           envDefault:"https://auxin.media"`
	AppPasswordResetURL string `env:"APP_PASSWORD_RESET_URL" envDefault:"https://auxin.media/reset-password"`
	BusinessTimezone    string `env:"BUSINESS_TIMEZONE"      envDefault:"UTC"`

	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	CORS      CORSConfig      `envPrefix:"CORS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	SMTP      mailer.Config
	Google    provider.GoogleConfig
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":3001"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type MongoConfig struct {
	URI            string        `env:"URI"`
	Database       string        `env:"DATABASE"        envDefault:"auxin"`
	MaxPoolSize    uint64        `env:"MAX_POOL_SIZE"   envDefault:"10"`
	MinPoolSize    uint64        `env:"MIN_POOL_SIZE"   envDefault:"0"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	ServerTimeout  time.Duration `env:"SERVER_TIMEOUT"  envDefault:"5s"`
}

type TokenConfig struct {
	Issuer                      string        `env:"ISSUER"                    envDefault:"booking-service"`
	Audience                    string        `env:"AUDIENCE"                  envDefault:"booking-clients"`
	SessionTokenSecret          string        `env:"SESSION_SECRET"`
	SessionTokenExpiresIn       time.Duration `env:"SESSION_EXPIRES_IN"        envDefault:"168h"`
	PasswordResetTokenSecret    string        `env:"PASSWORD_RESET_SECRET"`
	PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_EXPIRES_IN" envDefault:"15m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

type RateLimitConfig struct {
	AuthRequests int           `env:"AUTH_REQUESTS" envDefault:"20"`
	AuthWindow   time.Duration `env:"AUTH_WINDOW"   envDefault:"1m"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Location resolves the business time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.BusinessTimezone)
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("missing MONGO_URI environment variable")
	}
	if c.Token.SessionTokenSecret == "" {
		return errors.New("missing TOKEN_SESSION_SECRET environment variable")
	}
	if c.Token.PasswordResetTokenSecret == "" {
		return errors.New("missing TOKEN_PASSWORD_RESET_SECRET environment variable")
	}
	if c.Token.SessionTokenExpiresIn <= 0 {
		return errors.New("TOKEN_SESSION_EXPIRES_IN must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}

	return nil
}

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Auth Configuration
	Auth AuthConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// HTTPConfig holds listener and CORS configuration
type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	// GeneratedSecret is set when no JWT_SECRET was provided. Tokens then do
	// not survive a restart.
	GeneratedSecret bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv without touching .env files.
func FromEnv(getenv func(string) string) (*Config, error) {
	// Database URL - default to a file next to the binary, allow override for dev
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "bones.sqlite"
	}

	port := getenv("PORT")
	if port == "" {
		port = "8080"
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	ttl := 24 * time.Hour
	if raw := getenv("JWT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid JWT_TTL %q: must be positive", raw)
		}
		ttl = d
	}

	secret := getenv("JWT_SECRET")
	generated := false
	if secret == "" {
		s, err := generateSecret()
		if err != nil {
			return nil, err
		}
		secret, generated = s, true
	}

	// Logging configuration - defaults suitable for production
	logLevel := getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		HTTP: HTTPConfig{
			Port:        port,
			CORSOrigins: origins,
		},
		Auth: AuthConfig{
			JWTSecret:       secret,
			TokenTTL:        ttl,
			GeneratedSecret: generated,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

// MarshalZerologObject logs the settings an operator needs to check at
// startup. The JWT secret is never included.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("database", c.Database.URL).
		Bool("in_memory", c.Database.URL == ":memory:").
		Str("port", c.HTTP.Port).
		Strs("cors_origins", c.HTTP.CORSOrigins).
		Dur("token_ttl", c.Auth.TokenTTL).
		Bool("generated_secret", c.Auth.GeneratedSecret).
		Str("log_level", c.Logging.Level)
}

// 32 random bytes, hex encoded (64 chars)
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

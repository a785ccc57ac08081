package app

import (
	"os"
	"strconv"
	"time"

	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/jwtx"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens

	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Optional: dedicated HMAC secret for refresh tokens

	AccessTTL       time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL      time.Duration // Optional: refresh token lifetime (default: 30 days)
	VerificationTTL time.Duration // Optional: email verification link lifetime (default: 24h)
	ResetTTL        time.Duration // Optional: password reset link lifetime (default: 1h)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	FrontendURL  string // Required: base URL the email links and OAuth redirects point at

	SMTPHost     string // Optional: mail relay host; empty switches to the log sender
	SMTPPort     int    // Optional: mail relay port (default: 587)
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	GoogleClientID     string // Optional: enables Google login when set with the secret
	GoogleClientSecret string
	GitHubClientID     string // Optional: enables GitHub login when set with the secret
	GitHubClientSecret string
	OAuthRedirectBase  string // Optional: external base URL of this service for provider callbacks

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "learnloop-auth"),

		AccessSecret:  os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("AUTH_REFRESH_SECRET"),

		AccessTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		VerificationTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TTL", service.DefaultVerificationTTL),
		ResetTTL:        getEnvDurationOrDefault("AUTH_RESET_TTL", service.DefaultResetTTL),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		FrontendURL:  getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@learnloop.app"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		OAuthRedirectBase:  getEnvOrDefault("OAUTH_REDIRECT_BASE", "http://localhost:8080"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of the payment form service
type Config struct {
	Port           string
	AllowedOrigins string
	// TokenSecret signs the session tokens handed to front-ends.
	TokenSecret    string
	// TokenTTL bounds how long a session token stays valid.
	TokenTTL       time.Duration
	// ExpiryTZ is an IANA timezone name used for "current month" (e.g. "Europe/Paris").
	ExpiryTZ       string
	BackendDelay   time.Duration
	BackendFailure string
	SubmitTimeout  time.Duration
	SessionIdleTTL time.Duration
	LogLevel       string
	LogFormat      string
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:           GetEnv("PORT", "3000"),
		AllowedOrigins: GetEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		TokenSecret:    GetEnv("FORM_TOKEN_SECRET", "cardform-dev-secret"),
		TokenTTL:       GetDurationEnv("FORM_TOKEN_TTL", time.Hour),
		ExpiryTZ:       GetEnv("EXPIRY_TZ", "UTC"),
		BackendDelay:   GetDurationEnv("BACKEND_DELAY", 2*time.Second),
		BackendFailure: GetEnv("BACKEND_FAILURE", ""),
		SubmitTimeout:  GetDurationEnv("SUBMIT_TIMEOUT", 0),
		SessionIdleTTL: GetDurationEnv("SESSION_IDLE_TTL", 30*time.Minute),
		LogLevel:       GetEnv("LOGGING_LEVEL", "INFO"),
		LogFormat:      GetEnv("LOGGING_FORMAT", "CONSOLE"),
	}
}

// Location resolves ExpiryTZ, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	if c.ExpiryTZ == "" || strings.EqualFold(c.ExpiryTZ, "UTC") {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.ExpiryTZ)
	if err != nil {
		log.Printf("invalid EXPIRY_TZ %q, using UTC: %v", c.ExpiryTZ, err)
		return time.UTC
	}
	return loc
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

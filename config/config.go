package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// CORS configuration
	CORSOrigins []string

	// JWT configuration
	JWTSecret string

	// EmailKey is the hex-encoded AES-256 key for email-at-rest encryption.
	// Loaded once at startup; the cipher built from it lives for the process.
	EmailKey string

	// Mailer configuration
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
	EmailFromName  string
	ConfirmBaseURL string
}

// LoadConfig creates a new Config instance with values from environment
// variables, falling back to Docker secret files for sensitive values.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getSecret("DB_USER", "db_user"),
		DBPassword: getSecret("DB_PASSWORD", "db_password"),
		DBName:     getEnv("DB_NAME", "trackeats"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getSecret("REDIS_PASSWORD", "redis_password"),
		RedisURL:      getEnv("REDIS_URL", ""),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		JWTSecret: getSecret("JWT_SECRET", "jwt_secret"),
		EmailKey:  getSecret("EMAIL_KEY", "email_key"),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", ""),
		SMTPUsername:   getSecret("SMTP_USERNAME", "smtp_username"),
		SMTPPassword:   getSecret("SMTP_PASSWORD", "smtp_password"),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@trackeats.local"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Trackeats"),
		ConfirmBaseURL: getEnv("CONFIRM_BASE_URL", "http://localhost:5173"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", v, err)
		}
		cfg.RedisDB = n
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// getSecret prefers the environment variable and falls back to a Docker
// secret file of the given name.
func getSecret(envName, secretName string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return readSecret(secretName)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that every value the services cannot run without is
// present and well-formed.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBUser == "" {
		errors = append(errors, "DB_USER (or db_user secret) is required")
	}
	if cfg.DBPassword == "" {
		errors = append(errors, "DB_PASSWORD (or db_password secret) is required")
	}
	if cfg.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET (or jwt_secret secret) is required")
	}
	if cfg.EmailKey == "" {
		errors = append(errors, "EMAIL_KEY (or email_key secret) is required")
	} else if key, err := hex.DecodeString(cfg.EmailKey); err != nil || len(key) != 32 {
		errors = append(errors, "EMAIL_KEY must be 64 hex characters (32 bytes)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "\n"))
	}
	return nil
}

package config

import (
	"fmt"
	"net"
	"strings"
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for the serve and migrate commands.
// All failures wrap a sentinel error so callers can use errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddr, c.Addr)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}

// ValidateServe performs the full validation required to run the HTTP
// server, including auth settings that migrate-only invocations don't need.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.AuthSecret == "" {
		return fmt.Errorf("%w: set DROPSKILL_AUTH_SECRET", ErrMissingAuthSecret)
	}
	if len(c.AuthSecret) < MinAuthSecretLen {
		return fmt.Errorf("%w: must be at least %d bytes", ErrInvalidAuthSecret, MinAuthSecretLen)
	}

	if c.TokenTTLMinutes < 1 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidTokenTTL, c.TokenTTLMinutes)
	}

	return nil
}

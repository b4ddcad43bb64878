// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables with the DROPSKILL_ prefix (runtime override)
//  2. Config file (~/.dropskill/config.yaml)
//  3. Default values
//
// DATABASE_URL, when set, overrides the individual postgres_* settings.
//
// Security: sensitive values (postgres password, auth secret) are masked in
// MarshalJSON and never logged.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration problems, checked with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidAddr indicates the listen address is invalid.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingAuthSecret indicates the auth token secret is not set.
	ErrMissingAuthSecret = errors.New("missing auth secret")

	// ErrInvalidAuthSecret indicates the auth token secret is too short.
	ErrInvalidAuthSecret = errors.New("invalid auth secret")

	// ErrInvalidTokenTTL indicates the token lifetime is out of range.
	ErrInvalidTokenTTL = errors.New("invalid token TTL")
)

// Default values applied when neither the environment nor the config file
// provides a setting.
const (
	DefaultAddr            = "127.0.0.1:8000"
	DefaultPostgresHost    = "localhost"
	DefaultPostgresPort    = 5432
	DefaultPostgresUser    = "dropskill"
	DefaultPostgresDBName  = "dropskill"
	DefaultPostgresSSLMode = "disable"
	DefaultTokenTTLMinutes = 7 * 24 * 60 // 7 days
	DefaultAdminEmail      = "admin@dropskill.ai"
	DefaultRateBurst       = 60
)

// MinAuthSecretLen is the minimum accepted auth secret length in bytes.
const MinAuthSecretLen = 32

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// HTTP server
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For behind a reverse proxy
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Storage (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Auth
	AuthSecret      string `mapstructure:"auth_secret" json:"auth_secret"` // SENSITIVE: masked in MarshalJSON
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" json:"token_ttl_minutes"`

	// Knowledge base: directory of one .md file per topic. Empty means the
	// embedded default documents are used.
	KnowledgeDir string `mapstructure:"knowledge_dir" json:"knowledge_dir"`

	// Seeding (see cmd/seed.go)
	AdminEmail    string `mapstructure:"admin_email" json:"admin_email"`
	AdminPassword string `mapstructure:"admin_password" json:"admin_password"` // SENSITIVE: masked in MarshalJSON

	// Logging
	Debug   bool `mapstructure:"debug" json:"debug"`
	LogJSON bool `mapstructure:"log_json" json:"log_json"`
}

// MarshalJSON masks sensitive fields when the config is serialized,
// e.g. for debug logging.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(c)
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	if masked.AuthSecret != "" {
		masked.AuthSecret = "***"
	}
	if masked.AdminPassword != "" {
		masked.AdminPassword = "***"
	}
	data, err := json.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("masking config: %w", err)
	}
	return data, nil
}

// Load reads configuration from defaults, the optional config file, and the
// environment, then applies the DATABASE_URL override.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DROPSKILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			// Missing file is fine: env and defaults apply.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", DefaultRateBurst)

	v.SetDefault("postgres_host", DefaultPostgresHost)
	v.SetDefault("postgres_port", DefaultPostgresPort)
	v.SetDefault("postgres_user", DefaultPostgresUser)
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", DefaultPostgresDBName)
	v.SetDefault("postgres_ssl_mode", DefaultPostgresSSLMode)

	v.SetDefault("auth_secret", "")
	v.SetDefault("token_ttl_minutes", DefaultTokenTTLMinutes)

	v.SetDefault("knowledge_dir", "")

	v.SetDefault("admin_email", DefaultAdminEmail)
	v.SetDefault("admin_password", "")

	v.SetDefault("debug", false)
	v.SetDefault("log_json", false)
}

// configDir returns the directory that may contain config.yaml
// (~/.dropskill), creating nothing.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".dropskill"), nil
}

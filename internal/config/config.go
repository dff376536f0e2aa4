// Package config provides configuration for the mdvault binary.
// Loads from: env vars > mdvault.toml > built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults mirror a single-user deployment under /data.
const (
	DefaultJWTSecret     = "change-me-in-production"
	DefaultAdminPassword = "admin"
	DefaultAdminUser     = "admin"
)

// Config holds all mdvault configuration, loaded from TOML + env.
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Store  StoreConfig  `toml:"store"`
	Search SearchConfig `toml:"search"`
	Backup BackupConfig `toml:"backup"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// AuthConfig holds credential and rate-limit settings.
type AuthConfig struct {
	JWTSecret        string `toml:"jwt_secret"`
	AdminPassword    string `toml:"admin_password"`
	TokenExpiryHours int    `toml:"token_expiry_hours"`
	LoginMaxAttempts int    `toml:"login_max_attempts"`
	LoginWindowSecs  int    `toml:"login_window_secs"`
}

// StoreConfig holds database and attachment paths.
type StoreConfig struct {
	DBPath    string `toml:"db_path"`
	UploadDir string `toml:"upload_dir"`
}

// SearchConfig holds snippet highlighting settings.
type SearchConfig struct {
	HighlightStart string `toml:"highlight_start"`
	HighlightEnd   string `toml:"highlight_end"`
}

// BackupConfig holds offline-backup settings.
type BackupConfig struct {
	Dir  string `toml:"dir"`
	Keep int    `toml:"keep"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"https://mdvault.site"},
		},
		Auth: AuthConfig{
			JWTSecret:        DefaultJWTSecret,
			AdminPassword:    DefaultAdminPassword,
			TokenExpiryHours: 24,
			LoginMaxAttempts: 10,
			LoginWindowSecs:  300,
		},
		Store: StoreConfig{
			DBPath:    "/data/vault.db",
			UploadDir: "/data/uploads",
		},
		Search: SearchConfig{
			HighlightStart: "<mark>",
			HighlightEnd:   "</mark>",
		},
		Backup: BackupConfig{
			Dir:  "/data/backups",
			Keep: 7,
		},
	}
}

// Load reads configuration from the given TOML file (skipped when path is
// empty or the file does not exist), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config fields from the environment. Variable names
// match the original deployment (JWT_SECRET, ADMIN_PASSWORD, DB_PATH, ...).
func applyEnv(cfg *Config) {
	if v := os.Getenv("MDVAULT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Auth.TokenExpiryHours = n
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Store.UploadDir = v
	}
	if v := os.Getenv("BACKUP_DIR"); v != "" {
		cfg.Backup.Dir = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Warnings reports insecure settings that should not reach production.
func (c Config) Warnings() []string {
	var w []string
	if c.Auth.JWTSecret == DefaultJWTSecret {
		w = append(w, "JWT_SECRET is using the default value -- set a secure secret in production")
	}
	if c.Auth.AdminPassword == DefaultAdminPassword {
		w = append(w, "ADMIN_PASSWORD is 'admin' -- set a strong password in production")
	}
	return w
}

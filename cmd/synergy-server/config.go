// Package main provides the Synergy API server.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/notifier"
)

// Config represents the server configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Invites       InvitesConfig       `yaml:"invites"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       logging.Config      `yaml:"logging"`
	Verbose       bool                `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress    string    `yaml:"http_address"`    // API listen address (default: :8080)
	MetricsAddress string    `yaml:"metrics_address"` // Prometheus listen address (empty disables)
	TLS            TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the API listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // default: ./data/synergy.db
}

// AuthConfig contains token and brute-force protection settings.
type AuthConfig struct {
	AccessTokenTTL   string `yaml:"access_token_ttl"`    // default: 15m
	RefreshTokenTTL  string `yaml:"refresh_token_ttl"`   // default: 168h
	LockoutThreshold int    `yaml:"lockout_threshold"`   // failed logins before lockout (default: 5)
	LockoutDuration  string `yaml:"lockout_duration"`    // default: 15m
	RateLimitPerIP   int    `yaml:"rate_limit_per_ip"`   // auth requests/minute (default: 20)
	RateLimitPerUser int    `yaml:"rate_limit_per_user"` // API requests/minute (default: 120)
	CleanupInterval  string `yaml:"cleanup_interval"`    // expired refresh token sweep (default: 1h)
}

// InvitesConfig controls who may be invited by email.
type InvitesConfig struct {
	Domain string `yaml:"domain"` // default: gmail.com
}

// NotificationsConfig contains delivery settings.
type NotificationsConfig struct {
	RateLimit notifier.RateLimitConfig `yaml:"rate_limit"`
	SMTP      *notifier.EmailConfig    `yaml:"smtp"` // nil disables email
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/synergy.db"
	}
	if c.Auth.AccessTokenTTL == "" {
		c.Auth.AccessTokenTTL = "15m"
	}
	if c.Auth.RefreshTokenTTL == "" {
		c.Auth.RefreshTokenTTL = "168h"
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == "" {
		c.Auth.LockoutDuration = "15m"
	}
	if c.Auth.RateLimitPerIP == 0 {
		c.Auth.RateLimitPerIP = 20
	}
	if c.Auth.RateLimitPerUser == 0 {
		c.Auth.RateLimitPerUser = 120
	}
	if c.Auth.CleanupInterval == "" {
		c.Auth.CleanupInterval = "1h"
	}
	if c.Invites.Domain == "" {
		c.Invites.Domain = "gmail.com"
	}
	if c.Notifications.RateLimit.MaxPerWindow == 0 {
		c.Notifications.RateLimit = notifier.DefaultRateLimitConfig()
	}
	c.Logging.SetDefaults()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.MetricsAddress != "" && c.Server.MetricsAddress == c.Server.HTTPAddress {
		return fmt.Errorf("server.metrics_address must differ from server.http_address")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	for name, value := range map[string]string{
		"auth.access_token_ttl":  c.Auth.AccessTokenTTL,
		"auth.refresh_token_ttl": c.Auth.RefreshTokenTTL,
		"auth.lockout_duration":  c.Auth.LockoutDuration,
		"auth.cleanup_interval":  c.Auth.CleanupInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Auth.LockoutThreshold < 1 {
		return fmt.Errorf("auth.lockout_threshold must be at least 1")
	}
	if c.Notifications.SMTP != nil {
		if err := c.Notifications.SMTP.Validate(); err != nil {
			return fmt.Errorf("notifications.smtp: %w", err)
		}
	}
	return nil
}

// durations returns the parsed auth durations. Validate must have passed.
func (c *Config) durations() (access, refresh, lockout, cleanup time.Duration) {
	access, _ = time.ParseDuration(c.Auth.AccessTokenTTL)
	refresh, _ = time.ParseDuration(c.Auth.RefreshTokenTTL)
	lockout, _ = time.ParseDuration(c.Auth.LockoutDuration)
	cleanup, _ = time.ParseDuration(c.Auth.CleanupInterval)
	return access, refresh, lockout, cleanup
}

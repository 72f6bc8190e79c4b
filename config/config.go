package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultBackendURL     = "http://127.0.0.1:5000"
	DefaultListenAddr     = ":8080"
	DefaultRequestTimeout = 10 * time.Second
	DefaultToastTTL       = 4 * time.Second
	DefaultSessionTTL     = 24 * time.Hour
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultLogLevel       = "info"
)

// DefaultBranches are the options offered by the branch selector.
var DefaultBranches = []string{"CS", "IT", "ECE", "EE", "ME", "CE"}

// Config holds all dashboard configuration.
type Config struct {
	// Backend REST API
	Backend BackendConfig `yaml:"backend"`

	// Dashboard HTTP server
	Server ServerConfig `yaml:"server"`

	// Session state storage
	Redis RedisConfig `yaml:"redis"`

	// Branch options for the record form
	Branches []string `yaml:"branches"`

	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig points at the roster REST backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// ServerConfig configures the dashboard listener.
type ServerConfig struct {
	Listen     string `yaml:"listen"`
	ToastTTL   string `yaml:"toast_ttl"`
	SessionTTL string `yaml:"session_ttl"`
}

// RedisConfig enables Redis-backed sessions. When disabled sessions live in memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: DefaultRequestTimeout.String(),
		},
		Server: ServerConfig{
			Listen:     DefaultListenAddr,
			ToastTTL:   DefaultToastTTL.String(),
			SessionTTL: DefaultSessionTTL.String(),
		},
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
		Branches: append([]string(nil), DefaultBranches...),
		Logging:  LoggingConfig{Level: DefaultLogLevel},
	}
}

// Load reads the YAML file at path (a missing file is not an error), then a
// .env file in the working directory, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ROSTER_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("ROSTER_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("ROSTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
}

// Validate checks that durations parse and required fields are present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url is required")
	}
	for name, v := range map[string]string{
		"backend.timeout":    c.Backend.Timeout,
		"server.toast_ttl":   c.Server.ToastTTL,
		"server.session_ttl": c.Server.SessionTTL,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	if len(c.Branches) == 0 {
		c.Branches = append([]string(nil), DefaultBranches...)
	}
	return nil
}

// RequestTimeout is the per-request timeout for backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return parseOr(c.Backend.Timeout, DefaultRequestTimeout)
}

// ToastTTL is how long a notification stays visible.
func (c *Config) ToastTTL() time.Duration {
	return parseOr(c.Server.ToastTTL, DefaultToastTTL)
}

// SessionTTL is how long an idle dashboard session is kept.
func (c *Config) SessionTTL() time.Duration {
	return parseOr(c.Server.SessionTTL, DefaultSessionTTL)
}

func parseOr(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

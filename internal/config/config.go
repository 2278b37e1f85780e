package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything Portfolio Finder reads from its config file.
type Config struct {
	LogFile  string
	LogLevel string
	Session  SessionConfig
	Search   SearchConfig
}

// SessionConfig holds data platform credentials and transport settings.
type SessionConfig struct {
	AppKey       string
	Username     string
	Password     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration
}

// SearchConfig holds portfolio search endpoint settings.
type SearchConfig struct {
	Endpoint  string
	RateLimit int
}

const (
	defaultConfigPath = "~/.config/portfolio-finder/config.toml"
	defaultLogFile    = "~/.local/state/portfolio-finder/finder.log"
	defaultLogLevel   = "info"
	defaultTokenURL   = "https://api.refinitiv.com/auth/oauth2/v1/token"
	defaultEndpoint   = "https://api.refinitiv.com/user-data/portfolio-management/v1/portfolios/search"
	defaultTimeout    = 30 * time.Second
	defaultRateLimit  = 5
)

var defaultScopes = []string{"trapi"}

// Environment variables that override credentials from the file.
const (
	EnvAppKey   = "PF_APP_KEY"
	EnvUsername = "PF_USERNAME"
	EnvPassword = "PF_PASSWORD"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogFile:  mustExpand(defaultLogFile),
		LogLevel: defaultLogLevel,
		Session: SessionConfig{
			TokenURL: defaultTokenURL,
			Scopes:   append([]string(nil), defaultScopes...),
			Timeout:  defaultTimeout,
		},
		Search: SearchConfig{
			Endpoint:  defaultEndpoint,
			RateLimit: defaultRateLimit,
		},
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LogFile  string `toml:"log_file"`
		LogLevel string `toml:"log_level"`
		Session  struct {
			AppKey       string   `toml:"app_key"`
			Username     string   `toml:"username"`
			Password     string   `toml:"password"`
			ClientSecret string   `toml:"client_secret"`
			TokenURL     string   `toml:"token_url"`
			Scopes       []string `toml:"scopes"`
			Timeout      string   `toml:"timeout"`
		} `toml:"session"`
		Search struct {
			Endpoint  string `toml:"endpoint"`
			RateLimit *int   `toml:"rate_limit"`
		} `toml:"search"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.Session.AppKey = strings.TrimSpace(raw.Session.AppKey)
	cfg.Session.Username = strings.TrimSpace(raw.Session.Username)
	cfg.Session.Password = raw.Session.Password
	cfg.Session.ClientSecret = raw.Session.ClientSecret
	if v := strings.TrimSpace(raw.Session.TokenURL); v != "" {
		cfg.Session.TokenURL = v
	}
	if scopes := trimAll(raw.Session.Scopes); len(scopes) > 0 {
		cfg.Session.Scopes = scopes
	}
	if v := strings.TrimSpace(raw.Session.Timeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse session.timeout %q: %w", v, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("session.timeout must be positive, got %s", v)
		}
		cfg.Session.Timeout = timeout
	}

	if v := strings.TrimSpace(raw.Search.Endpoint); v != "" {
		cfg.Search.Endpoint = v
	}
	if raw.Search.RateLimit != nil {
		if *raw.Search.RateLimit < 0 {
			return Config{}, fmt.Errorf("search.rate_limit must not be negative, got %d", *raw.Search.RateLimit)
		}
		cfg.Search.RateLimit = *raw.Search.RateLimit
	}

	applyEnv(&cfg)
	return cfg, nil
}

// HasCredentials reports whether enough session settings exist to attempt a login.
func (c SessionConfig) HasCredentials() bool {
	if strings.TrimSpace(c.AppKey) == "" {
		return false
	}
	if c.Username != "" {
		return c.Password != ""
	}
	return c.ClientSecret != ""
}

// LogDir returns the directory holding the application log.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

// DefaultPath returns the default config file location, unexpanded.
func DefaultPath() string {
	return defaultConfigPath
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAppKey)); v != "" {
		cfg.Session.AppKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		cfg.Session.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Session.Password = v
	}
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

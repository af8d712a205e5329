package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jdelaire/addrbot/core/policy"
)

// Config is the process configuration. It is built once by Load and only read afterwards.
type Config struct {
	AllowedUsers     string        `yaml:"allowed_users" koanf:"allowed_users"`
	APIBaseURL       string        `yaml:"api_base_url" koanf:"api_base_url"`
	TelegramBotToken string        `yaml:"telegram_bot_token" koanf:"telegram_bot_token"`
	TeloxideToken    string        `yaml:"-" koanf:"teloxide_token"`
	LookupTimeout    time.Duration `yaml:"lookup_timeout" koanf:"lookup_timeout"`
	MaxConcurrent    int           `yaml:"max_concurrent" koanf:"max_concurrent"`
	MetricsAddr      string        `yaml:"metrics_addr" koanf:"metrics_addr"`
	LogLevel         string        `yaml:"log_level" koanf:"log_level"`
	LogFormat        string        `yaml:"log_format" koanf:"log_format"`

	// AllowList is AllowedUsers parsed by Validate.
	AllowList []int64 `yaml:"-" koanf:"-"`
}

// Options controls where Load reads from.
type Options struct {
	// Path is an optional YAML file. A missing file is not an error.
	Path string
	// EnvFile is an optional dotenv file merged into the process environment
	// without overriding variables that are already set.
	EnvFile string
	// TokenFallback is consulted when no bot token is configured.
	TokenFallback func() (string, error)
}

// envKeys maps recognised environment variables to config keys.
var envKeys = map[string]string{
	"ALLOWED_USERS":      "allowed_users",
	"API_BASE_URL":       "api_base_url",
	"TELEGRAM_BOT_TOKEN": "telegram_bot_token",
	"TELOXIDE_TOKEN":     "teloxide_token",
	"LOOKUP_TIMEOUT":     "lookup_timeout",
	"MAX_CONCURRENT":     "max_concurrent",
	"METRICS_ADDR":       "metrics_addr",
	"LOG_LEVEL":          "log_level",
	"LOG_FORMAT":         "log_format",
}

// Load reads defaults, the YAML file, the dotenv file and the environment,
// in increasing order of precedence, and validates the result.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err == nil {
			if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", opts.Path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", opts.Path, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading env file %s: %w", opts.EnvFile, err)
		}
	}

	// Empty variables are treated as unset so they do not mask file values.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKeys[key], value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.TelegramBotToken == "" {
		cfg.TelegramBotToken = cfg.TeloxideToken
	}
	if cfg.TelegramBotToken == "" && opts.TokenFallback != nil {
		token, err := opts.TokenFallback()
		if err != nil {
			return nil, fmt.Errorf("bot token not configured and fallback failed: %w", err)
		}
		cfg.TelegramBotToken = strings.TrimSpace(token)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a Config with every optional setting at its default.
func DefaultConfig() *Config {
	return &Config{
		LookupTimeout: 10 * time.Second,
		MaxConcurrent: 16,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Validate checks every setting and fills AllowList.
func (c *Config) Validate() error {
	ids, err := policy.ParseAllowList(c.AllowedUsers)
	if err != nil {
		return fmt.Errorf("ALLOWED_USERS: %w", err)
	}
	c.AllowList = ids

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q: must be an absolute http(s) URL", c.APIBaseURL)
	}

	if c.TelegramBotToken == "" {
		return fmt.Errorf("telegram bot token is required (TELEGRAM_BOT_TOKEN, TELOXIDE_TOKEN or keychain)")
	}

	if c.LookupTimeout <= 0 {
		return fmt.Errorf("lookup_timeout must be positive, got %s", c.LookupTimeout)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", c.MaxConcurrent)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	r := *c
	if r.TelegramBotToken != "" {
		r.TelegramBotToken = "<redacted>"
	}
	r.TeloxideToken = ""
	r.AllowList = append([]int64(nil), c.AllowList...)
	return r
}

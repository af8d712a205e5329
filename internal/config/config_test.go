package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every recognised variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ALLOWED_USERS", "11,22")
	t.Setenv("API_BASE_URL", "https://blockstream.info/api/address")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LookupTimeout != 10*time.Second {
		t.Errorf("expected default lookup_timeout 10s, got %s", cfg.LookupTimeout)
	}
	if cfg.MaxConcurrent != 16 {
		t.Errorf("expected default max_concurrent 16, got %d", cfg.MaxConcurrent)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected log defaults %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("LOOKUP_TIMEOUT", "3s")
	t.Setenv("MAX_CONCURRENT", "4")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.AllowList) != 2 || cfg.AllowList[0] != 11 || cfg.AllowList[1] != 22 {
		t.Errorf("allowlist = %v, want [11 22]", cfg.AllowList)
	}
	if cfg.APIBaseURL != "https://blockstream.info/api/address" {
		t.Errorf("api_base_url = %q", cfg.APIBaseURL)
	}
	if cfg.LookupTimeout != 3*time.Second {
		t.Errorf("lookup_timeout = %s, want 3s", cfg.LookupTimeout)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("max_concurrent = %d, want 4", cfg.MaxConcurrent)
	}
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "addrbot.yml", `
allowed_users: "1,2,3"
api_base_url: http://localhost:3000/address
telegram_bot_token: file-token
lookup_timeout: 2s
log_level: debug
log_format: json
metrics_addr: 127.0.0.1:9100
`)
	t.Setenv("API_BASE_URL", "http://env.example/address")

	cfg, err := Load(Options{Path: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "http://env.example/address" {
		t.Errorf("env should override file, got %q", cfg.APIBaseURL)
	}
	if len(cfg.AllowList) != 3 {
		t.Errorf("allowlist = %v, want 3 ids", cfg.AllowList)
	}
	if cfg.TelegramBotToken != "file-token" {
		t.Errorf("token = %q", cfg.TelegramBotToken)
	}
	if cfg.LookupTimeout != 2*time.Second {
		t.Errorf("lookup_timeout = %s", cfg.LookupTimeout)
	}
	if cfg.MetricsAddr != "127.0.0.1:9100" {
		t.Errorf("metrics_addr = %q", cfg.MetricsAddr)
	}
	lvl, err := cfg.Level()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("level = %v, %v", lvl, err)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	if _, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.yml"), EnvFile: filepath.Join(t.TempDir(), ".env")}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "ALLOWED_USERS=5\nAPI_BASE_URL=http://dotenv.example\nTELOXIDE_TOKEN=dot-token\n")
	t.Setenv("ALLOWED_USERS", "6")

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.AllowList) != 1 || cfg.AllowList[0] != 6 {
		t.Errorf("process env should win over .env, got %v", cfg.AllowList)
	}
	if cfg.APIBaseURL != "http://dotenv.example" {
		t.Errorf("api_base_url = %q", cfg.APIBaseURL)
	}
	if cfg.TelegramBotToken != "dot-token" {
		t.Errorf("token = %q, want TELOXIDE_TOKEN fallback", cfg.TelegramBotToken)
	}
}

func TestTelegramTokenPreferredOverTeloxide(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("TELOXIDE_TOKEN", "other")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TelegramBotToken != "123:abc" {
		t.Errorf("token = %q, want TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	}
}

func TestTokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_USERS", "1")
	t.Setenv("API_BASE_URL", "http://x")

	cfg, err := Load(Options{TokenFallback: func() (string, error) { return " from-keychain\n", nil }})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TelegramBotToken != "from-keychain" {
		t.Errorf("token = %q", cfg.TelegramBotToken)
	}

	_, err = Load(Options{TokenFallback: func() (string, error) { return "", errors.New("no keychain") }})
	if err == nil || !strings.Contains(err.Error(), "no keychain") {
		t.Errorf("error = %v, want fallback error", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing allowlist", map[string]string{"ALLOWED_USERS": ""}, "ALLOWED_USERS"},
		{"malformed allowlist", map[string]string{"ALLOWED_USERS": "1,x"}, "ALLOWED_USERS"},
		{"missing base url", map[string]string{"API_BASE_URL": ""}, "API_BASE_URL is required"},
		{"relative base url", map[string]string{"API_BASE_URL": "/api"}, "absolute http(s) URL"},
		{"ftp base url", map[string]string{"API_BASE_URL": "ftp://x/y"}, "absolute http(s) URL"},
		{"missing token", map[string]string{"TELEGRAM_BOT_TOKEN": ""}, "bot token is required"},
		{"bad timeout", map[string]string{"LOOKUP_TIMEOUT": "soon"}, "unmarshalling config"},
		{"negative timeout", map[string]string{"LOOKUP_TIMEOUT": "-1s"}, "lookup_timeout"},
		{"zero concurrency", map[string]string{"MAX_CONCURRENT": "0"}, "max_concurrent"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "log_level"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(Options{})
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bad.yml", "allowed_users: [unterminated\n")
	if _, err := Load(Options{Path: path}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TelegramBotToken = "secret"
	cfg.TeloxideToken = "secret2"
	cfg.AllowList = []int64{1}

	r := cfg.Redacted()
	if r.TelegramBotToken != "<redacted>" || r.TeloxideToken != "" {
		t.Errorf("tokens not redacted: %+v", r)
	}
	r.AllowList[0] = 99
	if cfg.AllowList[0] != 1 {
		t.Error("Redacted should not share the allowlist slice")
	}
	if cfg.TelegramBotToken != "secret" {
		t.Error("Redacted must not modify the original")
	}
}

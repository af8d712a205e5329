package main

import (
	"io"
	"log/slog"

	"github.com/jdelaire/addrbot/internal/config"
	"github.com/jdelaire/addrbot/internal/keychain"
)

func loadConfig(flags *rootFlags) (*config.Config, error) {
	return config.Load(config.Options{
		Path:          flags.cfgFile,
		EnvFile:       flags.envFile,
		TokenFallback: keychain.BotToken,
	})
}

// newLogger builds the process logger. Validate has already checked level and format.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	lvl, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdelaire/addrbot/adapters/telegram_receiver"
	"github.com/jdelaire/addrbot/adapters/telegram_replier"
	"github.com/jdelaire/addrbot/core"
	"github.com/jdelaire/addrbot/core/lookup"
	"github.com/jdelaire/addrbot/core/policy"
	"github.com/jdelaire/addrbot/internal/config"
	"github.com/jdelaire/addrbot/internal/metrics"
	"github.com/jdelaire/addrbot/internal/opsserver"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and serve messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, runOptions{logOut: cmd.ErrOrStderr()})
		},
	}
}

// runOptions overrides process-level wiring; zero values mean production defaults.
type runOptions struct {
	telegramURL string
	logOut      io.Writer
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	if opts.logOut == nil {
		opts.logOut = os.Stderr
	}
	logger := newLogger(cfg, opts.logOut)
	pol := policy.New(cfg.AllowList)
	lk := lookup.New(cfg.APIBaseURL,
		lookup.WithTimeout(cfg.LookupTimeout),
		lookup.WithUserAgent("addrbot/"+Version))
	logger.Info("starting bot", "version", Version, "allowed_users", pol.Len(), "api_base_url", lk.BaseURL())

	replier := telegram_replier.New(cfg.TelegramBotToken)
	if opts.telegramURL != "" {
		replier.WithBaseURL(opts.telegramURL)
	}
	username, err := replier.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("validate bot token: %w", err)
	}
	logger.Info("authenticated with telegram", "username", username)

	m := metrics.New()

	handler := core.NewHandler(
		pol,
		lk,
		logger,
		core.WithRecorder(m),
	)
	rt := core.NewRuntime(handler, replier, logger,
		core.WithMaxConcurrent(cfg.MaxConcurrent),
		core.WithRuntimeRecorder(m))
	rt.Bind(ctx)

	if cfg.MetricsAddr != "" {
		ops := opsserver.New(cfg.MetricsAddr, m.Handler(), logger)
		if err := ops.Start(ctx); err != nil {
			return err
		}
		defer ops.Wait()
	}

	recv := telegram_receiver.New(cfg.TelegramBotToken, rt.Dispatch, logger)
	if opts.telegramURL != "" {
		recv.WithBaseURL(opts.telegramURL)
	}
	if err := recv.Start(ctx); err != nil {
		return err
	}

	logger.Info("waiting for in-flight messages")
	rt.Wait()
	logger.Info("bot stopped")
	return nil
}

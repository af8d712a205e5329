package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print it with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			r := cfg.Redacted()

			ids := make([]string, len(r.AllowList))
			for i, id := range r.AllowList {
				ids[i] = fmt.Sprint(id)
			}
			metrics := r.MetricsAddr
			if metrics == "" {
				metrics = "disabled"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  allowed users:  %s\n", strings.Join(ids, ", "))
			fmt.Fprintf(out, "  api base url:   %s\n", r.APIBaseURL)
			fmt.Fprintf(out, "  bot token:      %s\n", r.TelegramBotToken)
			fmt.Fprintf(out, "  lookup timeout: %s\n", r.LookupTimeout)
			fmt.Fprintf(out, "  max concurrent: %d\n", r.MaxConcurrent)
			fmt.Fprintf(out, "  metrics:        %s\n", metrics)
			fmt.Fprintf(out, "  log:            %s/%s\n", r.LogLevel, r.LogFormat)
			return nil
		},
	}
}

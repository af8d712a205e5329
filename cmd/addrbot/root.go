package main

import (
	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

type rootFlags struct {
	cfgFile string
	envFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "addrbot",
		Short: "Telegram bot that reports transaction counts for addresses",
		Long: `addrbot answers Telegram messages from allow-listed users by looking up
the message text as an address on an Esplora-style API and replying with
the address's transaction count.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.cfgFile, "config", "addrbot.yml", "config file path (optional)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file path (optional)")

	root.AddCommand(
		newRunCmd(flags),
		newCheckCmd(flags),
		newTokenCmd(),
		newVersionCmd(),
	)
	return root
}

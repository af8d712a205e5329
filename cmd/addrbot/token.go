package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdelaire/addrbot/internal/keychain"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Telegram bot token stored in the system keychain",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Read a bot token from stdin and store it in the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			token := strings.TrimSpace(line)
			if token == "" {
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				return fmt.Errorf("empty token")
			}
			if err := keychain.Set(keychain.BotTokenAccount, token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored in keychain.")
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the bot token from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keychain.Delete(keychain.BotTokenAccount); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed from keychain.")
			return nil
		},
	})

	return tokenCmd
}

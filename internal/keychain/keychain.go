package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "addrbot"

	// BotTokenAccount is the keychain account holding the Telegram bot token.
	BotTokenAccount = "telegram_bot_token"
)

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	return keyring.Set(serviceName, account, value)
}

// Delete removes a secret from the system keychain. Missing entries are not an error.
func Delete(account string) error {
	if err := keyring.Delete(serviceName, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// BotToken returns the stored bot token, or an empty string if none is stored.
func BotToken() (string, error) {
	token, err := Get(BotTokenAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read keychain: %w", err)
	}
	return token, nil
}

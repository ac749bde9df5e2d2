// Package secrets keeps the IMAP app password in the OS keychain so it
// never lands in config.yml.
package secrets

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/errors"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "jobhunt"
)

// ErrNoPassword is returned when neither the keychain nor the environment
// has an IMAP password.
var ErrNoPassword = errors.New("IMAP password not found")

// GetIMAPPassword reads the password for keyringAccount from the keychain.
func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) == "" {
		return "", errors.InvalidRequestf("keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, keyringAccount)
	if err != nil || strings.TrimSpace(pw) == "" {
		return "", errors.WithHint(ErrNoPassword,
			"store it with POST /api/secrets/imap or set IMAP_APP_PASSWORD")
	}
	return pw, nil
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.InvalidRequestf("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.InvalidRequestf("password is empty")
	}
	return errors.Wrap(keyring.Set(KeyringService, keyringAccount, password), "store IMAP password")
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.InvalidRequestf("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.Mark(errors.Wrap(err, "delete IMAP password"), errors.ErrNotFound)
	}
	return errors.Wrap(err, "delete IMAP password")
}

// IMAPKeyringAccount is the keychain account for the configured mailbox.
func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"jobhunt:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}

// ResolveIMAPPassword prefers an explicit password (IMAP_APP_PASSWORD) and
// falls back to the keychain.
func ResolveIMAPPassword(cfg config.Config) (string, error) {
	if pw := strings.TrimSpace(cfg.Email.AppPassword); pw != "" {
		return pw, nil
	}
	return GetIMAPPassword(IMAPKeyringAccount(cfg))
}

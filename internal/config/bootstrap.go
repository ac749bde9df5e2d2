package config

import (
	"io"
	"os"
	"path/filepath"

	"jobhunt-aggregator/internal/errors"
)

// EnsureUserConfig copies defaultPath into dataDir/config.yml the first time
// and returns the user copy's path. An existing user copy is left alone.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrapf(err, "stat %s", userPath)
	}

	// Copy defaultPath -> userPath
	src, err := os.Open(defaultPath)
	if err != nil {
		return "", errors.WithHint(errors.Wrapf(err, "open default config %s", defaultPath),
			"run the engine from the repository root or pass --config")
	}
	defer src.Close()

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create data dir %s", dataDir)
	}
	dst, err := os.Create(userPath)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", userPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrapf(err, "copy default config to %s", userPath)
	}
	return userPath, nil
}

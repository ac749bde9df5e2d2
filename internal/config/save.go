package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobhunt-aggregator/internal/errors"
)

// SaveAtomic validates cfg and replaces path with it, keeping the previous
// file as path.bak.
func SaveAtomic(path string, cfg Config) error {
	normalized, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		return errors.Mark(vr, errors.ErrInvalidRequest)
	}

	b, err := yaml.Marshal(&normalized)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return errors.Wrapf(os.Rename(tmp, path), "replace %s", path)
}

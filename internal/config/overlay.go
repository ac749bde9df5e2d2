// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobhunt-aggregator/internal/errors"
)

// CompaniesFile is an optional companies.yml next to config.yml that keeps
// the long board lists out of the main file.
type CompaniesFile struct {
	Sources struct {
		Greenhouse struct {
			Companies []CompanyRef `yaml:"companies"`
		} `yaml:"greenhouse"`
		Lever struct {
			Companies []CompanyRef `yaml:"companies"`
		} `yaml:"lever"`
	} `yaml:"sources"`
}

func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		// Missing companies file should not kill startup
		return nil
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return errors.Wrapf(err, "parse %s", companiesPath)
	}

	if len(cf.Sources.Greenhouse.Companies) > 0 {
		cfg.Sources.Greenhouse.Companies = cf.Sources.Greenhouse.Companies
	}
	if len(cf.Sources.Lever.Companies) > 0 {
		cfg.Sources.Lever.Companies = cf.Sources.Lever.Companies
	}
	return nil
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobhunt-aggregator/internal/errors"
)

// CompanyRef names one board on an ATS. Slug is the board token in the
// ATS URL, Name is how the company is shown when the ATS omits it.
type CompanyRef struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port" json:"port"`
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		LogJSON  bool   `yaml:"log_json" json:"log_json"`
		LogLevel string `yaml:"log_level" json:"log_level"`
	} `yaml:"app" json:"app"`

	Database struct {
		Driver string `yaml:"driver" json:"driver"` // sqlite | postgres
		// Path of the sqlite file, relative to app.data_dir.
		Path     string `yaml:"path" json:"path"`
		URL      string `yaml:"url" json:"-"`
		MaxConns int32  `yaml:"max_conns" json:"max_conns"`
	} `yaml:"database" json:"database"`

	Redis struct {
		Enabled bool   `yaml:"enabled" json:"enabled"`
		URL     string `yaml:"url" json:"-"`
		Channel string `yaml:"channel" json:"channel"`
	} `yaml:"redis" json:"redis"`

	Dedup struct {
		TitleThreshold       float64 `yaml:"title_threshold" json:"title_threshold"`
		DescriptionThreshold float64 `yaml:"description_threshold" json:"description_threshold"`
		DescriptionSample    int     `yaml:"description_sample" json:"description_sample"`
	} `yaml:"dedup" json:"dedup"`

	Search struct {
		TitleWeight       float64 `yaml:"title_weight" json:"title_weight"`
		DescriptionWeight float64 `yaml:"description_weight" json:"description_weight"`
		RecencyWindowDays int     `yaml:"recency_window_days" json:"recency_window_days"`
		RecencyMaxBoost   float64 `yaml:"recency_max_boost" json:"recency_max_boost"`
		DefaultPageSize   int     `yaml:"default_page_size" json:"default_page_size"`
		MaxPageSize       int     `yaml:"max_page_size" json:"max_page_size"`
	} `yaml:"search" json:"search"`

	Polling struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
		// Schedule is a cron spec, e.g. "@every 30m" or "0 */2 * * *".
		Schedule            string `yaml:"schedule" json:"schedule"`
		FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`
	} `yaml:"polling" json:"polling"`

	Sources struct {
		Greenhouse struct {
			Enabled   bool         `yaml:"enabled" json:"enabled"`
			Companies []CompanyRef `yaml:"companies" json:"companies"`
		} `yaml:"greenhouse" json:"greenhouse"`
		Lever struct {
			Enabled   bool         `yaml:"enabled" json:"enabled"`
			Companies []CompanyRef `yaml:"companies" json:"companies"`
		} `yaml:"lever" json:"lever"`
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	} `yaml:"sources" json:"sources"`

	Email struct {
		Enabled          bool     `yaml:"enabled" json:"enabled"`
		IMAPHost         string   `yaml:"imap_host" json:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" json:"imap_port"`
		Username         string   `yaml:"username" json:"username"`
		Mailbox          string   `yaml:"mailbox" json:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any" json:"search_subject_any"`
		MaxPerPoll       int      `yaml:"max_per_poll" json:"max_per_poll"`
		// AppPassword comes from the keyring or IMAP_APP_PASSWORD, never the file.
		AppPassword string `yaml:"-" json:"-"`
	} `yaml:"email" json:"email"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	} `yaml:"cors" json:"cors"`
}

// Default returns a config that runs a local sqlite engine with polling off.
func Default() Config {
	var c Config
	c.App.Port = 8000
	c.App.DataDir = "."
	c.App.LogLevel = "info"

	c.Database.Driver = "sqlite"
	c.Database.Path = "jobhunt.db"
	c.Database.MaxConns = 10

	c.Redis.Channel = "jobs:events"

	c.Dedup.TitleThreshold = 0.75
	c.Dedup.DescriptionThreshold = 0.70
	c.Dedup.DescriptionSample = 1000

	c.Search.TitleWeight = 1.0
	c.Search.DescriptionWeight = 3.0
	c.Search.RecencyWindowDays = 7
	c.Search.RecencyMaxBoost = 0.5
	c.Search.DefaultPageSize = 20
	c.Search.MaxPageSize = 100

	c.Polling.Schedule = "@every 30m"
	c.Polling.FetchTimeoutSeconds = 60

	c.Sources.RequestsPerSecond = 2

	c.Email.IMAPHost = "imap.gmail.com"
	c.Email.IMAPPort = 993
	c.Email.Mailbox = "INBOX"
	c.Email.SearchSubjectAny = []string{"job alert", "jobs for you"}
	c.Email.MaxPerPoll = 50

	c.CORS.AllowedOrigins = []string{"*"}
	return c
}

// Load reads path over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

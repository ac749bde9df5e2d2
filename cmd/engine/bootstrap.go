package main

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/dedup"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/search"
	"jobhunt-aggregator/internal/store/postgres"
	"jobhunt-aggregator/internal/store/sqlite"
	"jobhunt-aggregator/internal/store/sqlstore"
)

type app struct {
	live    *config.Live
	log     *zap.SugaredLogger
	dataDir string
}

func resolveDataDir(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("JOBHUNT_DATA_DIR"); v != "" {
		return v
	}
	return "."
}

// loadApp bootstraps the data dir, loads the config with its env and
// companies overlays, and builds the logger the config asks for.
func loadApp(o rootOptions) (*app, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	dataDir := resolveDataDir(o.dataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dataDir)
	}

	path, err := config.EnsureUserConfig(dataDir, o.defaultConfig)
	if err != nil {
		return nil, err
	}
	load := func() (config.Config, error) { return loadConfig(path, dataDir) }

	cfg, err := load()
	if err != nil {
		return nil, err
	}
	normalized, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return nil, errors.WithHintf(errors.Mark(vr, errors.ErrInvalidRequest), "fix %s", path)
	}

	log, err := logger.New(normalized.App.LogJSON, normalized.App.LogLevel)
	if err != nil {
		return nil, err
	}
	for _, w := range vr.Warnings {
		log.Warnw("config warning", "warning", w)
	}
	return &app{live: config.NewLive(path, normalized, load), log: log, dataDir: dataDir}, nil
}

// loadConfig reads path and applies the env and companies.yml overlays.
// The data dir the engine was started with always wins over app.data_dir.
func loadConfig(path, dataDir string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := config.OverlayCompanies(&cfg, filepath.Join(dataDir, "companies.yml")); err != nil {
		return cfg, err
	}
	cfg.App.DataDir = dataDir
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (*sqlstore.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.WithHint(errors.New("postgres driver without a database url"), "set DATABASE_URL")
		}
		return postgres.Open(ctx, cfg.Database.URL, postgres.Options{MaxConns: cfg.Database.MaxConns})
	default:
		path := cfg.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.App.DataDir, path)
		}
		return sqlite.Open(ctx, path)
	}
}

// publisher returns the hub, fanned out to redis when it is enabled. The
// returned func releases the redis client.
func publisher(ctx context.Context, cfg config.Config, hub *events.Hub, log *zap.SugaredLogger) (events.Publisher, func(), error) {
	var local events.Publisher
	if hub != nil {
		local = hub
	}
	if !cfg.Redis.Enabled {
		return events.Multi(local), func() {}, nil
	}
	client, err := events.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	pub := events.Multi(local, events.NewRedisPublisher(client, cfg.Redis.Channel, log))
	return pub, func() { _ = client.Close() }, nil
}

func resolverFrom(cfg config.Config) dedup.Resolver {
	return dedup.Resolver{
		TitleThreshold:       cfg.Dedup.TitleThreshold,
		DescriptionThreshold: cfg.Dedup.DescriptionThreshold,
		DescriptionSample:    cfg.Dedup.DescriptionSample,
	}
}

func scorerFrom(cfg config.Config) search.Scorer {
	s := search.NewScorer()
	s.TitleWeight = cfg.Search.TitleWeight
	s.DescriptionWeight = cfg.Search.DescriptionWeight
	s.RecencyWindowDays = cfg.Search.RecencyWindowDays
	s.RecencyMaxBoost = cfg.Search.RecencyMaxBoost
	return s
}

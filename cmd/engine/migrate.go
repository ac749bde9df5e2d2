package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jobhunt-aggregator/internal/store/postgres"
	"jobhunt-aggregator/internal/store/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema of the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func runMigrate(ctx context.Context, o rootOptions, w io.Writer) error {
	a, err := loadApp(o)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	cfg := a.live.Get()
	// Opening a store migrates it.
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := schemaVersion(ctx, cfg.Database.Driver, db.Pool)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema up to date (%s, version %d)\n", cfg.Database.Driver, v)
	return nil
}

func schemaVersion(ctx context.Context, driver string, pool *sql.DB) (int, error) {
	if driver == "postgres" {
		return postgres.Version(ctx, pool)
	}
	return sqlite.Version(ctx, pool)
}

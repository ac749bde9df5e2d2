package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobhunt-aggregator/internal/errors"
)

var version = "dev"

type rootOptions struct {
	dataDir       string
	defaultConfig string
	envFile       string
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Job posting aggregator engine",
	Long: `engine ingests job postings from several sources, merges postings that
describe the same job, and serves ranked search over HTTP.

Examples:
  engine serve                          # run the API, plus polling when enabled
  engine migrate                        # create or update the schema
  engine ingest postings.json           # ingest a POST /jobs/ingest body from disk
  engine search "go -python" --days 7   # search from the terminal`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory holding config.yml and the sqlite file (default $JOBHUNT_DATA_DIR, else .)")
	pf.StringVar(&opts.defaultConfig, "config", filepath.Join("config", "config.yml"), "default config copied into the data dir on first run")
	pf.StringVar(&opts.envFile, "env-file", ".env", ".env file loaded before environment overrides")

	rootCmd.AddCommand(serveCmd, migrateCmd, ingestCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		for _, h := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
		os.Exit(1)
	}
}

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/httpapi"
	"jobhunt-aggregator/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.json>",
	Short: "Ingest a POST /jobs/ingest body from a file (- reads stdin)",
	Long: `ingest runs one batch through the same pipeline as the API and prints
the inserted, merged and skipped counts.

Examples:
  engine ingest linkedin.json
  curl -s https://example.com/feed.json | engine ingest -`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()
		r = f
	}
	source, postings, err := httpapi.ParseIngest(r)
	if err != nil {
		return errors.Wrapf(err, "parse %s", args[0])
	}

	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()
	cfg := a.live.Get()

	ctx := cmd.Context()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pub, closePub, err := publisher(ctx, cfg, nil, a.log.Named("events"))
	if err != nil {
		return err
	}
	defer closePub()

	p := ingest.NewPipeline(db,
		ingest.WithResolver(resolverFrom(cfg)),
		ingest.WithPublisher(pub),
		ingest.WithLogger(a.log.Named("ingest")),
	)
	res, err := p.Ingest(ctx, source, postings)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

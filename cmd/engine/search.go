package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jobhunt-aggregator/internal/httpapi"
	"jobhunt-aggregator/internal/search"
)

var searchFlags struct {
	company  string
	location string
	source   string
	sort     string
	days     int
	page     int
	pageSize int
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored jobs and print the result page as JSON",
	Long: `search takes the same query syntax and filters as GET /jobs/search.
Words are required terms, words prefixed with - exclude a job.

Examples:
  engine search golang
  engine search "backend -php" --company stripe --days 14
  engine search --sort date --page-size 5`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.company, "company", "", "company substring filter")
	f.StringVar(&searchFlags.location, "location", "", "location substring filter")
	f.StringVar(&searchFlags.source, "source", "", "only jobs seen on this source")
	f.StringVar(&searchFlags.sort, "sort", search.SortRelevance, "relevance or date")
	f.IntVar(&searchFlags.days, "days", 0, "only jobs posted in the last N days (0 = any)")
	f.IntVar(&searchFlags.page, "page", 1, "page number")
	f.IntVar(&searchFlags.pageSize, "page-size", 0, "results per page (default from config)")
}

// searchQuery renders args and flags as the API query string so both share
// one validation path.
func searchQuery(args []string) url.Values {
	q := url.Values{}
	q.Set("q", strings.Join(args, " "))
	q.Set("company", searchFlags.company)
	q.Set("location", searchFlags.location)
	q.Set("source", searchFlags.source)
	q.Set("sort", searchFlags.sort)
	q.Set("days", strconv.Itoa(searchFlags.days))
	q.Set("page", strconv.Itoa(searchFlags.page))
	if searchFlags.pageSize != 0 {
		q.Set("page_size", strconv.Itoa(searchFlags.pageSize))
	}
	return q
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()
	cfg := a.live.Get()

	p, err := httpapi.ParseSearchParams(searchQuery(args), cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	page, err := search.NewEngine(db, scorerFrom(cfg), a.log.Named("search")).Search(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), httpapi.NewSearchResponse(p, page))
}

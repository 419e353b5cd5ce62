package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/app"
)

type crawlOptions struct {
	address  string
	redirect bool
	slow     bool
	json     bool
}

// newCrawlCmd creates the 'crawl' subcommand, which refreshes one region.
func newCrawlCmd() *cobra.Command {
	var opts crawlOptions
	cmd := &cobra.Command{
		Use:   "crawl [address]",
		Short: "Crawl a regional listing and replace its stored resorts",
		Long: `Fetches every page of a skiresort.info listing such as "europe" or
"europe/austria", validates the resort elevations and replaces the region's
table (or JSON file with --json) with the result.`,
		Example: `  skiranker crawl --address europe
  skiranker crawl europe/austria --slow --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.address == "" && len(args) == 1 {
				opts.address = args[0]
			}
			return runCrawl(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "listing address relative to the base url, e.g. europe")
	cmd.Flags().BoolVar(&opts.redirect, "redirect", false, "accept redirected pages")
	cmd.Flags().BoolVar(&opts.slow, "slow", false, "wait crawler.slow_delay before every page fetch")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write a JSON file instead of a database table")
	return cmd
}

func runCrawl(cmd *cobra.Command, opts crawlOptions) error {
	ctx := cmd.Context()
	base, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.address) == "" {
		return errors.New("an address is required, e.g. --address europe")
	}

	cfg := base.Config().WithCrawlFlags(opts.redirect, opts.slow, opts.json)
	a := app.New(cfg, base.Logger())
	defer a.Close()
	logger := a.Logger()

	c, err := a.NewCrawler()
	if err != nil {
		return err
	}
	sink, err := a.NewSink(ctx)
	if err != nil {
		return err
	}
	pub, err := a.NewPublisher(ctx)
	if err != nil {
		return err
	}

	run, err := app.NewRefresher(c, sink, pub, cfg.Crawler.OutputFormat, logger.Named("refresh")).Refresh(ctx, opts.address)
	if err != nil {
		return fmt.Errorf("crawl %s: %w", opts.address, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"Completed scrape for %s: %d resorts from %d pages (%d pages failed, %d records rejected)\n",
		run.Address, len(run.Records), run.PageCount, run.PagesFailed, run.Rejected)
	logger.Info("Crawl command finished.", zap.String("run_id", run.ID.String()))
	return nil
}

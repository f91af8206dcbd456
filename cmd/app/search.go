package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"telegram-scraper-bot/internal/config"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/adapters/scraper"
	"telegram-scraper-bot/internal/infra/logging"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		link       string
		maxResults int
	)
	cmd := &cobra.Command{
		Use:   "search <digikala|ebay|global> <query...>",
		Short: "Run one store search from the terminal",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := model.ParseResource(args[0])
			if !ok {
				return fmt.Errorf("unknown resource %q", args[0])
			}
			if r.NeedsLink() && strings.TrimSpace(link) == "" {
				return fmt.Errorf("%s search needs --link", r)
			}

			// the config file is optional here
			cfg, err := opts.load()
			if err != nil {
				cfg, err = config.Parse([]byte("bot: {mode: noop}"), opts.dev)
				if err != nil {
					return err
				}
			}
			if maxResults <= 0 {
				maxResults = cfg.Scraper.MaxResults
			}

			logger := logging.Nop()
			if opts.dev {
				logger = logging.New(cfg.Log, true)
			}
			scrapers := scraper.NewScrapers(cfg.Scraper, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			start := time.Now()
			results := scrapers[r].Search(ctx, adapter.SearchRequest{
				Query:      strings.Join(args[1:], " "),
				Link:       link,
				MaxResults: maxResults,
			})
			printResults(cmd, r, results, time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVar(&link, "link", "", "shop link for the global search")
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "maximum number of results (default from config)")
	return cmd
}

func printResults(cmd *cobra.Command, r model.Resource, results []model.ResultRecord, took time.Duration) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(out, "%s: %d result(s)\n", r.Title(), len(results))
	for i, res := range results {
		title := res.Title
		if title == "" {
			title = "No Title"
		}
		price := res.Price
		if price == "" {
			price = "Unknown"
		}
		fmt.Fprintf(out, "%d. %s\n", i+1, title)
		fmt.Fprintf(out, "   %s\n", res.URL)
		green.Fprintf(out, "   %s\n", price)
	}
	yellow.Fprintf(out, "search time: %.2fs\n", took.Seconds())
}

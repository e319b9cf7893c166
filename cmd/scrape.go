package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
	"flipscan/arbworker/services/worker"
)

var (
	scrapeKeyword string
	scrapeOnce    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape Depop listings for a keyword",
	Long:  "Periodically scrapes Depop search results for the keyword and stores new listings as arbitrage candidates.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Default
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}

		ctx, stop := signalContext()
		defer stop()

		st, err := newStore(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer st.Close()

		depop := scraper.NewDepopScraper(newFetcher(cfg), cfg.DepopSearchURL, cfg.MaxItemsPerScrape)
		w := worker.NewWorker(depop, st, scrapeKeyword, cfg.ScrapeInterval, cfg.ScrapeJitter)

		log.Info().
			Str("keyword", scrapeKeyword).
			Bool("once", scrapeOnce).
			Dur("interval", cfg.ScrapeInterval).
			Msg("Starting scrape worker")

		if scrapeOnce {
			return w.RunOnce(ctx)
		}

		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("Shutting down gracefully")
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeKeyword, "keyword", "k", "", "search keyword (required)")
	scrapeCmd.MarkFlagRequired("keyword")
	scrapeCmd.Flags().BoolVar(&scrapeOnce, "once", false, "scrape once and exit")
	rootCmd.AddCommand(scrapeCmd)
}

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"flipscan/arbworker/internal/checker"
	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
)

var checkOnce bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check candidates against eBay sold prices",
	Long:  "Evaluates stored Depop listings against eBay sold listings. With --once it drains all stored listings and exits; otherwise it clears the backlog and then listens for new listings via pub/sub.",
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

		ebay := scraper.NewEbayScraper(newFetcher(cfg), cfg.EbaySearchURL)
		c := checker.New(st, ebay, cfg.MaxEbayResults)

		if checkOnce {
			log.Info().Msg("Running in once mode")
			return c.RunOnce(ctx)
		}

		log.Info().Msg("Running in service mode")
		if err := c.RunService(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("Shutting down gracefully")
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkOnce, "once", false, "process all stored listings once and exit")
	rootCmd.AddCommand(checkCmd)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flipscan/arbworker/config"
	"flipscan/arbworker/internal/fetch"
	"flipscan/arbworker/logger"
	"flipscan/arbworker/services/cache"
	"flipscan/arbworker/services/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "arbworker",
	Short: "Cross-marketplace arbitrage worker",
	Long:  "Scrapes Depop listings, benchmarks them against eBay sold prices and flags items resellable at a profit.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		godotenv.Load()
		logger.Init()
		cfg = config.LoadConfig()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newFetcher wires the retrieval channel: proxy client, retry policy and the
// memcache cooldown guard.
func newFetcher(cfg *config.Config) *fetch.RetryingFetcher {
	cacheSvc := cache.NewMemcacheService(cfg.MemcacheAddr)
	client := fetch.NewProxyClient(cfg.ScrapingBeeAPIKey, cfg.ScrapingBeeBaseURL, cfg.FetchRatePerMin)
	return fetch.NewRetryingFetcher(client, cfg.FetchMaxAttempts, cfg.FetchBackoff, cfg.FetchCooldown, cacheSvc)
}

// newStore connects to Redis and verifies the connection.
func newStore(ctx context.Context, cfg *config.Config) (*store.RedisStore, error) {
	st := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, err
	}
	logger.Info("Connected to Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	return st, nil
}

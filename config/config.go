package config

import (
	"os"
	"strconv"
	"time"

	apperr "flipscan/arbworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr string
	RedisDB   int

	// Memcache configuration (fetch cooldown cache)
	MemcacheAddr string

	// Retrieval channel (ScrapingBee-style HTML proxy)
	ScrapingBeeAPIKey  string
	ScrapingBeeBaseURL string

	// Fetch behavior
	FetchMaxAttempts int
	FetchBackoff     time.Duration
	FetchCooldown    time.Duration
	FetchRatePerMin  int

	// Marketplace endpoints
	DepopSearchURL string
	EbaySearchURL  string

	// Scrape scheduling
	ScrapeInterval    time.Duration
	ScrapeJitter      time.Duration
	MaxItemsPerScrape int

	// Arbitrage check
	MaxEbayResults int

	// Dashboard API
	APIAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxAttempts, _ := strconv.Atoi(getEnv("FETCH_MAX_ATTEMPTS", "3"))
	backoff, _ := strconv.Atoi(getEnv("FETCH_BACKOFF_SECONDS", "5"))
	cooldown, _ := strconv.Atoi(getEnv("FETCH_COOLDOWN_SECONDS", "300"))
	ratePerMin, _ := strconv.Atoi(getEnv("FETCH_RATE_PER_MINUTE", "10"))
	interval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "300"))
	jitter, _ := strconv.Atoi(getEnv("SCRAPE_JITTER_SECONDS", "60"))
	maxScrape, _ := strconv.Atoi(getEnv("MAX_ITEMS_PER_SCRAPE", "3"))
	maxEbay, _ := strconv.Atoi(getEnv("MAX_EBAY_RESULTS", "5"))

	return &Config{
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            redisDB,
		MemcacheAddr:       getEnv("MEMCACHE_ADDR", "localhost:11211"),
		ScrapingBeeAPIKey:  getEnv("SCRAPINGBEE_API_KEY", ""),
		ScrapingBeeBaseURL: getEnv("SCRAPINGBEE_BASE_URL", "https://app.scrapingbee.com/api/v1/"),
		FetchMaxAttempts:   maxAttempts,
		FetchBackoff:       time.Duration(backoff) * time.Second,
		FetchCooldown:      time.Duration(cooldown) * time.Second,
		FetchRatePerMin:    ratePerMin,
		DepopSearchURL:     getEnv("DEPOP_SEARCH_URL", "https://www.depop.com/search/"),
		EbaySearchURL:      getEnv("EBAY_SEARCH_URL", "https://www.ebay.com/sch/i.html"),
		ScrapeInterval:     time.Duration(interval) * time.Second,
		ScrapeJitter:       time.Duration(jitter) * time.Second,
		MaxItemsPerScrape:  maxScrape,
		MaxEbayResults:     maxEbay,
		APIAddr:            getEnv("API_ADDR", ":8080"),
		Environment:        getEnv("ARBWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable for scraping and checking.
// A missing proxy API key is fatal before any processing begins.
func (c *Config) Validate() error {
	if c.ScrapingBeeAPIKey == "" {
		return apperr.NewConfiguration("SCRAPINGBEE_API_KEY is not set", nil)
	}
	if c.FetchMaxAttempts < 1 {
		return apperr.NewConfiguration("FETCH_MAX_ATTEMPTS must be at least 1", nil)
	}
	if c.MaxEbayResults < 1 {
		return apperr.NewConfiguration("MAX_EBAY_RESULTS must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

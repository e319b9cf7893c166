package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"flipscan/arbworker/logger"
	apperr "flipscan/arbworker/pkg/errors"
	"flipscan/arbworker/services/cache"
)

// Fetcher retrieves raw markup for a target URL, retrying internally.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string, opts Options) (string, error)
}

// RetryingFetcher wraps a Client with bounded retries and linear backoff.
// When the channel rate-limits a host, a cooldown marker in the cache blocks
// further requests to that host until it expires.
type RetryingFetcher struct {
	client      Client
	maxAttempts int
	backoff     time.Duration // delay before attempt n+1 is n × backoff
	cooldown    time.Duration
	cache       cache.CacheService
	log         *logger.Logger
}

// NewRetryingFetcher creates a retrying fetcher. cacheSvc may be nil, which
// disables the cooldown guard.
func NewRetryingFetcher(client Client, maxAttempts int, backoff, cooldown time.Duration, cacheSvc cache.CacheService) *RetryingFetcher {
	return &RetryingFetcher{
		client:      client,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		cooldown:    cooldown,
		cache:       cacheSvc,
		log:         logger.ForFetcher(),
	}
}

// Fetch retrieves the target URL, retrying up to the configured maximum with
// linear backoff. A successful attempt short-circuits remaining retries; an
// exhausted sequence fails with a FetchError carrying the last observed
// status and the attempt count.
func (f *RetryingFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (string, error) {
	host := hostOf(targetURL)
	cooldownKey := "fetch_cooldown:" + host

	if f.cache != nil {
		if _, err := f.cache.Get(cooldownKey); err == nil {
			return "", apperr.NewRateLimit(host, f.cooldown)
		}
	}

	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, err := f.client.Fetch(ctx, targetURL, opts)
		if err == nil {
			return string(body), nil
		}
		lastErr = err

		lastStatus = 0
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			lastStatus = statusErr.Status
		}

		f.log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", f.maxAttempts).
			Int("status", lastStatus).
			Str("url", targetURL).
			Msg("Fetch attempt failed")

		if lastStatus == http.StatusTooManyRequests && f.cache != nil {
			f.cache.Set(cooldownKey, []byte(fmt.Sprintf("%d", f.cooldown/time.Second)), f.cooldown)
		}

		if attempt < f.maxAttempts {
			delay := time.Duration(attempt) * f.backoff
			f.log.Info().
				Dur("delay", delay).
				Msg("Retrying fetch")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", apperr.NewFetchExhausted(lastStatus, f.maxAttempts, lastErr)
}

// hostOf extracts the host for cooldown keying; falls back to the raw URL
// when it cannot be parsed.
func hostOf(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return targetURL
	}
	return u.Host
}

// Package worker schedules periodic source-marketplace scrapes and stores
// newly discovered candidates.
package worker

import (
	"context"
	"math/rand"
	"time"

	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
	"flipscan/arbworker/services/store"
)

// Worker runs the scrape loop for one search keyword
type Worker struct {
	scraper  scraper.SourceScraper
	store    store.Store
	keyword  string
	interval time.Duration
	jitter   time.Duration
	log      *logger.Logger
}

// NewWorker creates a scrape worker
func NewWorker(src scraper.SourceScraper, st store.Store, keyword string, interval, jitter time.Duration) *Worker {
	return &Worker{
		scraper:  src,
		store:    st,
		keyword:  keyword,
		interval: interval,
		jitter:   jitter,
		log:      logger.ForWorker(),
	}
}

// RunOnce performs a single scrape and returns.
func (w *Worker) RunOnce(ctx context.Context) error {
	return w.runScrape(ctx)
}

// Start runs the scrape loop until ctx is done. Each iteration waits the
// configured interval plus random jitter so the target sees no fixed cadence.
// Scrape failures are logged and the loop continues.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.runScrape(ctx); err != nil {
		w.log.Error().Err(err).Msg("Scrape failed")
	}

	for {
		delay := w.interval
		if w.jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(w.jitter)))
		}

		w.log.Info().
			Dur("delay", delay).
			Msg("Next scrape scheduled")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := w.runScrape(ctx); err != nil {
			w.log.Error().Err(err).Msg("Scrape failed")
		}
	}
}

// runScrape scrapes once and stores candidates not yet seen for the keyword.
func (w *Worker) runScrape(ctx context.Context) error {
	start := time.Now()
	w.log.Info().Str("keyword", w.keyword).Msg("Starting scrape")

	candidates, err := w.scraper.Scrape(ctx, w.keyword)
	if err != nil {
		return err
	}

	stored := 0
	for _, candidate := range candidates {
		seen, err := w.store.IsSeen(ctx, candidate.Keyword, candidate.URL)
		if err != nil {
			w.log.Error().Err(err).Str("url", candidate.URL).Msg("Seen check failed")
			continue
		}
		if seen {
			w.log.Debug().Str("title", candidate.Title).Msg("Skipping duplicate")
			continue
		}

		if err := w.store.SaveCandidate(ctx, candidate); err != nil {
			w.log.Error().Err(err).Str("title", candidate.Title).Msg("Failed to store candidate")
			continue
		}
		if err := w.store.MarkSeen(ctx, candidate.Keyword, candidate.URL); err != nil {
			w.log.Error().Err(err).Str("url", candidate.URL).Msg("Failed to mark seen")
		}
		stored++
	}

	w.log.Info().
		Int("scraped", len(candidates)).
		Int("stored", stored).
		Dur("elapsed", time.Since(start)).
		Msg("Scrape finished")

	return nil
}

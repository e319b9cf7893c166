package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"flipscan/arbworker/internal/fetch"
	"flipscan/arbworker/internal/pricing"
	"flipscan/arbworker/logger"
)

// DepopScraper scrapes purchase candidates from Depop keyword searches.
// Depop renders listings client-side, so the retrieval goes through the
// proxy with JS rendering and an explicit wait.
type DepopScraper struct {
	fetcher   fetch.Fetcher
	searchURL string
	maxItems  int
	log       *logger.Logger
}

// NewDepopScraper creates a Depop source scraper
func NewDepopScraper(fetcher fetch.Fetcher, searchURL string, maxItems int) *DepopScraper {
	return &DepopScraper{
		fetcher:   fetcher,
		searchURL: searchURL,
		maxItems:  maxItems,
		log:       logger.ForScraper("depop"),
	}
}

// Scrape retrieves the search page for the keyword and extracts up to the
// configured number of candidates.
func (s *DepopScraper) Scrape(ctx context.Context, keyword string) ([]Candidate, error) {
	target := fmt.Sprintf("%s?q=%s", strings.TrimSuffix(s.searchURL, "?"), url.QueryEscape(keyword))

	s.log.Info().
		Str("keyword", keyword).
		Str("url", target).
		Msg("Scraping Depop listings")

	markup, err := s.fetcher.Fetch(ctx, target, fetch.Options{
		RenderJS: true,
		WaitMS:   3000,
	})
	if err != nil {
		return nil, err
	}

	items := ExtractItems(markup, DepopExtractor(), s.maxItems)
	now := time.Now().UnixMilli()

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		_, currency := pricing.ParseRaw(item.PriceText)
		candidates = append(candidates, Candidate{
			ID:        item.ID,
			Title:     item.Title,
			Price:     item.PriceText,
			Currency:  currency,
			URL:       item.URL,
			ImageURL:  item.ImageURL,
			ScrapedAt: now,
			Keyword:   keyword,
		})
	}

	s.log.Info().
		Int("count", len(candidates)).
		Str("keyword", keyword).
		Msg("Extracted Depop candidates")

	return candidates, nil
}

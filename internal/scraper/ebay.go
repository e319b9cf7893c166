package scraper

import (
	"context"
	"fmt"
	"net/url"

	"flipscan/arbworker/internal/fetch"
	"flipscan/arbworker/internal/pricing"
	"flipscan/arbworker/logger"
)

// EbayScraper searches eBay sold/completed listings as the reference price
// benchmark. The search pages are server-rendered, so JS rendering stays off
// but premium and stealth proxying are required to get past bot detection.
type EbayScraper struct {
	fetcher   fetch.Fetcher
	searchURL string
	log       *logger.Logger
}

// NewEbayScraper creates an eBay reference scraper
func NewEbayScraper(fetcher fetch.Fetcher, searchURL string) *EbayScraper {
	return &EbayScraper{
		fetcher:   fetcher,
		searchURL: searchURL,
		log:       logger.ForScraper("ebay"),
	}
}

// Search retrieves sold listings matching the query, up to maxItems.
func (s *EbayScraper) Search(ctx context.Context, query string, maxItems int) ([]SoldListing, error) {
	target := fmt.Sprintf("%s?_nkw=%s&LH_Sold=1&LH_Complete=1&_ipg=60", s.searchURL, url.QueryEscape(query))

	s.log.Info().
		Str("query", query).
		Str("url", target).
		Msg("Scraping eBay sold listings")

	markup, err := s.fetcher.Fetch(ctx, target, fetch.Options{
		PremiumProxy: true,
		StealthProxy: true,
	})
	if err != nil {
		return nil, err
	}

	items := ExtractItems(markup, EbaySoldExtractor(), maxItems)

	listings := make([]SoldListing, 0, len(items))
	for _, item := range items {
		value, currency := pricing.ParseRaw(item.PriceText)
		listings = append(listings, SoldListing{
			ID:       item.ID,
			Title:    item.Title,
			Price:    value,
			Currency: currency,
			SoldDate: item.SoldDate,
			URL:      item.URL,
			ImageURL: item.ImageURL,
		})
	}

	s.log.Info().
		Int("count", len(listings)).
		Str("query", query).
		Msg("Extracted eBay sold listings")

	return listings, nil
}

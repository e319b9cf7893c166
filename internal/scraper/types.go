package scraper

import (
	"context"

	"flipscan/arbworker/internal/pricing"
)

// Candidate represents a purchase-side listing scraped from the source
// marketplace. Immutable once created; re-scraping the same URL yields the
// same identity because the hash covers the canonical URL only.
type Candidate struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Price     string           `json:"price"` // raw price text as displayed
	Currency  pricing.Currency `json:"currency"`
	URL       string           `json:"url"`
	ImageURL  string           `json:"imageUrl"`
	ScrapedAt int64            `json:"scrapedAt"` // unix milliseconds
	Keyword   string           `json:"keyword"`
}

// SoldListing represents a completed-sale record from the reference
// marketplace, used as a price benchmark. Ephemeral: produced per comparison
// request and only persisted as part of an opportunity snapshot.
type SoldListing struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    float64          `json:"price"`
	Currency pricing.Currency `json:"currency"`
	SoldDate string           `json:"soldDate"` // free-form, unparsed
	URL      string           `json:"url"`
	ImageURL string           `json:"imageUrl"`
}

// SourceScraper retrieves purchase candidates for a search keyword
type SourceScraper interface {
	Scrape(ctx context.Context, keyword string) ([]Candidate, error)
}

// ReferenceSearcher retrieves sold records matching a search query
type ReferenceSearcher interface {
	Search(ctx context.Context, query string, maxItems int) ([]SoldListing, error)
}

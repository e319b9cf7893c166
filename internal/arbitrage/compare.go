// Package arbitrage turns a purchase candidate plus a set of reference sold
// records into a profit verdict, and materializes the persisted records that
// follow from it.
package arbitrage

import (
	"time"

	"flipscan/arbworker/internal/pricing"
	"flipscan/arbworker/internal/scraper"
)

// Result is the terminal outcome of one candidate check
type Result string

const (
	ResultOpportunity   Result = "opportunity"
	ResultNoOpportunity Result = "no_opportunity"
	ResultError         Result = "error"
)

// Verdict is the outcome of comparing one candidate against a reference set
type Verdict struct {
	IsOpportunity         bool
	CandidatePriceUSD     float64
	BestReferencePriceUSD float64
	ProfitAbsolute        float64
	ProfitMargin          float64
	BestMatch             *scraper.SoldListing
}

// Opportunity is a persisted verdict that a candidate can be resold at a
// profit, denormalized with both sides' snapshot so it renders without
// further lookups.
type Opportunity struct {
	ID             string           `json:"id"`
	DepopListingID string           `json:"depopListingId"`
	DepopTitle     string           `json:"depopTitle"`
	DepopPrice     float64          `json:"depopPrice"`
	DepopCurrency  pricing.Currency `json:"depopCurrency"`
	DepopURL       string           `json:"depopUrl"`
	DepopImageURL  string           `json:"depopImageUrl"`
	EbayTitle      string           `json:"ebayTitle"`
	EbayPrice      float64          `json:"ebayPrice"`
	EbayCurrency   pricing.Currency `json:"ebayCurrency"`
	EbayURL        string           `json:"ebayUrl"`
	EbaySoldDate   string           `json:"ebaySoldDate"`
	ProfitMargin   float64          `json:"profitMargin"`
	ProfitAbsolute float64          `json:"profitAbsolute"`
	CreatedAt      int64            `json:"createdAt"` // unix milliseconds
}

// CheckResult is the write-once marker recording that a candidate was
// evaluated and how. Its existence is the dedup guard preventing
// reprocessing.
type CheckResult struct {
	DepopListingID string `json:"depopListingId"`
	CheckedAt      int64  `json:"checkedAt"` // unix milliseconds
	Result         Result `json:"result"`
	Reason         string `json:"reason,omitempty"`
	OpportunityID  string `json:"opportunityId,omitempty"`
}

// Compare selects the best reference record and computes profitability. An
// empty reference set is not an error; it yields a no-opportunity verdict
// with a nil best match. Ties on the normalized price go to the earlier
// record.
func Compare(candidate scraper.Candidate, refs []scraper.SoldListing) Verdict {
	value, currency := pricing.ParseRaw(candidate.Price)
	candidateUSD := pricing.ToUSD(value, currency)

	if len(refs) == 0 {
		return Verdict{CandidatePriceUSD: candidateUSD}
	}

	bestIdx := 0
	bestUSD := pricing.ToUSD(refs[0].Price, refs[0].Currency)
	for i := 1; i < len(refs); i++ {
		usd := pricing.ToUSD(refs[i].Price, refs[i].Currency)
		if usd > bestUSD {
			bestIdx, bestUSD = i, usd
		}
	}

	profit := bestUSD - candidateUSD
	margin := 0.0
	if candidateUSD > 0 {
		margin = profit / candidateUSD * 100
	}

	best := refs[bestIdx]
	return Verdict{
		IsOpportunity:         profit > 0,
		CandidatePriceUSD:     candidateUSD,
		BestReferencePriceUSD: bestUSD,
		ProfitAbsolute:        profit,
		ProfitMargin:          margin,
		BestMatch:             &best,
	}
}

// NewOpportunity materializes an opportunity record from a positive verdict.
func NewOpportunity(candidate scraper.Candidate, best scraper.SoldListing, verdict Verdict) Opportunity {
	value, currency := pricing.ParseRaw(candidate.Price)
	return Opportunity{
		ID:             scraper.PairID(candidate.ID, best.ID),
		DepopListingID: candidate.ID,
		DepopTitle:     candidate.Title,
		DepopPrice:     value,
		DepopCurrency:  currency,
		DepopURL:       candidate.URL,
		DepopImageURL:  candidate.ImageURL,
		EbayTitle:      best.Title,
		EbayPrice:      best.Price,
		EbayCurrency:   best.Currency,
		EbayURL:        best.URL,
		EbaySoldDate:   best.SoldDate,
		ProfitMargin:   verdict.ProfitMargin,
		ProfitAbsolute: verdict.ProfitAbsolute,
		CreatedAt:      time.Now().UnixMilli(),
	}
}

// NewCheckResult records the terminal outcome of one candidate check.
func NewCheckResult(candidateID string, result Result, reason, opportunityID string) CheckResult {
	return CheckResult{
		DepopListingID: candidateID,
		CheckedAt:      time.Now().UnixMilli(),
		Result:         result,
		Reason:         reason,
		OpportunityID:  opportunityID,
	}
}

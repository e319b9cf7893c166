// Package store persists candidates, check outcomes and opportunities, and
// carries the two notification channels between the scraper and the checker.
//
// The checked-marker guard is a read-then-write check, not a transactional
// claim: run exactly one checker instance against a given store.
package store

import (
	"context"

	"flipscan/arbworker/internal/arbitrage"
	"flipscan/arbworker/internal/scraper"
)

// Notification channels shared with the dashboard and between services.
const (
	ChannelNewListing     = "depop:new_listing"
	ChannelNewOpportunity = "arbitrage:new_opportunity"
)

// Store represents the persistence and notification backend
type Store interface {
	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// SaveCandidate stores a candidate and announces it on the listing channel
	SaveCandidate(ctx context.Context, candidate scraper.Candidate) error

	// GetCandidate retrieves a candidate by identity; nil when absent
	GetCandidate(ctx context.Context, id string) (*scraper.Candidate, error)

	// ListCandidates returns all stored candidates, newest first
	ListCandidates(ctx context.Context) ([]scraper.Candidate, error)

	// IsSeen reports whether a listing URL was already scraped for a keyword
	IsSeen(ctx context.Context, keyword, url string) (bool, error)

	// MarkSeen records a listing URL in the keyword's seen set
	MarkSeen(ctx context.Context, keyword, url string) error

	// IsChecked reports whether a candidate already has a terminal outcome
	IsChecked(ctx context.Context, candidateID string) (bool, error)

	// GetOutcome retrieves a candidate's check outcome; nil when absent
	GetOutcome(ctx context.Context, candidateID string) (*arbitrage.CheckResult, error)

	// MarkChecked writes a candidate's terminal outcome
	MarkChecked(ctx context.Context, result arbitrage.CheckResult) error

	// SaveOpportunity stores an opportunity and announces it on the
	// opportunity channel
	SaveOpportunity(ctx context.Context, opportunity arbitrage.Opportunity) error

	// ListOpportunities returns all stored opportunities, newest first
	ListOpportunities(ctx context.Context) ([]arbitrage.Opportunity, error)

	// SubscribeNewListings delivers candidates announced on the listing
	// channel until ctx is done
	SubscribeNewListings(ctx context.Context) (<-chan scraper.Candidate, error)

	// Close closes the backend connection
	Close() error
}

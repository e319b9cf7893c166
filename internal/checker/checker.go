// Package checker drives the per-candidate arbitrage pipeline: fetch the
// reference marketplace, extract sold records, compare prices and record a
// terminal outcome. Candidates are processed strictly one at a time because
// the retrieval channel is rate-sensitive.
package checker

import (
	"context"
	"fmt"

	"flipscan/arbworker/internal/arbitrage"
	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
	"flipscan/arbworker/services/store"
)

// IntakeSource tags how a candidate reached the checker
type IntakeSource string

const (
	// SourceBacklog marks candidates drained from storage at startup
	SourceBacklog IntakeSource = "backlog"
	// SourceLive marks candidates delivered by the notification channel
	SourceLive IntakeSource = "live"
)

// Intake is one candidate delivery. Backlog and live deliveries are
// consumed identically, so the at-most-once-per-identity guarantee holds
// regardless of which path delivered the candidate.
type Intake struct {
	Source    IntakeSource
	Candidate scraper.Candidate
}

// Checker evaluates candidates against the reference marketplace
type Checker struct {
	store      store.Store
	reference  scraper.ReferenceSearcher
	maxResults int
	log        *logger.Logger
}

// New creates a checker. maxResults bounds how many reference records one
// check retrieves.
func New(st store.Store, reference scraper.ReferenceSearcher, maxResults int) *Checker {
	return &Checker{
		store:      st,
		reference:  reference,
		maxResults: maxResults,
		log:        logger.ForChecker(),
	}
}

// Process evaluates one candidate to a terminal outcome. A candidate that
// already has an outcome is skipped. Fetch exhaustion and unexpected
// failures are recorded as an error outcome, never raised, so one bad
// candidate cannot abort a batch. The returned error reports store failures
// only.
func (c *Checker) Process(ctx context.Context, intake Intake) (err error) {
	candidate := intake.Candidate
	log := c.log.WithFields(logger.Fields{
		"candidate_id": candidate.ID,
		"title":        candidate.Title,
		"source":       string(intake.Source),
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Unexpected failure during check")
			err = c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
				candidate.ID, arbitrage.ResultError, fmt.Sprintf("unexpected failure: %v", r), ""))
		}
	}()

	checked, err := c.store.IsChecked(ctx, candidate.ID)
	if err != nil {
		return err
	}
	if checked {
		log.Debug().Msg("Already checked, skipping")
		return nil
	}

	log.Info().Str("price", candidate.Price).Msg("Checking candidate")

	refs, err := c.reference.Search(ctx, candidate.Title, c.maxResults)
	if err != nil {
		log.Error().Err(err).Msg("Reference search failed")
		return c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
			candidate.ID, arbitrage.ResultError, err.Error(), ""))
	}

	if len(refs) == 0 {
		log.Info().Msg("No reference results")
		return c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
			candidate.ID, arbitrage.ResultNoOpportunity, "No eBay results", ""))
	}

	verdict := arbitrage.Compare(candidate, refs)

	log.Info().
		Float64("candidate_usd", verdict.CandidatePriceUSD).
		Float64("best_reference_usd", verdict.BestReferencePriceUSD).
		Float64("profit_absolute", verdict.ProfitAbsolute).
		Float64("profit_margin", verdict.ProfitMargin).
		Msg("Compared prices")

	if verdict.IsOpportunity && verdict.BestMatch != nil {
		opportunity := arbitrage.NewOpportunity(candidate, *verdict.BestMatch, verdict)
		if err := c.store.SaveOpportunity(ctx, opportunity); err != nil {
			log.Error().Err(err).Msg("Failed to store opportunity")
			return c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
				candidate.ID, arbitrage.ResultError, err.Error(), ""))
		}

		log.Info().Str("opportunity_id", opportunity.ID).Msg("Opportunity found")
		return c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
			candidate.ID, arbitrage.ResultOpportunity, "", opportunity.ID))
	}

	log.Info().Msg("No arbitrage opportunity")
	return c.store.MarkChecked(ctx, arbitrage.NewCheckResult(
		candidate.ID, arbitrage.ResultNoOpportunity, "No profit margin", ""))
}

// RunOnce processes every stored candidate, newest first, then returns.
func (c *Checker) RunOnce(ctx context.Context) error {
	candidates, err := c.store.ListCandidates(ctx)
	if err != nil {
		return err
	}

	c.log.Info().Int("count", len(candidates)).Msg("Processing stored candidates")
	if len(candidates) == 0 {
		c.log.Info().Msg("No candidates found; run the scraper first")
		return nil
	}

	for _, candidate := range candidates {
		// Shutdown lands between candidates; an in-flight check runs to
		// completion first.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.Process(ctx, Intake{Source: SourceBacklog, Candidate: candidate}); err != nil {
			c.log.Error().Err(err).Str("candidate_id", candidate.ID).Msg("Failed to record outcome")
		}
	}

	c.log.Info().Msg("Finished processing all candidates")
	return nil
}

// RunService drains the unchecked backlog, then consumes live notifications
// until ctx is done.
func (c *Checker) RunService(ctx context.Context) error {
	candidates, err := c.store.ListCandidates(ctx)
	if err != nil {
		return err
	}

	backlog := 0
	for _, candidate := range candidates {
		checked, err := c.store.IsChecked(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if checked {
			continue
		}
		backlog++
		if err := c.Process(ctx, Intake{Source: SourceBacklog, Candidate: candidate}); err != nil {
			c.log.Error().Err(err).Str("candidate_id", candidate.ID).Msg("Failed to record outcome")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if backlog > 0 {
		c.log.Info().Int("count", backlog).Msg("Backlog cleared")
	} else {
		c.log.Info().Msg("No backlog, all existing candidates already checked")
	}

	events, err := c.store.SubscribeNewListings(ctx)
	if err != nil {
		return err
	}

	c.log.Info().Str("channel", store.ChannelNewListing).Msg("Waiting for new candidates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candidate, ok := <-events:
			if !ok {
				return nil
			}
			c.log.Info().Str("title", candidate.Title).Msg("New candidate received")
			if err := c.Process(ctx, Intake{Source: SourceLive, Candidate: candidate}); err != nil {
				c.log.Error().Err(err).Str("candidate_id", candidate.ID).Msg("Failed to record outcome")
			}
		}
	}
}

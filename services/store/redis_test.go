package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipscan/arbworker/internal/arbitrage"
	"flipscan/arbworker/internal/scraper"
)

// These tests require a local Redis. They use DB 9 and flush it, so never
// point them at a shared instance.
func testStore(t *testing.T) *RedisStore {
	t.Helper()
	st := NewRedisStore("localhost:6379", 9)

	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		st.Close()
		t.Skip("Redis is not available, skipping test")
	}

	require.NoError(t, st.client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		st.client.FlushDB(context.Background())
		st.Close()
	})
	return st
}

func testCandidate(slug string, scrapedAt int64) scraper.Candidate {
	url := "https://www.depop.com/products/" + slug + "/"
	return scraper.Candidate{
		ID:        scraper.NewID(url),
		Title:     slug,
		Price:     "£25.00",
		Currency:  "GBP",
		URL:       url,
		ScrapedAt: scrapedAt,
		Keyword:   "vintage jacket",
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cand := testCandidate("item-a", 1000)
	require.NoError(t, st.SaveCandidate(ctx, cand))

	got, err := st.GetCandidate(ctx, cand.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cand, *got)

	missing, err := st.GetCandidate(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListCandidatesNewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCandidate(ctx, testCandidate("older", 1000)))
	require.NoError(t, st.SaveCandidate(ctx, testCandidate("newer", 2000)))

	candidates, err := st.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "newer", candidates[0].Title)
	assert.Equal(t, "older", candidates[1].Title)
}

func TestSeenSet(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seen, err := st.IsSeen(ctx, "vintage jacket", "https://www.depop.com/products/item-a/")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, st.MarkSeen(ctx, "vintage jacket", "https://www.depop.com/products/item-a/"))

	seen, err = st.IsSeen(ctx, "vintage jacket", "https://www.depop.com/products/item-a/")
	require.NoError(t, err)
	assert.True(t, seen)

	// Seen sets are scoped per keyword.
	seen, err = st.IsSeen(ctx, "nike dunk", "https://www.depop.com/products/item-a/")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestCheckedMarker(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	checked, err := st.IsChecked(ctx, "cand-1")
	require.NoError(t, err)
	assert.False(t, checked)

	res := arbitrage.NewCheckResult("cand-1", arbitrage.ResultNoOpportunity, "No profit margin", "")
	require.NoError(t, st.MarkChecked(ctx, res))

	checked, err = st.IsChecked(ctx, "cand-1")
	require.NoError(t, err)
	assert.True(t, checked)

	got, err := st.GetOutcome(ctx, "cand-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res, *got)

	absent, err := st.GetOutcome(ctx, "cand-2")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestOpportunityRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	opp := arbitrage.Opportunity{
		ID:             "opp-1",
		DepopListingID: "cand-1",
		DepopTitle:     "Vintage jacket",
		DepopPrice:     25,
		DepopCurrency:  "GBP",
		EbayTitle:      "Sold jacket",
		EbayPrice:      45,
		EbayCurrency:   "USD",
		ProfitAbsolute: 13.25,
		ProfitMargin:   41.73,
		CreatedAt:      2000,
	}
	require.NoError(t, st.SaveOpportunity(ctx, opp))

	older := opp
	older.ID = "opp-0"
	older.CreatedAt = 1000
	require.NoError(t, st.SaveOpportunity(ctx, older))

	opportunities, err := st.ListOpportunities(ctx)
	require.NoError(t, err)
	require.Len(t, opportunities, 2)
	assert.Equal(t, "opp-1", opportunities[0].ID)
	assert.Equal(t, "opp-0", opportunities[1].ID)
}

func TestSubscribeNewListings(t *testing.T) {
	st := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := st.SubscribeNewListings(ctx)
	require.NoError(t, err)

	cand := testCandidate("live-item", 3000)
	require.NoError(t, st.SaveCandidate(ctx, cand))

	select {
	case got := <-events:
		assert.Equal(t, cand, got)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for published candidate")
	}

	// Cancellation closes the delivery channel.
	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for channel close")
	}
}

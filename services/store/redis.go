package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"flipscan/arbworker/internal/arbitrage"
	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
)

// Key scheme shared with the dashboard.
const (
	keyListingPrefix     = "depop:listing:"
	keySeenPrefix        = "depop:seen:"
	keyCheckedPrefix     = "arbitrage:checked:"
	keyOpportunityPrefix = "arbitrage:opportunity:"
)

// RedisStore implements Store using Redis key-value storage and pub/sub
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(addr string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisStore{
		client: client,
		log:    logger.ForStore(),
	}
}

// Ping verifies the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveCandidate stores a candidate and publishes it on the listing channel
func (s *RedisStore) SaveCandidate(ctx context.Context, candidate scraper.Candidate) error {
	data, err := json.Marshal(candidate)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, keyListingPrefix+candidate.ID, data, 0).Err(); err != nil {
		return err
	}

	subscribers, err := s.client.Publish(ctx, ChannelNewListing, data).Result()
	if err != nil {
		return err
	}

	s.log.Info().
		Str("title", candidate.Title).
		Str("price", candidate.Price).
		Int64("subscribers", subscribers).
		Msg("Stored candidate")

	return nil
}

// GetCandidate retrieves a candidate by identity; nil when absent
func (s *RedisStore) GetCandidate(ctx context.Context, id string) (*scraper.Candidate, error) {
	data, err := s.client.Get(ctx, keyListingPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var candidate scraper.Candidate
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// ListCandidates returns all stored candidates, newest first
func (s *RedisStore) ListCandidates(ctx context.Context) ([]scraper.Candidate, error) {
	keys, err := s.client.Keys(ctx, keyListingPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]scraper.Candidate, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var candidate scraper.Candidate
		if err := json.Unmarshal(data, &candidate); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to parse stored candidate")
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ScrapedAt > candidates[j].ScrapedAt
	})

	return candidates, nil
}

// IsSeen reports whether a listing URL was already scraped for a keyword
func (s *RedisStore) IsSeen(ctx context.Context, keyword, url string) (bool, error) {
	return s.client.SIsMember(ctx, keySeenPrefix+keyword, url).Result()
}

// MarkSeen records a listing URL in the keyword's seen set
func (s *RedisStore) MarkSeen(ctx context.Context, keyword, url string) error {
	return s.client.SAdd(ctx, keySeenPrefix+keyword, url).Err()
}

// IsChecked reports whether a candidate already has a terminal outcome
func (s *RedisStore) IsChecked(ctx context.Context, candidateID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyCheckedPrefix+candidateID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetOutcome retrieves a candidate's check outcome; nil when absent
func (s *RedisStore) GetOutcome(ctx context.Context, candidateID string) (*arbitrage.CheckResult, error) {
	data, err := s.client.Get(ctx, keyCheckedPrefix+candidateID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result arbitrage.CheckResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkChecked writes a candidate's terminal outcome
func (s *RedisStore) MarkChecked(ctx context.Context, result arbitrage.CheckResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, keyCheckedPrefix+result.DepopListingID, data, 0).Err(); err != nil {
		return err
	}

	s.log.Info().
		Str("candidate_id", result.DepopListingID).
		Str("result", string(result.Result)).
		Msg("Marked candidate as checked")

	return nil
}

// SaveOpportunity stores an opportunity and publishes it on the opportunity
// channel
func (s *RedisStore) SaveOpportunity(ctx context.Context, opportunity arbitrage.Opportunity) error {
	data, err := json.Marshal(opportunity)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, keyOpportunityPrefix+opportunity.ID, data, 0).Err(); err != nil {
		return err
	}

	if err := s.client.Publish(ctx, ChannelNewOpportunity, data).Err(); err != nil {
		return err
	}

	s.log.Info().
		Str("candidate_title", opportunity.DepopTitle).
		Str("reference_title", opportunity.EbayTitle).
		Float64("profit_absolute", opportunity.ProfitAbsolute).
		Float64("profit_margin", opportunity.ProfitMargin).
		Msg("Stored opportunity")

	return nil
}

// ListOpportunities returns all stored opportunities, newest first
func (s *RedisStore) ListOpportunities(ctx context.Context) ([]arbitrage.Opportunity, error) {
	keys, err := s.client.Keys(ctx, keyOpportunityPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	opportunities := make([]arbitrage.Opportunity, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var opportunity arbitrage.Opportunity
		if err := json.Unmarshal(data, &opportunity); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to parse stored opportunity")
			continue
		}
		opportunities = append(opportunities, opportunity)
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].CreatedAt > opportunities[j].CreatedAt
	})

	return opportunities, nil
}

// SubscribeNewListings delivers candidates from the listing channel until
// ctx is done. Unparseable messages are logged and dropped.
func (s *RedisStore) SubscribeNewListings(ctx context.Context) (<-chan scraper.Candidate, error) {
	pubsub := s.client.Subscribe(ctx, ChannelNewListing)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan scraper.Candidate)
	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var candidate scraper.Candidate
				if err := json.Unmarshal([]byte(msg.Payload), &candidate); err != nil {
					s.log.Error().Err(err).Msg("Failed to parse pub/sub message")
					continue
				}
				select {
				case out <- candidate:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

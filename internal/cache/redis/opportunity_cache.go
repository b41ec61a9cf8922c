package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

const opportunityTTL = 5 * time.Minute

// OpportunityCache implements domain.OpportunityCache. The latest cycle's
// ranked opportunity list is stored as one JSON blob and swapped atomically,
// so readers always see a complete cycle's output.
//
// Key schema:
//
//	opportunities:current    - JSON array of the latest cycle's opportunities
//	opportunities:updated_at - RFC 3339 timestamp of the last swap
type OpportunityCache struct {
	rdb *redis.Client
}

// NewOpportunityCache creates an OpportunityCache backed by the given Client.
func NewOpportunityCache(c *Client) *OpportunityCache {
	return &OpportunityCache{rdb: c.Underlying()}
}

const (
	currentKey   = "opportunities:current"
	updatedAtKey = "opportunities:updated_at"
)

// SetCurrent replaces the cached opportunity list and its timestamp in one
// transaction, with a TTL so stale data ages out if the monitor dies.
func (oc *OpportunityCache) SetCurrent(ctx context.Context, opps []domain.ArbitrageOpportunity, updatedAt time.Time) error {
	data, err := json.Marshal(opps)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunities: %w", err)
	}

	pipe := oc.rdb.TxPipeline()
	pipe.Set(ctx, currentKey, data, opportunityTTL)
	pipe.Set(ctx, updatedAtKey, updatedAt.UTC().Format(time.RFC3339Nano), opportunityTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set current opportunities: %w", err)
	}
	return nil
}

// GetCurrent returns the cached opportunity list and its last-updated time.
// It returns domain.ErrNotFound when no cycle has been cached yet or the
// entry has expired.
func (oc *OpportunityCache) GetCurrent(ctx context.Context) ([]domain.ArbitrageOpportunity, time.Time, error) {
	data, err := oc.rdb.Get(ctx, currentKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("redis: get current opportunities: %w", err)
	}

	var opps []domain.ArbitrageOpportunity
	if err := json.Unmarshal(data, &opps); err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: unmarshal opportunities: %w", err)
	}

	var updatedAt time.Time
	raw, err := oc.rdb.Get(ctx, updatedAtKey).Result()
	if err == nil {
		updatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	} else if !errors.Is(err, redis.Nil) {
		return nil, time.Time{}, fmt.Errorf("redis: get opportunities timestamp: %w", err)
	}
	return opps, updatedAt, nil
}

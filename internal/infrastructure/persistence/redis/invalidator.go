package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/trust"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRUST SCORE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// TrustScoreKey returns the cache key for a computed content score.
func TrustScoreKey(userID graph.UserID, contentID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixTrustScore, userID, contentID)
}

// TrustScoreCache caches computed trust scores per (user, content) pair.
// The short TTL bounds staleness against new interactions.
type TrustScoreCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewTrustScoreCache creates a new TrustScoreCache. A zero ttl falls back to
// TTLTrustScoreCache.
func NewTrustScoreCache(cache *Cache, ttl time.Duration) *TrustScoreCache {
	if ttl <= 0 {
		ttl = TTLTrustScoreCache
	}
	return &TrustScoreCache{cache: cache, ttl: ttl}
}

// Get returns the cached score, or ErrCacheMiss.
func (t *TrustScoreCache) Get(ctx context.Context, userID graph.UserID, contentID string) (*trust.TrustScoreResult, error) {
	var result trust.TrustScoreResult
	if err := t.cache.Get(ctx, TrustScoreKey(userID, contentID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Set caches a computed score.
func (t *TrustScoreCache) Set(ctx context.Context, userID graph.UserID, result *trust.TrustScoreResult) error {
	if result == nil {
		return nil
	}
	return t.cache.Set(ctx, TrustScoreKey(userID, result.ContentID), result, t.ttl)
}

// ══════════════════════════════════════════════════════════════════════════════
// INVALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// Invalidator bundles the per-user cache invalidations triggered by graph
// and profile mutations.
type Invalidator struct {
	profiles *ProfileCache
	weights  *TrustWeightCache
}

// NewInvalidator creates an Invalidator over the two caches.
func NewInvalidator(profiles *ProfileCache, weights *TrustWeightCache) *Invalidator {
	return &Invalidator{profiles: profiles, weights: weights}
}

// InvalidateProfile drops the cached profile for a user.
func (i *Invalidator) InvalidateProfile(ctx context.Context, userID graph.UserID) error {
	return i.profiles.Invalidate(ctx, userID)
}

// InvalidateTrustWeights drops cached pairwise weights involving a user.
func (i *Invalidator) InvalidateTrustWeights(ctx context.Context, userID graph.UserID) error {
	return i.weights.InvalidateUser(ctx, userID)
}

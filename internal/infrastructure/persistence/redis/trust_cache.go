package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
)

// ProfileKey returns the cache key for a reputation profile.
func ProfileKey(userID graph.UserID) string {
	return PrefixProfile + string(userID)
}

// TrustWeightKey returns the cache key for a source/target trust weight.
func TrustWeightKey(sourceID, targetID graph.UserID) string {
	return fmt.Sprintf("%s%s:%s", PrefixTrustWeight, sourceID, targetID)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCache caches reputation profiles keyed by user ID.
type ProfileCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewProfileCache creates a new ProfileCache. A zero ttl falls back to
// TTLProfileCache.
func NewProfileCache(cache *Cache, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = TTLProfileCache
	}
	return &ProfileCache{cache: cache, ttl: ttl}
}

// Get returns the cached profile, or ErrCacheMiss.
func (p *ProfileCache) Get(ctx context.Context, userID graph.UserID) (*reputation.ReputationProfile, error) {
	var profile reputation.ReputationProfile
	if err := p.cache.Get(ctx, ProfileKey(userID), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Set caches a profile.
func (p *ProfileCache) Set(ctx context.Context, profile *reputation.ReputationProfile) error {
	if profile == nil {
		return nil
	}
	return p.cache.Set(ctx, ProfileKey(profile.UserID), profile, p.ttl)
}

// Invalidate drops the cached profile for a user.
func (p *ProfileCache) Invalidate(ctx context.Context, userID graph.UserID) error {
	return p.cache.Delete(ctx, ProfileKey(userID))
}

// ══════════════════════════════════════════════════════════════════════════════
// TRUST WEIGHT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// TrustWeightCache caches resolved pairwise trust weights. A follow or
// unfollow changes reachability for every pair the user participates in, so
// InvalidateUser drops both directions for that user.
type TrustWeightCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewTrustWeightCache creates a new TrustWeightCache. A zero ttl falls back
// to TTLTrustWeightCache.
func NewTrustWeightCache(cache *Cache, ttl time.Duration) *TrustWeightCache {
	if ttl <= 0 {
		ttl = TTLTrustWeightCache
	}
	return &TrustWeightCache{cache: cache, ttl: ttl}
}

// Get returns the cached weight, or ErrCacheMiss.
func (t *TrustWeightCache) Get(ctx context.Context, sourceID, targetID graph.UserID) (float64, error) {
	var weight float64
	if err := t.cache.Get(ctx, TrustWeightKey(sourceID, targetID), &weight); err != nil {
		return 0, err
	}
	return weight, nil
}

// Set caches a resolved weight.
func (t *TrustWeightCache) Set(ctx context.Context, sourceID, targetID graph.UserID, weight float64) error {
	return t.cache.Set(ctx, TrustWeightKey(sourceID, targetID), weight, t.ttl)
}

// InvalidateUser drops every cached weight involving the user, in both the
// source and target positions. A graph edge change two hops away can still
// leave stale entries until the TTL expires.
func (t *TrustWeightCache) InvalidateUser(ctx context.Context, userID graph.UserID) error {
	if err := t.cache.DeleteByPattern(ctx, fmt.Sprintf("%s%s:*", PrefixTrustWeight, userID)); err != nil {
		return err
	}
	return t.cache.DeleteByPattern(ctx, fmt.Sprintf("%s*:%s", PrefixTrustWeight, userID))
}

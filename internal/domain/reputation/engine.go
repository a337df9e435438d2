package reputation

import (
	"context"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOTES AND ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// VoteType classifies a vote cast on a user's content.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// IsValid checks the vote type.
func (v VoteType) IsValid() bool {
	return v == VoteUp || v == VoteDown
}

// ContentAction classifies a content lifecycle action that feeds reputation.
type ContentAction string

const (
	// ActionContentCreated increments the author's recommendation counter.
	ActionContentCreated ContentAction = "content_created"
)

// IsValid checks the content action.
func (a ContentAction) IsValid() bool {
	return a == ActionContentCreated
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Policy-constant trust weights per social distance.
const (
	// SelfTrustWeight applies when a user evaluates their own content.
	SelfTrustWeight = 1.0

	// DefaultDirectFollowWeight applies at social distance 1.
	DefaultDirectFollowWeight = 0.75

	// DefaultSecondaryFollowWeight applies at social distance 2. When both a
	// direct and a two-hop path exist, the direct weight wins; weights never
	// sum across paths.
	DefaultSecondaryFollowWeight = 0.25
)

// EngineConfig holds the tunable policy weights of the engine.
type EngineConfig struct {
	// DirectFollowWeight is the trust weight at social distance 1.
	DirectFollowWeight float64

	// SecondaryFollowWeight is the trust weight at social distance 2.
	SecondaryFollowWeight float64

	// Resolver bounds the social distance traversal.
	Resolver graph.ResolverConfig
}

// DefaultEngineConfig returns the standard policy weights.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DirectFollowWeight:    DefaultDirectFollowWeight,
		SecondaryFollowWeight: DefaultSecondaryFollowWeight,
		Resolver:              graph.DefaultResolverConfig(),
	}
}

func (c EngineConfig) normalized() EngineConfig {
	if c.DirectFollowWeight <= 0 || c.DirectFollowWeight > 1 {
		c.DirectFollowWeight = DefaultDirectFollowWeight
	}
	if c.SecondaryFollowWeight <= 0 || c.SecondaryFollowWeight > c.DirectFollowWeight {
		c.SecondaryFollowWeight = DefaultSecondaryFollowWeight
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine owns reputation profile mutation, follow-graph changes, and pairwise
// trust weights. All counter updates recompute the derived score and
// verification level in the same operation.
type Engine struct {
	graphStore graph.MutableStore
	profiles   Repository
	resolver   *graph.Resolver
	atomic     Atomic
	publisher  shared.EventPublisher
	config     EngineConfig
	now        func() time.Time
}

// NewEngine creates a reputation engine. A nil atomic runner degrades to
// non-transactional writes; a nil publisher drops events.
func NewEngine(
	graphStore graph.MutableStore,
	profiles Repository,
	atomic Atomic,
	publisher shared.EventPublisher,
	config EngineConfig,
) *Engine {
	if atomic == nil {
		atomic = NoopAtomic{}
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	config = config.normalized()

	return &Engine{
		graphStore: graphStore,
		profiles:   profiles,
		resolver:   graph.NewResolver(graphStore, config.Resolver),
		atomic:     atomic,
		publisher:  publisher,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine clock. Used in tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile reads
// ──────────────────────────────────────────────────────────────────────────────

// GetProfile returns the stored profile for userID.
// Returns shared.ErrProfileNotFound when the user has no profile yet.
func (e *Engine) GetProfile(ctx context.Context, userID graph.UserID) (*ReputationProfile, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	return e.profiles.Get(ctx, userID)
}

// TrustWeight returns the policy trust weight from source to target:
// 1.0 for self, the direct weight at distance 1, the secondary weight at
// distance 2, and 0.0 beyond. Graph store failures propagate as
// shared.ErrGraphUnavailable so callers never mistake an outage for distrust.
func (e *Engine) TrustWeight(ctx context.Context, sourceID, targetID graph.UserID) (float64, error) {
	if !sourceID.IsValid() || !targetID.IsValid() {
		return 0, shared.ErrInvalidUserID
	}
	if sourceID == targetID {
		return SelfTrustWeight, nil
	}

	resolution, err := e.resolver.Resolve(ctx, sourceID, targetID)
	if err != nil {
		return 0, err
	}
	if !resolution.Reachable {
		return 0, nil
	}

	switch resolution.Distance {
	case 1:
		return e.config.DirectFollowWeight, nil
	case 2:
		return e.config.SecondaryFollowWeight, nil
	default:
		return 0, nil
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile writes
// ──────────────────────────────────────────────────────────────────────────────

// UpsertProfile applies a partial update to the user's profile, creating the
// default profile on first write. Counter changes recompute the score and
// verification level before the write commits.
func (e *Engine) UpsertProfile(ctx context.Context, userID graph.UserID, update ProfileUpdate) (*ReputationProfile, shared.AuditRef, error) {
	if !userID.IsValid() {
		return nil, shared.AuditRef{}, shared.ErrInvalidUserID
	}

	now := e.now()

	var (
		committed *ReputationProfile
		audit     shared.AuditRef
	)
	err := e.atomic.Atomic(ctx, func(ctx context.Context) error {
		profile, err := e.getOrDefault(ctx, userID, now)
		if err != nil {
			return err
		}

		oldScore := profile.EffectiveScore()
		oldLevel := profile.VerificationLevel

		if err := update.Apply(profile, now); err != nil {
			return err
		}
		if err := profile.Validate(); err != nil {
			return err
		}

		committed, audit, err = e.profiles.Put(ctx, profile)
		if err != nil {
			return err
		}

		e.publishScoreChange(committed, oldScore, oldLevel, "profile_upserted")
		return nil
	})
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	return committed, audit, nil
}

// UpdateReputationFromAction records a content lifecycle action against the
// author's profile.
func (e *Engine) UpdateReputationFromAction(ctx context.Context, authorID graph.UserID, action ContentAction) (*ReputationProfile, shared.AuditRef, error) {
	if !authorID.IsValid() {
		return nil, shared.AuditRef{}, shared.ErrInvalidUserID
	}
	if !action.IsValid() {
		return nil, shared.AuditRef{}, shared.NewDomainError("reputation", "UpdateFromAction", shared.ErrInvalidInput, "unknown content action")
	}

	now := e.now()

	var (
		committed *ReputationProfile
		audit     shared.AuditRef
	)
	err := e.atomic.Atomic(ctx, func(ctx context.Context) error {
		profile, err := e.getOrDefault(ctx, authorID, now)
		if err != nil {
			return err
		}

		oldScore := profile.EffectiveScore()
		oldLevel := profile.VerificationLevel

		profile.RecordRecommendation(now)

		committed, audit, err = e.profiles.Put(ctx, profile)
		if err != nil {
			return err
		}

		e.publishScoreChange(committed, oldScore, oldLevel, string(action))
		return nil
	})
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	return committed, audit, nil
}

// UpdateReputationFromVotes records a vote cast on the author's content.
func (e *Engine) UpdateReputationFromVotes(ctx context.Context, authorID graph.UserID, vote VoteType) (*ReputationProfile, shared.AuditRef, error) {
	if !authorID.IsValid() {
		return nil, shared.AuditRef{}, shared.ErrInvalidUserID
	}
	if !vote.IsValid() {
		return nil, shared.AuditRef{}, shared.NewDomainError("reputation", "UpdateFromVotes", shared.ErrInvalidInput, "unknown vote type")
	}

	now := e.now()

	var (
		committed *ReputationProfile
		audit     shared.AuditRef
	)
	err := e.atomic.Atomic(ctx, func(ctx context.Context) error {
		profile, err := e.getOrDefault(ctx, authorID, now)
		if err != nil {
			return err
		}

		oldScore := profile.EffectiveScore()
		oldLevel := profile.VerificationLevel

		switch vote {
		case VoteUp:
			profile.RecordUpvote(now)
		case VoteDown:
			profile.RecordDownvote(now)
		}

		committed, audit, err = e.profiles.Put(ctx, profile)
		if err != nil {
			return err
		}

		e.publishScoreChange(committed, oldScore, oldLevel, "vote_recorded")
		return nil
	})
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	return committed, audit, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Follow graph
// ──────────────────────────────────────────────────────────────────────────────

// FollowResult is the state committed by a follow or unfollow.
type FollowResult struct {
	Follower *ReputationProfile
	Followed *ReputationProfile
}

// Follow creates a direct follow edge and updates both counters as one
// logical unit. Returns shared.ErrAlreadyFollowing when the edge exists and
// shared.ErrSelfFollow for self-follows.
func (e *Engine) Follow(ctx context.Context, followerID, followedID graph.UserID) (*FollowResult, error) {
	if !followerID.IsValid() || !followedID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if followerID == followedID {
		return nil, shared.ErrSelfFollow
	}

	now := e.now()

	relationship, err := graph.NewFollowRelationship(
		followerID, followedID, graph.TrustWeight(e.config.DirectFollowWeight), now,
	)
	if err != nil {
		return nil, err
	}

	var result FollowResult
	err = e.atomic.Atomic(ctx, func(ctx context.Context) error {
		if err := e.graphStore.CreateEdge(ctx, relationship); err != nil {
			return err
		}

		follower, err := e.getOrDefault(ctx, followerID, now)
		if err != nil {
			return err
		}
		followed, err := e.getOrDefault(ctx, followedID, now)
		if err != nil {
			return err
		}

		followedOldScore := followed.EffectiveScore()
		followedOldLevel := followed.VerificationLevel

		follower.IncrementFollowing(1, now)
		followed.IncrementFollowers(1, now)

		if result.Follower, _, err = e.profiles.Put(ctx, follower); err != nil {
			return err
		}
		if result.Followed, _, err = e.profiles.Put(ctx, followed); err != nil {
			return err
		}

		e.publishScoreChange(result.Followed, followedOldScore, followedOldLevel, "follower_gained")
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = e.publisher.Publish(shared.NewUserFollowedEvent(
		followerID.String(), followedID.String(), e.config.DirectFollowWeight,
	))

	return &result, nil
}

// Unfollow removes the follow edge and updates both counters as one logical
// unit. Returns shared.ErrNotFollowing when no active edge exists; the
// rejection leaves both counters untouched.
func (e *Engine) Unfollow(ctx context.Context, followerID, followedID graph.UserID) (*FollowResult, error) {
	if !followerID.IsValid() || !followedID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if followerID == followedID {
		return nil, shared.ErrSelfFollow
	}

	now := e.now()

	var result FollowResult
	err := e.atomic.Atomic(ctx, func(ctx context.Context) error {
		if err := e.graphStore.DeleteEdge(ctx, followerID, followedID); err != nil {
			return err
		}

		follower, err := e.getOrDefault(ctx, followerID, now)
		if err != nil {
			return err
		}
		followed, err := e.getOrDefault(ctx, followedID, now)
		if err != nil {
			return err
		}

		followedOldScore := followed.EffectiveScore()
		followedOldLevel := followed.VerificationLevel

		follower.IncrementFollowing(-1, now)
		followed.IncrementFollowers(-1, now)

		if result.Follower, _, err = e.profiles.Put(ctx, follower); err != nil {
			return err
		}
		if result.Followed, _, err = e.profiles.Put(ctx, followed); err != nil {
			return err
		}

		e.publishScoreChange(result.Followed, followedOldScore, followedOldLevel, "follower_lost")
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = e.publisher.Publish(shared.NewUserUnfollowedEvent(followerID.String(), followedID.String()))

	return &result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal
// ──────────────────────────────────────────────────────────────────────────────

// getOrDefault loads the profile or creates the lazy default on first touch.
func (e *Engine) getOrDefault(ctx context.Context, userID graph.UserID, now time.Time) (*ReputationProfile, error) {
	profile, err := e.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if shared.IsNotFound(err) {
		return NewDefaultProfile(userID, now), nil
	}
	return nil, err
}

// publishScoreChange emits reputation events when the effective score or
// verification level changed. Event delivery is best effort.
func (e *Engine) publishScoreChange(profile *ReputationProfile, oldScore float64, oldLevel VerificationLevel, reason string) {
	newScore := profile.EffectiveScore()
	if newScore != oldScore {
		_ = e.publisher.Publish(shared.NewReputationUpdatedEvent(
			profile.UserID.String(), oldScore, newScore, reason,
		))
	}
	if profile.VerificationLevel != oldLevel {
		_ = e.publisher.Publish(shared.NewLevelChangedEvent(
			profile.UserID.String(), string(oldLevel), string(profile.VerificationLevel),
		))
	}
}

// Package command contains write operations (CQRS - Commands).
// Commands change the state of the trust subsystem: follow edges,
// reputation counters, profile updates. Each command validates its input,
// delegates the state change to the reputation engine, and keeps the hot
// caches coherent.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOLLOW USER COMMAND
// Creates a direct follow edge and updates both users' counters. The edge
// and the counters commit together; a failure rolls back both.
// ══════════════════════════════════════════════════════════════════════════════

// FollowUserCommand contains the data needed to create a follow edge.
type FollowUserCommand struct {
	// FollowerID is the user initiating the follow.
	FollowerID string

	// FollowedID is the user being followed.
	FollowedID string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c FollowUserCommand) Validate() error {
	if c.FollowerID == "" {
		return errors.New("follow_user: follower_id must be provided")
	}
	if c.FollowedID == "" {
		return errors.New("follow_user: followed_id must be provided")
	}
	if c.FollowerID == c.FollowedID {
		return errors.New("follow_user: a user cannot follow themselves")
	}
	return nil
}

// FollowUserResult contains the updated state after the follow.
type FollowUserResult struct {
	// Follower is the follower's profile after the counter update.
	Follower *reputation.ReputationProfile

	// Followed is the followed user's profile after the counter update.
	Followed *reputation.ReputationProfile
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// TrustCacheInvalidator drops cached entries made stale by a graph or
// profile mutation. Implementations are best-effort: the authoritative
// state is already committed when these are called.
type TrustCacheInvalidator interface {
	// InvalidateProfile drops the cached profile for a user.
	InvalidateProfile(ctx context.Context, userID graph.UserID) error

	// InvalidateTrustWeights drops cached pairwise weights involving a user.
	InvalidateTrustWeights(ctx context.Context, userID graph.UserID) error
}

// NoopInvalidator is used when no cache layer is configured.
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateProfile(context.Context, graph.UserID) error      { return nil }
func (NoopInvalidator) InvalidateTrustWeights(context.Context, graph.UserID) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// FollowUserHandler handles the FollowUserCommand.
type FollowUserHandler struct {
	engine      *reputation.Engine
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewFollowUserHandler creates a new FollowUserHandler.
func NewFollowUserHandler(engine *reputation.Engine, invalidator TrustCacheInvalidator, log *logger.Logger) *FollowUserHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &FollowUserHandler{
		engine:      engine,
		invalidator: invalidator,
		log:         log.With(logger.Component("follow_user")),
	}
}

// Handle executes the follow user command.
func (h *FollowUserHandler) Handle(ctx context.Context, cmd FollowUserCommand) (*FollowUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("follow_user: validation failed: %w", err)
	}

	result, err := h.engine.Follow(ctx, graph.UserID(cmd.FollowerID), graph.UserID(cmd.FollowedID))
	if err != nil {
		return nil, err
	}

	h.invalidate(ctx, cmd.FollowerID, cmd.FollowedID)

	h.log.Info("follow created",
		logger.UserID(cmd.FollowerID),
		logger.TargetID(cmd.FollowedID),
	)

	return &FollowUserResult{
		Follower: result.Follower,
		Followed: result.Followed,
	}, nil
}

// invalidate drops the cache entries touched by an edge change. Failures
// are logged, not returned; the TTL bounds staleness.
func (h *FollowUserHandler) invalidate(ctx context.Context, followerID, followedID string) {
	for _, id := range []graph.UserID{graph.UserID(followerID), graph.UserID(followedID)} {
		if err := h.invalidator.InvalidateProfile(ctx, id); err != nil {
			h.log.Warn("profile cache invalidation failed", logger.UserID(string(id)), logger.Err(err))
		}
		if err := h.invalidator.InvalidateTrustWeights(ctx, id); err != nil {
			h.log.Warn("trust weight cache invalidation failed", logger.UserID(string(id)), logger.Err(err))
		}
	}
}

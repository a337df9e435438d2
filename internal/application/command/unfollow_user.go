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
// UNFOLLOW USER COMMAND
// Removes a follow edge and restores both users' counters symmetrically.
// ══════════════════════════════════════════════════════════════════════════════

// UnfollowUserCommand contains the data needed to remove a follow edge.
type UnfollowUserCommand struct {
	// FollowerID is the user removing the follow.
	FollowerID string

	// FollowedID is the user being unfollowed.
	FollowedID string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c UnfollowUserCommand) Validate() error {
	if c.FollowerID == "" {
		return errors.New("unfollow_user: follower_id must be provided")
	}
	if c.FollowedID == "" {
		return errors.New("unfollow_user: followed_id must be provided")
	}
	if c.FollowerID == c.FollowedID {
		return errors.New("unfollow_user: a user cannot unfollow themselves")
	}
	return nil
}

// UnfollowUserResult contains the updated state after the unfollow.
type UnfollowUserResult struct {
	// Follower is the follower's profile after the counter update.
	Follower *reputation.ReputationProfile

	// Followed is the unfollowed user's profile after the counter update.
	Followed *reputation.ReputationProfile
}

// UnfollowUserHandler handles the UnfollowUserCommand.
type UnfollowUserHandler struct {
	engine      *reputation.Engine
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewUnfollowUserHandler creates a new UnfollowUserHandler.
func NewUnfollowUserHandler(engine *reputation.Engine, invalidator TrustCacheInvalidator, log *logger.Logger) *UnfollowUserHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &UnfollowUserHandler{
		engine:      engine,
		invalidator: invalidator,
		log:         log.With(logger.Component("unfollow_user")),
	}
}

// Handle executes the unfollow user command.
func (h *UnfollowUserHandler) Handle(ctx context.Context, cmd UnfollowUserCommand) (*UnfollowUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("unfollow_user: validation failed: %w", err)
	}

	result, err := h.engine.Unfollow(ctx, graph.UserID(cmd.FollowerID), graph.UserID(cmd.FollowedID))
	if err != nil {
		return nil, err
	}

	for _, id := range []graph.UserID{graph.UserID(cmd.FollowerID), graph.UserID(cmd.FollowedID)} {
		if err := h.invalidator.InvalidateProfile(ctx, id); err != nil {
			h.log.Warn("profile cache invalidation failed", logger.UserID(string(id)), logger.Err(err))
		}
		if err := h.invalidator.InvalidateTrustWeights(ctx, id); err != nil {
			h.log.Warn("trust weight cache invalidation failed", logger.UserID(string(id)), logger.Err(err))
		}
	}

	h.log.Info("follow removed",
		logger.UserID(cmd.FollowerID),
		logger.TargetID(cmd.FollowedID),
	)

	return &UnfollowUserResult{
		Follower: result.Follower,
		Followed: result.Followed,
	}, nil
}

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Partial profile update. Absent fields keep their current values; counter
// changes recompute the score and verification level in the same commit.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains a partial reputation profile update.
// Pointer fields are applied only when set.
type UpdateProfileCommand struct {
	// UserID is the profile owner. The profile is created with defaults on
	// first write.
	UserID string

	TotalRecommendations *int
	UpvotesReceived      *int
	DownvotesReceived    *int
	Followers            *int
	Following            *int

	// ScoreOverride sets the admin override; ClearScoreOverride removes it.
	ScoreOverride      *float64
	ClearScoreOverride bool

	// AddSpecializations extends the specialization set.
	AddSpecializations []string

	// AddTokenRewards adds to the monotonic rewards total.
	AddTokenRewards *float64

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_profile: user_id must be provided")
	}
	if c.ScoreOverride != nil && (*c.ScoreOverride < 0 || *c.ScoreOverride > 1) {
		return errors.New("update_profile: score_override must be within [0, 1]")
	}
	if c.AddTokenRewards != nil && *c.AddTokenRewards < 0 {
		return errors.New("update_profile: token rewards cannot decrease")
	}
	return nil
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	engine      *reputation.Engine
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(engine *reputation.Engine, invalidator TrustCacheInvalidator, log *logger.Logger) *UpdateProfileHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &UpdateProfileHandler{
		engine:      engine,
		invalidator: invalidator,
		log:         log.With(logger.Component("update_profile")),
	}
}

// Handle executes the update profile command.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*reputation.ReputationProfile, shared.AuditRef, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.AuditRef{}, fmt.Errorf("update_profile: validation failed: %w", err)
	}

	update := reputation.ProfileUpdate{
		TotalRecommendations: cmd.TotalRecommendations,
		UpvotesReceived:      cmd.UpvotesReceived,
		DownvotesReceived:    cmd.DownvotesReceived,
		Followers:            cmd.Followers,
		Following:            cmd.Following,
		ScoreOverride:        cmd.ScoreOverride,
		ClearScoreOverride:   cmd.ClearScoreOverride,
		AddSpecializations:   cmd.AddSpecializations,
		AddTokenRewards:      cmd.AddTokenRewards,
	}

	profile, ref, err := h.engine.UpsertProfile(ctx, graph.UserID(cmd.UserID), update)
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	if err := h.invalidator.InvalidateProfile(ctx, profile.UserID); err != nil {
		h.log.Warn("profile cache invalidation failed", logger.UserID(cmd.UserID), logger.Err(err))
	}

	h.log.Info("profile updated",
		logger.UserID(cmd.UserID),
		logger.Score(profile.EffectiveScore()),
		logger.String("level", string(profile.VerificationLevel)),
		logger.CommitNumber(ref.CommitNumber),
	)

	return profile, ref, nil
}

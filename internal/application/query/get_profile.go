// Package query contains read operations (CQRS - Queries).
// Queries serve the hot ranking paths: profile lookups, pairwise trust
// weights, and per-content trust scores. Reads go through the cache first
// and fall back to the authoritative store.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Returns a user's reputation profile with the derived verification level.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery contains the parameters for a profile lookup.
type GetProfileQuery struct {
	// UserID is the profile owner.
	UserID string
}

// Validate validates the query.
func (q GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_profile: user_id must be provided")
	}
	return nil
}

// ProfileDTO is the read model of a reputation profile.
type ProfileDTO struct {
	UserID               string   `json:"user_id"`
	TotalRecommendations int      `json:"total_recommendations"`
	UpvotesReceived      int      `json:"upvotes_received"`
	DownvotesReceived    int      `json:"downvotes_received"`
	ReputationScore      float64  `json:"reputation_score"`
	EffectiveScore       float64  `json:"effective_score"`
	HasOverride          bool     `json:"has_override"`
	VerificationLevel    string   `json:"verification_level"`
	Specializations      []string `json:"specializations"`
	Followers            int      `json:"followers"`
	Following            int      `json:"following"`
	TokenRewardsEarned   float64  `json:"token_rewards_earned"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCacheReader is the read-through cache over reputation profiles.
// A miss returns an error; any cache failure falls back to the store.
type ProfileCacheReader interface {
	Get(ctx context.Context, userID graph.UserID) (*reputation.ReputationProfile, error)
	Set(ctx context.Context, profile *reputation.ReputationProfile) error
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	engine *reputation.Engine
	cache  ProfileCacheReader
	log    *logger.Logger
}

// NewGetProfileHandler creates a new GetProfileHandler. cache may be nil.
func NewGetProfileHandler(engine *reputation.Engine, cache ProfileCacheReader, log *logger.Logger) *GetProfileHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetProfileHandler{
		engine: engine,
		cache:  cache,
		log:    log.With(logger.Component("get_profile")),
	}
}

// Handle executes the get profile query.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_profile: validation failed: %w", err)
	}

	userID := graph.UserID(q.UserID)

	if h.cache != nil {
		if profile, err := h.cache.Get(ctx, userID); err == nil {
			return toProfileDTO(profile), nil
		}
	}

	profile, err := h.engine.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, profile); err != nil {
			h.log.Warn("profile cache write failed", logger.UserID(q.UserID), logger.Err(err))
		}
	}

	return toProfileDTO(profile), nil
}

func toProfileDTO(p *reputation.ReputationProfile) *ProfileDTO {
	return &ProfileDTO{
		UserID:               string(p.UserID),
		TotalRecommendations: p.TotalRecommendations,
		UpvotesReceived:      p.UpvotesReceived,
		DownvotesReceived:    p.DownvotesReceived,
		ReputationScore:      p.ReputationScore,
		EffectiveScore:       p.EffectiveScore(),
		HasOverride:          p.ScoreOverride != nil,
		VerificationLevel:    string(p.VerificationLevel),
		Specializations:      p.Specializations,
		Followers:            p.Followers,
		Following:            p.Following,
		TokenRewardsEarned:   p.TokenRewardsEarned,
	}
}

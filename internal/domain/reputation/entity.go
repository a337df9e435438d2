// Package reputation contains per-user reputation state: activity counters,
// the derived reputation score, verification levels, and the engine that owns
// follow-graph mutation and pairwise trust weights.
package reputation

import (
	"fmt"
	"math"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// VerificationLevel is a discrete tier derived from reputation score.
type VerificationLevel string

const (
	// VerificationBasic is the default tier.
	VerificationBasic VerificationLevel = "BASIC"

	// VerificationVerified requires a reputation score of at least 0.5.
	VerificationVerified VerificationLevel = "VERIFIED"

	// VerificationExpert requires a reputation score of at least 0.8.
	VerificationExpert VerificationLevel = "EXPERT"
)

// IsValid checks the verification level.
func (v VerificationLevel) IsValid() bool {
	switch v {
	case VerificationBasic, VerificationVerified, VerificationExpert:
		return true
	default:
		return false
	}
}

// Score thresholds for verification levels.
const (
	VerifiedThreshold = 0.5
	ExpertThreshold   = 0.8
)

// DeriveVerificationLevel maps a reputation score to its tier. The level is
// always derived, never hand-set.
func DeriveVerificationLevel(score float64) VerificationLevel {
	switch {
	case score >= ExpertThreshold:
		return VerificationExpert
	case score >= VerifiedThreshold:
		return VerificationVerified
	default:
		return VerificationBasic
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE FORMULA
// ══════════════════════════════════════════════════════════════════════════════

// Per-term contribution rates and caps. Each term saturates independently so
// no single counter can dominate the score.
const (
	baseScore = 0.1

	recommendationRate = 0.01
	recommendationCap  = 0.3

	upvoteRate = 0.005
	upvoteCap  = 0.4

	downvoteRate = 0.01
	downvoteCap  = 0.3

	followerRate = 0.002
	followerCap  = 0.2
)

// ComputeReputationScore derives the reputation score from activity counters:
//
//	0.1 + min(0.3, recs*0.01) + min(0.4, up*0.005)
//	    - min(0.3, down*0.01) + min(0.2, followers*0.002)
//
// clamped to [0, 1] and rounded to 3 decimals. The downvote term is
// subtracted outright.
func ComputeReputationScore(totalRecommendations, upvotes, downvotes, followers int) float64 {
	score := baseScore
	score += math.Min(recommendationCap, float64(totalRecommendations)*recommendationRate)
	score += math.Min(upvoteCap, float64(upvotes)*upvoteRate)
	score -= math.Min(downvoteCap, float64(downvotes)*downvoteRate)
	score += math.Min(followerCap, float64(followers)*followerRate)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return math.Round(score*1000) / 1000
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: REPUTATION PROFILE
// Created lazily on first write, never hard-deleted.
// ══════════════════════════════════════════════════════════════════════════════

// ReputationProfile holds per-user reputation state.
type ReputationProfile struct {
	// UserID identifies the profile owner.
	UserID graph.UserID

	// TotalRecommendations counts content the user has created.
	TotalRecommendations int

	// UpvotesReceived counts upvotes across the user's content.
	UpvotesReceived int

	// DownvotesReceived counts downvotes across the user's content.
	DownvotesReceived int

	// ReputationScore is always recomputed from the counters above.
	ReputationScore float64

	// ScoreOverride is the explicit admin override. When set, EffectiveScore
	// returns it instead of the computed score. The computed score keeps
	// tracking the counters underneath.
	ScoreOverride *float64

	// VerificationLevel is derived from the effective score.
	VerificationLevel VerificationLevel

	// Specializations is the set of categories the user is recognized in.
	Specializations []string

	// ActiveSince is immutable once set.
	ActiveSince time.Time

	// TokenRewardsEarned is monotonically non-decreasing.
	TokenRewardsEarned float64

	// Followers and Following are edge counters kept symmetric across a
	// follow/unfollow pair.
	Followers int
	Following int

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time
}

// NewDefaultProfile creates the lazy default profile for first writes.
func NewDefaultProfile(userID graph.UserID, now time.Time) *ReputationProfile {
	p := &ReputationProfile{
		UserID:      userID,
		ActiveSince: now,
		UpdatedAt:   now,
	}
	p.Recompute()
	return p
}

// Recompute refreshes the reputation score and verification level from the
// counters. Every counter mutation must call this in the same operation so
// the score is never stale.
func (p *ReputationProfile) Recompute() {
	p.ReputationScore = ComputeReputationScore(
		p.TotalRecommendations,
		p.UpvotesReceived,
		p.DownvotesReceived,
		p.Followers,
	)
	p.VerificationLevel = DeriveVerificationLevel(p.EffectiveScore())
}

// EffectiveScore returns the admin override when set, else the computed score.
func (p *ReputationProfile) EffectiveScore() float64 {
	if p.ScoreOverride != nil {
		return *p.ScoreOverride
	}
	return p.ReputationScore
}

// RecordRecommendation increments the recommendation counter.
func (p *ReputationProfile) RecordRecommendation(now time.Time) {
	p.TotalRecommendations++
	p.UpdatedAt = now
	p.Recompute()
}

// RecordUpvote increments the received-upvote counter.
func (p *ReputationProfile) RecordUpvote(now time.Time) {
	p.UpvotesReceived++
	p.UpdatedAt = now
	p.Recompute()
}

// RecordDownvote increments the received-downvote counter.
func (p *ReputationProfile) RecordDownvote(now time.Time) {
	p.DownvotesReceived++
	p.UpdatedAt = now
	p.Recompute()
}

// IncrementFollowing adjusts the following counter by delta (±1).
func (p *ReputationProfile) IncrementFollowing(delta int, now time.Time) {
	p.Following += delta
	if p.Following < 0 {
		p.Following = 0
	}
	p.UpdatedAt = now
	p.Recompute()
}

// IncrementFollowers adjusts the followers counter by delta (±1).
func (p *ReputationProfile) IncrementFollowers(delta int, now time.Time) {
	p.Followers += delta
	if p.Followers < 0 {
		p.Followers = 0
	}
	p.UpdatedAt = now
	p.Recompute()
}

// AddTokenRewards adds to the monotonic rewards total.
func (p *ReputationProfile) AddTokenRewards(amount float64, now time.Time) error {
	if amount < 0 {
		return shared.ErrRewardsDecreased
	}
	p.TokenRewardsEarned += amount
	p.UpdatedAt = now
	return nil
}

// AddSpecialization adds a category to the specialization set.
func (p *ReputationProfile) AddSpecialization(category string, now time.Time) {
	if category == "" {
		return
	}
	for _, existing := range p.Specializations {
		if existing == category {
			return
		}
	}
	p.Specializations = append(p.Specializations, category)
	p.UpdatedAt = now
}

// Validate checks profile invariants.
func (p *ReputationProfile) Validate() error {
	if !p.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if p.TotalRecommendations < 0 || p.UpvotesReceived < 0 || p.DownvotesReceived < 0 ||
		p.Followers < 0 || p.Following < 0 {
		return shared.ErrInvalidCounter
	}
	if p.TokenRewardsEarned < 0 {
		return shared.ErrRewardsDecreased
	}
	if p.ScoreOverride != nil && (*p.ScoreOverride < 0 || *p.ScoreOverride > 1) {
		return shared.NewDomainError("reputation", "Validate", shared.ErrValueOutOfRange, "score override must be in [0, 1]")
	}
	return nil
}

// String returns a representation for logging.
func (p *ReputationProfile) String() string {
	return fmt.Sprintf(
		"ReputationProfile{User: %s, Score: %.3f, Level: %s, Followers: %d}",
		p.UserID, p.EffectiveScore(), p.VerificationLevel, p.Followers,
	)
}

// Clone creates a deep copy of the profile.
func (p *ReputationProfile) Clone() *ReputationProfile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.ScoreOverride != nil {
		override := *p.ScoreOverride
		clone.ScoreOverride = &override
	}
	clone.Specializations = make([]string, len(p.Specializations))
	copy(clone.Specializations, p.Specializations)
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTIAL UPDATE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileUpdate is a partial update: nil fields are left untouched. Counter
// changes recompute the score and verification level in the same operation.
type ProfileUpdate struct {
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

	// AddTokenRewards adds to the monotonic rewards total. Negative values
	// are rejected.
	AddTokenRewards *float64
}

// touchesCounters reports whether the update changes any score input.
func (u ProfileUpdate) touchesCounters() bool {
	return u.TotalRecommendations != nil ||
		u.UpvotesReceived != nil ||
		u.DownvotesReceived != nil ||
		u.Followers != nil ||
		u.Following != nil
}

// Apply merges the update into the profile, recomputing derived fields when
// any counter changed.
func (u ProfileUpdate) Apply(p *ReputationProfile, now time.Time) error {
	if u.TotalRecommendations != nil {
		if *u.TotalRecommendations < 0 {
			return shared.ErrInvalidCounter
		}
		p.TotalRecommendations = *u.TotalRecommendations
	}
	if u.UpvotesReceived != nil {
		if *u.UpvotesReceived < 0 {
			return shared.ErrInvalidCounter
		}
		p.UpvotesReceived = *u.UpvotesReceived
	}
	if u.DownvotesReceived != nil {
		if *u.DownvotesReceived < 0 {
			return shared.ErrInvalidCounter
		}
		p.DownvotesReceived = *u.DownvotesReceived
	}
	if u.Followers != nil {
		if *u.Followers < 0 {
			return shared.ErrInvalidCounter
		}
		p.Followers = *u.Followers
	}
	if u.Following != nil {
		if *u.Following < 0 {
			return shared.ErrInvalidCounter
		}
		p.Following = *u.Following
	}

	if u.ClearScoreOverride {
		p.ScoreOverride = nil
	} else if u.ScoreOverride != nil {
		override := *u.ScoreOverride
		if override < 0 || override > 1 {
			return shared.NewDomainError("reputation", "Upsert", shared.ErrValueOutOfRange, "score override must be in [0, 1]")
		}
		p.ScoreOverride = &override
	}

	for _, category := range u.AddSpecializations {
		p.AddSpecialization(category, now)
	}

	if u.AddTokenRewards != nil {
		if err := p.AddTokenRewards(*u.AddTokenRewards, now); err != nil {
			return err
		}
	}

	if u.touchesCounters() || u.ScoreOverride != nil || u.ClearScoreOverride {
		p.Recompute()
	}
	p.UpdatedAt = now

	return nil
}

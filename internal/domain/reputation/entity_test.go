package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReputationScore_Formula(t *testing.T) {
	tests := []struct {
		name      string
		recs      int
		upvotes   int
		downvotes int
		followers int
		want      float64
	}{
		{"empty profile gets base score", 0, 0, 0, 0, 0.1},
		{"documented mixed profile", 10, 50, 5, 20, 0.44},
		{"all terms saturated", 1000, 1000, 0, 1000, 1.0},
		{"downvotes subtract", 0, 0, 5, 0, 0.05},
		{"downvote term caps at 0.3", 0, 0, 500, 0, 0.0},
		{"recommendation term caps at 0.3", 100, 0, 0, 0, 0.4},
		{"upvote term caps at 0.4", 0, 200, 0, 0, 0.5},
		{"follower term caps at 0.2", 0, 0, 0, 500, 0.3},
		{"rounded to three decimals", 0, 1, 0, 1, 0.107},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeReputationScore(tt.recs, tt.upvotes, tt.downvotes, tt.followers)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputeReputationScore_Monotonicity(t *testing.T) {
	base := ComputeReputationScore(10, 20, 5, 15)

	assert.GreaterOrEqual(t, ComputeReputationScore(11, 20, 5, 15), base, "more recommendations never lower the score")
	assert.GreaterOrEqual(t, ComputeReputationScore(10, 21, 5, 15), base, "more upvotes never lower the score")
	assert.LessOrEqual(t, ComputeReputationScore(10, 20, 6, 15), base, "more downvotes never raise the score")
	assert.GreaterOrEqual(t, ComputeReputationScore(10, 20, 5, 16), base, "more followers never lower the score")
}

func TestDeriveVerificationLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  VerificationLevel
	}{
		{0.0, VerificationBasic},
		{0.44, VerificationBasic},
		{0.499, VerificationBasic},
		{0.5, VerificationVerified},
		{0.799, VerificationVerified},
		{0.8, VerificationExpert},
		{1.0, VerificationExpert},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveVerificationLevel(tt.score), "score %.3f", tt.score)
	}
}

func TestReputationProfile_DocumentedScenario(t *testing.T) {
	now := time.Now().UTC()
	profile := NewDefaultProfile("alice", now)
	profile.TotalRecommendations = 10
	profile.UpvotesReceived = 50
	profile.DownvotesReceived = 5
	profile.Followers = 20
	profile.Recompute()

	// 0.1 + 0.10 + 0.25 - 0.05 + 0.04 = 0.44
	assert.InDelta(t, 0.44, profile.ReputationScore, 1e-9)
	assert.Equal(t, VerificationBasic, profile.VerificationLevel)
}

func TestReputationProfile_ScoreOverride(t *testing.T) {
	now := time.Now().UTC()
	profile := NewDefaultProfile("alice", now)
	require.InDelta(t, 0.1, profile.EffectiveScore(), 1e-9)

	override := 0.9
	profile.ScoreOverride = &override
	profile.Recompute()

	assert.InDelta(t, 0.1, profile.ReputationScore, 1e-9, "computed score keeps tracking counters")
	assert.InDelta(t, 0.9, profile.EffectiveScore(), 1e-9)
	assert.Equal(t, VerificationExpert, profile.VerificationLevel, "level follows the effective score")

	profile.ScoreOverride = nil
	profile.Recompute()
	assert.Equal(t, VerificationBasic, profile.VerificationLevel)
}

func TestReputationProfile_LevelStepFunction(t *testing.T) {
	now := time.Now().UTC()

	// Two profiles reaching the same score through different counters get
	// the same level.
	byUpvotes := NewDefaultProfile("a", now)
	byUpvotes.UpvotesReceived = 80 // 0.1 + 0.4 = 0.5
	byUpvotes.Recompute()

	byRecs := NewDefaultProfile("b", now)
	byRecs.TotalRecommendations = 30 // 0.1 + 0.3 = 0.4
	byRecs.Followers = 50            // + 0.1 = 0.5
	byRecs.Recompute()

	require.InDelta(t, byUpvotes.ReputationScore, byRecs.ReputationScore, 1e-9)
	assert.Equal(t, byUpvotes.VerificationLevel, byRecs.VerificationLevel)
	assert.Equal(t, VerificationVerified, byUpvotes.VerificationLevel)
}

func TestReputationProfile_TokenRewardsMonotonic(t *testing.T) {
	now := time.Now().UTC()
	profile := NewDefaultProfile("alice", now)

	require.NoError(t, profile.AddTokenRewards(5.0, now))
	require.NoError(t, profile.AddTokenRewards(2.5, now))
	assert.InDelta(t, 7.5, profile.TokenRewardsEarned, 1e-9)

	err := profile.AddTokenRewards(-1.0, now)
	require.Error(t, err)
	assert.InDelta(t, 7.5, profile.TokenRewardsEarned, 1e-9, "rejected write leaves the total untouched")
}

func TestReputationProfile_Specializations(t *testing.T) {
	now := time.Now().UTC()
	profile := NewDefaultProfile("alice", now)

	profile.AddSpecialization("restaurants", now)
	profile.AddSpecialization("travel", now)
	profile.AddSpecialization("restaurants", now)
	profile.AddSpecialization("", now)

	assert.Equal(t, []string{"restaurants", "travel"}, profile.Specializations)
}

func TestProfileUpdate_Apply(t *testing.T) {
	now := time.Now().UTC()

	t.Run("counter change recomputes in the same operation", func(t *testing.T) {
		profile := NewDefaultProfile("alice", now)
		upvotes := 80

		err := ProfileUpdate{UpvotesReceived: &upvotes}.Apply(profile, now)

		require.NoError(t, err)
		assert.InDelta(t, 0.5, profile.ReputationScore, 1e-9)
		assert.Equal(t, VerificationVerified, profile.VerificationLevel)
	})

	t.Run("nil fields leave the profile untouched", func(t *testing.T) {
		profile := NewDefaultProfile("alice", now)
		profile.TotalRecommendations = 7
		profile.Recompute()
		before := profile.Clone()

		err := ProfileUpdate{}.Apply(profile, now)

		require.NoError(t, err)
		assert.Equal(t, before.TotalRecommendations, profile.TotalRecommendations)
		assert.InDelta(t, before.ReputationScore, profile.ReputationScore, 1e-9)
	})

	t.Run("negative counter rejected", func(t *testing.T) {
		profile := NewDefaultProfile("alice", now)
		negative := -1

		err := ProfileUpdate{Followers: &negative}.Apply(profile, now)

		require.Error(t, err)
	})

	t.Run("override out of range rejected", func(t *testing.T) {
		profile := NewDefaultProfile("alice", now)
		override := 1.5

		err := ProfileUpdate{ScoreOverride: &override}.Apply(profile, now)

		require.Error(t, err)
		assert.Nil(t, profile.ScoreOverride)
	})

	t.Run("negative reward delta rejected", func(t *testing.T) {
		profile := NewDefaultProfile("alice", now)
		delta := -3.0

		err := ProfileUpdate{AddTokenRewards: &delta}.Apply(profile, now)

		require.Error(t, err)
		assert.Zero(t, profile.TokenRewardsEarned)
	})
}

func TestReputationProfile_Clone(t *testing.T) {
	now := time.Now().UTC()
	profile := NewDefaultProfile("alice", now)
	override := 0.7
	profile.ScoreOverride = &override
	profile.Specializations = []string{"coffee"}

	clone := profile.Clone()
	*clone.ScoreOverride = 0.2
	clone.Specializations[0] = "tea"

	assert.InDelta(t, 0.7, *profile.ScoreOverride, 1e-9)
	assert.Equal(t, "coffee", profile.Specializations[0])
}

package trust

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func conn(from, to graph.UserID) Connection {
	return Connection{FollowerID: from, FollowedID: to, Timestamp: testNow.Add(-30 * 24 * time.Hour)}
}

func metadata(author graph.UserID, age time.Duration) ContentMetadata {
	return ContentMetadata{
		ContentID: "content-1",
		AuthorID:  author,
		CreatedAt: testNow.Add(-age),
	}
}

func interaction(user graph.UserID, kind InteractionType) UserInteraction {
	return UserInteraction{
		UserID:    user,
		ContentID: "content-1",
		Type:      kind,
		Timestamp: testNow.Add(-time.Hour),
	}
}

func TestCalculator_SocialTrustComponent(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	t.Run("own content is fully trusted socially", func(t *testing.T) {
		result, err := calc.Calculate("alice", nil, nil, metadata("alice", time.Hour), testNow)

		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.Breakdown.SocialTrust, 1e-9)
	})

	t.Run("directly followed author", func(t *testing.T) {
		connections := []Connection{conn("alice", "bob")}

		result, err := calc.Calculate("alice", connections, nil, metadata("bob", time.Hour), testNow)

		require.NoError(t, err)
		assert.InDelta(t, 0.75, result.Breakdown.SocialTrust, 1e-9)
	})

	t.Run("author two hops away", func(t *testing.T) {
		connections := []Connection{conn("alice", "bob"), conn("bob", "carol")}

		result, err := calc.Calculate("alice", connections, nil, metadata("carol", time.Hour), testNow)

		require.NoError(t, err)
		assert.InDelta(t, 0.25, result.Breakdown.SocialTrust, 1e-9)
	})

	t.Run("unreachable author scores zero social trust", func(t *testing.T) {
		connections := []Connection{conn("alice", "bob")}

		result, err := calc.Calculate("alice", connections, nil, metadata("stranger", time.Hour), testNow)

		require.NoError(t, err)
		assert.Zero(t, result.Breakdown.SocialTrust)
	})

	t.Run("direct edge wins over parallel two-hop path", func(t *testing.T) {
		connections := []Connection{
			conn("alice", "bob"),
			conn("alice", "carol"),
			conn("carol", "bob"),
		}

		result, err := calc.Calculate("alice", connections, nil, metadata("bob", time.Hour), testNow)

		require.NoError(t, err)
		assert.InDelta(t, 0.75, result.Breakdown.SocialTrust, 1e-9)
	})
}

func TestCalculator_QualitySignals(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{conn("alice", "bob"), conn("alice", "carol")}

	t.Run("upvote from a followed user raises quality", func(t *testing.T) {
		withVote, err := calc.Calculate("alice", connections,
			[]UserInteraction{interaction("carol", InteractionUpvote)},
			metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		without, err := calc.Calculate("alice", connections, nil, metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		assert.Greater(t, withVote.Breakdown.QualitySignals, without.Breakdown.QualitySignals)
		assert.Greater(t, withVote.FinalScore, without.FinalScore)
	})

	t.Run("downvotes pull quality down", func(t *testing.T) {
		mixed, err := calc.Calculate("alice", connections,
			[]UserInteraction{
				interaction("carol", InteractionUpvote),
				interaction("carol", InteractionDownvote),
			},
			metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		positive, err := calc.Calculate("alice", connections,
			[]UserInteraction{interaction("carol", InteractionUpvote)},
			metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		assert.Less(t, mixed.Breakdown.QualitySignals, positive.Breakdown.QualitySignals)
	})

	t.Run("same-cluster pile-on is dampened", func(t *testing.T) {
		// Ten direct-follow upvoters against one. Without decay the pile-on
		// would be worth ten times the single vote; the decay keeps it well
		// under that.
		manyConnections := []Connection{conn("alice", "bob")}
		var votes []UserInteraction
		for i := 0; i < 10; i++ {
			voter := graph.UserID(fmt.Sprintf("voter-%d", i))
			manyConnections = append(manyConnections, conn("alice", voter))
			votes = append(votes, interaction(voter, InteractionUpvote))
		}

		pileOn, err := calc.Calculate("alice", manyConnections, votes, metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		single, err := calc.Calculate("alice", manyConnections, votes[:1], metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		assert.Greater(t, pileOn.Breakdown.QualitySignals, single.Breakdown.QualitySignals)
		assert.Less(t, pileOn.Breakdown.QualitySignals, 10*single.Breakdown.QualitySignals)
	})

	t.Run("interactions on other content are ignored", func(t *testing.T) {
		other := interaction("carol", InteractionUpvote)
		other.ContentID = "content-2"

		result, err := calc.Calculate("alice", connections, []UserInteraction{other}, metadata("bob", time.Hour), testNow)

		require.NoError(t, err)
		assert.Zero(t, result.Breakdown.QualitySignals)
	})

	t.Run("interactions from unreachable users carry no weight", func(t *testing.T) {
		result, err := calc.Calculate("alice", connections,
			[]UserInteraction{interaction("stranger", InteractionUpvote)},
			metadata("bob", time.Hour), testNow)

		require.NoError(t, err)
		assert.Zero(t, result.Breakdown.QualitySignals)
	})
}

func TestCalculator_RecencyFactor(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	fresh, err := calc.Calculate("alice", nil, nil, metadata("alice", time.Minute), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fresh.Breakdown.Recency, 0.01)

	halfLife, err := calc.Calculate("alice", nil, nil, metadata("alice", 30*24*time.Hour), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, halfLife.Breakdown.Recency, 0.01)

	ancient, err := calc.Calculate("alice", nil, nil, metadata("alice", 10*365*24*time.Hour), testNow)
	require.NoError(t, err)
	assert.InDelta(t, DefaultRecencyFloor, ancient.Breakdown.Recency, 1e-9, "old content floors, never hard-zeroes")
}

func TestCalculator_DiversityBonus(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{
		conn("alice", "bob"),
		conn("alice", "carol"),
		conn("carol", "dave"),
	}

	concentrated, err := calc.Calculate("alice", connections,
		[]UserInteraction{
			interaction("carol", InteractionUpvote),
			interaction("carol", InteractionUpvote),
			interaction("carol", InteractionUpvote),
		},
		metadata("bob", time.Hour), testNow)
	require.NoError(t, err)

	spread, err := calc.Calculate("alice", connections,
		[]UserInteraction{
			interaction("carol", InteractionUpvote),
			interaction("dave", InteractionSave),
			interaction("alice", InteractionShare),
		},
		metadata("bob", time.Hour), testNow)
	require.NoError(t, err)

	assert.Zero(t, concentrated.Breakdown.Diversity, "one cluster, one type: no spread to reward")
	assert.Greater(t, spread.Breakdown.Diversity, concentrated.Breakdown.Diversity)
}

func TestCalculator_Confidence(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{conn("alice", "bob")}

	t.Run("confidence grows with evidence", func(t *testing.T) {
		none, err := calc.Calculate("alice", connections, nil, metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		one, err := calc.Calculate("alice", connections,
			[]UserInteraction{interaction("alice", InteractionUpvote)},
			metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, one.Confidence, none.Confidence)
	})

	t.Run("high point estimate on thin evidence stays low-confidence", func(t *testing.T) {
		thin, err := calc.Calculate("alice", connections,
			[]UserInteraction{interaction("alice", InteractionUpvote)},
			metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		richConnections := []Connection{conn("alice", "bob")}
		var votes []UserInteraction
		for i := 0; i < 20; i++ {
			voter := graph.UserID(fmt.Sprintf("voter-%02d", i))
			if i%2 == 0 {
				richConnections = append(richConnections, conn("alice", voter))
			} else {
				richConnections = append(richConnections, conn("bob", voter), conn("alice", graph.UserID(fmt.Sprintf("mid-%02d", i))))
				richConnections = append(richConnections, conn(graph.UserID(fmt.Sprintf("mid-%02d", i)), voter))
			}
			kinds := []InteractionType{InteractionUpvote, InteractionSave, InteractionShare}
			votes = append(votes, interaction(voter, kinds[i%3]))
		}

		rich, err := calc.Calculate("alice", richConnections, votes, metadata("bob", time.Hour), testNow)
		require.NoError(t, err)

		assert.Greater(t, rich.Confidence, thin.Confidence)
	})
}

func TestCalculator_Determinism(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{
		conn("alice", "bob"),
		conn("alice", "carol"),
		conn("carol", "dave"),
	}
	interactions := []UserInteraction{
		interaction("carol", InteractionUpvote),
		interaction("dave", InteractionSave),
		interaction("alice", InteractionDownvote),
	}

	first, err := calc.Calculate("alice", connections, interactions, metadata("bob", 48*time.Hour), testNow)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := calc.Calculate("alice", connections, interactions, metadata("bob", 48*time.Hour), testNow)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculator_InvalidInputFailsFast(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	t.Run("missing evaluator", func(t *testing.T) {
		_, err := calc.Calculate("", nil, nil, metadata("bob", time.Hour), testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidEvaluator)
	})

	t.Run("malformed metadata", func(t *testing.T) {
		bad := metadata("bob", time.Hour)
		bad.ContentID = ""
		_, err := calc.Calculate("alice", nil, nil, bad, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidContent)
	})

	t.Run("malformed interaction", func(t *testing.T) {
		bad := interaction("carol", InteractionType("poke"))
		_, err := calc.Calculate("alice", nil, []UserInteraction{bad}, metadata("bob", time.Hour), testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInteraction)
	})

	t.Run("self-loop connection", func(t *testing.T) {
		_, err := calc.Calculate("alice", []Connection{conn("bob", "bob")}, nil, metadata("bob", time.Hour), testNow)
		assert.Error(t, err)
	})

	t.Run("zero now", func(t *testing.T) {
		_, err := calc.Calculate("alice", nil, nil, metadata("bob", time.Hour), time.Time{})
		assert.Error(t, err)
	})
}

func TestCalculator_DocumentedScenario(t *testing.T) {
	// A follows B; B's content gets one upvote from A.
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{conn("alice", "bob")}
	vote := []UserInteraction{interaction("alice", InteractionUpvote)}

	scored, err := calc.Calculate("alice", connections, vote, metadata("bob", 24*time.Hour), testNow)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, scored.Breakdown.SocialTrust, 1e-9)
	assert.Greater(t, scored.Breakdown.QualitySignals, 0.0)

	unvoted, err := calc.Calculate("alice", connections, nil, metadata("bob", 24*time.Hour), testNow)
	require.NoError(t, err)
	assert.Greater(t, scored.FinalScore, unvoted.FinalScore)
}

func TestCalculator_ThresholdAndCategories(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	assert.False(t, calc.MeetsTrustThreshold(0.2))
	assert.True(t, calc.MeetsTrustThreshold(0.25))
	assert.True(t, calc.MeetsTrustThreshold(9.9))

	assert.Equal(t, CategoryLow, calc.CategoryFor(0))
	assert.Equal(t, CategoryLow, calc.CategoryFor(2.49))
	assert.Equal(t, CategoryModerate, calc.CategoryFor(2.5))
	assert.Equal(t, CategoryHigh, calc.CategoryFor(5.0))
	assert.Equal(t, CategoryExcellent, calc.CategoryFor(8.0))
	assert.Equal(t, CategoryExcellent, calc.CategoryFor(10.0))
}

func TestCalculator_SocialPath(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	connections := []Connection{conn("alice", "bob"), conn("alice", "carol")}

	result, err := calc.Calculate("alice", connections,
		[]UserInteraction{interaction("carol", InteractionUpvote)},
		metadata("bob", time.Hour), testNow)

	require.NoError(t, err)
	require.NotEmpty(t, result.SocialPath)
	assert.Equal(t, graph.UserID("bob"), result.SocialPath[0].UserID, "author leads the path")
	assert.Equal(t, 1, result.SocialPath[0].Distance)

	var carolListed bool
	for _, entry := range result.SocialPath {
		if entry.UserID == "carol" {
			carolListed = true
			assert.Greater(t, entry.ContributionWeight, 0.0)
		}
	}
	assert.True(t, carolListed, "contributing voter appears on the path")
}

func TestCalculatorConfig_Normalization(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{
		SocialWeight:    2,
		QualityWeight:   1,
		RecencyWeight:   0.5,
		DiversityWeight: 0.5,
	})

	config := calc.Config()
	sum := config.SocialWeight + config.QualityWeight + config.RecencyWeight + config.DiversityWeight
	assert.InDelta(t, 1.0, sum, 1e-9, "combination weights renormalize to sum 1")
	assert.Equal(t, DefaultMaxTrustScore, config.MaxTrustScore)
}

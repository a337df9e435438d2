package reputation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeGraphStore struct {
	edges map[graph.UserID]map[graph.UserID]*graph.FollowRelationship
	fail  error
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{edges: make(map[graph.UserID]map[graph.UserID]*graph.FollowRelationship)}
}

func (s *fakeGraphStore) GetOutboundEdges(_ context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	var edges []graph.OutboundEdge
	for followedID, rel := range s.edges[userID] {
		edges = append(edges, graph.OutboundEdge{
			FollowedID:  followedID,
			Timestamp:   rel.Timestamp,
			TrustWeight: rel.TrustWeight,
		})
	}
	return edges, nil
}

func (s *fakeGraphStore) GetEdge(_ context.Context, followerID, followedID graph.UserID) (*graph.SocialConnection, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	rel, ok := s.edges[followerID][followedID]
	if !ok {
		return nil, shared.ErrEdgeNotFound
	}
	conn, err := graph.NewSocialConnection(graph.NewSocialConnectionParams{
		ID:            string(rel.FollowerID) + "->" + string(rel.FollowedID),
		FromUserID:    rel.FollowerID,
		ToUserID:      rel.FollowedID,
		Type:          graph.ConnectionTypeFollow,
		EstablishedAt: rel.Timestamp,
		TrustWeight:   rel.TrustWeight,
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *fakeGraphStore) CreateEdge(_ context.Context, follow *graph.FollowRelationship) error {
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.edges[follow.FollowerID][follow.FollowedID]; ok {
		return shared.ErrAlreadyFollowing
	}
	if s.edges[follow.FollowerID] == nil {
		s.edges[follow.FollowerID] = make(map[graph.UserID]*graph.FollowRelationship)
	}
	s.edges[follow.FollowerID][follow.FollowedID] = follow
	return nil
}

func (s *fakeGraphStore) DeleteEdge(_ context.Context, followerID, followedID graph.UserID) error {
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.edges[followerID][followedID]; !ok {
		return shared.ErrNotFollowing
	}
	delete(s.edges[followerID], followedID)
	return nil
}

func (s *fakeGraphStore) CountEdges(_ context.Context, userID graph.UserID) (int, int, error) {
	if s.fail != nil {
		return 0, 0, s.fail
	}
	following := len(s.edges[userID])
	followers := 0
	for _, out := range s.edges {
		if _, ok := out[userID]; ok {
			followers++
		}
	}
	return following, followers, nil
}

type fakeProfileRepo struct {
	profiles map[graph.UserID]*ReputationProfile
	commits  uint64
	fail     error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[graph.UserID]*ReputationProfile)}
}

func (r *fakeProfileRepo) Get(_ context.Context, userID graph.UserID) (*ReputationProfile, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return profile.Clone(), nil
}

func (r *fakeProfileRepo) Put(_ context.Context, profile *ReputationProfile) (*ReputationProfile, shared.AuditRef, error) {
	if r.fail != nil {
		return nil, shared.AuditRef{}, r.fail
	}
	r.commits++
	r.profiles[profile.UserID] = profile.Clone()
	return profile.Clone(), shared.AuditRef{CommitNumber: r.commits, ObjectID: string(profile.UserID)}, nil
}

type recordingPublisher struct {
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) typesSeen() []shared.EventType {
	types := make([]shared.EventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.EventType())
	}
	return types
}

func newTestEngine() (*Engine, *fakeGraphStore, *fakeProfileRepo, *recordingPublisher) {
	store := newFakeGraphStore()
	repo := newFakeProfileRepo()
	publisher := &recordingPublisher{}
	engine := NewEngine(store, repo, nil, publisher, DefaultEngineConfig())
	return engine, store, repo, publisher
}

// ══════════════════════════════════════════════════════════════════════════════
// FOLLOW / UNFOLLOW
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_Follow(t *testing.T) {
	ctx := context.Background()

	t.Run("creates edge and updates both counters", func(t *testing.T) {
		engine, store, _, publisher := newTestEngine()

		result, err := engine.Follow(ctx, "alice", "bob")

		require.NoError(t, err)
		assert.Equal(t, 1, result.Follower.Following)
		assert.Equal(t, 0, result.Follower.Followers)
		assert.Equal(t, 1, result.Followed.Followers)
		assert.Equal(t, 0, result.Followed.Following)

		_, err = store.GetEdge(ctx, "alice", "bob")
		require.NoError(t, err)

		assert.Contains(t, publisher.typesSeen(), shared.EventUserFollowed)
	})

	t.Run("follower counter feeds the followed user's score", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		result, err := engine.Follow(ctx, "alice", "bob")

		require.NoError(t, err)
		// 0.1 base + 1 follower * 0.002
		assert.InDelta(t, 0.102, result.Followed.ReputationScore, 1e-9)
		assert.InDelta(t, 0.1, result.Follower.ReputationScore, 1e-9)
	})

	t.Run("duplicate follow is rejected and increments nothing", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		_, err := engine.Follow(ctx, "alice", "bob")
		require.NoError(t, err)

		_, err = engine.Follow(ctx, "alice", "bob")
		require.Error(t, err)
		assert.True(t, shared.IsAlreadyExists(err))

		profile, err := engine.GetProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, profile.Following, "counter incremented exactly once")
	})

	t.Run("self follow rejected", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		_, err := engine.Follow(ctx, "alice", "alice")
		assert.ErrorIs(t, err, shared.ErrSelfFollow)
	})
}

func TestEngine_Unfollow(t *testing.T) {
	ctx := context.Background()

	t.Run("restores pre-follow counters", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		_, err := engine.Follow(ctx, "alice", "bob")
		require.NoError(t, err)

		result, err := engine.Unfollow(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Follower.Following)
		assert.Equal(t, 0, result.Followed.Followers)
	})

	t.Run("unfollow without edge is an explicit rejection", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		_, err := engine.Unfollow(ctx, "alice", "bob")

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotFollowing)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TRUST WEIGHT
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_TrustWeight(t *testing.T) {
	ctx := context.Background()

	t.Run("self is always fully trusted", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		weight, err := engine.TrustWeight(ctx, "alice", "alice")

		require.NoError(t, err)
		assert.Equal(t, 1.0, weight)
	})

	t.Run("direct follow", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		_, err := engine.Follow(ctx, "alice", "bob")
		require.NoError(t, err)

		weight, err := engine.TrustWeight(ctx, "alice", "bob")

		require.NoError(t, err)
		assert.Equal(t, DefaultDirectFollowWeight, weight)
	})

	t.Run("two-hop path takes the secondary weight, not a sum", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		_, err := engine.Follow(ctx, "alice", "bob")
		require.NoError(t, err)
		_, err = engine.Follow(ctx, "alice", "carol")
		require.NoError(t, err)
		_, err = engine.Follow(ctx, "bob", "dave")
		require.NoError(t, err)
		_, err = engine.Follow(ctx, "carol", "dave")
		require.NoError(t, err)

		weight, err := engine.TrustWeight(ctx, "alice", "dave")

		require.NoError(t, err)
		assert.Equal(t, DefaultSecondaryFollowWeight, weight, "two parallel two-hop paths still yield one secondary weight")
	})

	t.Run("direct edge wins over two-hop path", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		_, err := engine.Follow(ctx, "alice", "bob")
		require.NoError(t, err)
		_, err = engine.Follow(ctx, "alice", "carol")
		require.NoError(t, err)
		_, err = engine.Follow(ctx, "bob", "carol")
		require.NoError(t, err)

		weight, err := engine.TrustWeight(ctx, "alice", "carol")

		require.NoError(t, err)
		assert.Equal(t, DefaultDirectFollowWeight, weight)
	})

	t.Run("no path yields zero without error", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()

		weight, err := engine.TrustWeight(ctx, "alice", "stranger")

		require.NoError(t, err)
		assert.Zero(t, weight)
	})

	t.Run("store outage is an error, not zero trust", func(t *testing.T) {
		engine, store, _, _ := newTestEngine()
		store.fail = errors.New("connection reset")

		_, err := engine.TrustWeight(ctx, "alice", "bob")

		require.Error(t, err)
		assert.True(t, shared.IsGraphUnavailable(err))
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE WRITES
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_UpsertProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("first write creates the default profile", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		upvotes := 10

		profile, audit, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{UpvotesReceived: &upvotes})

		require.NoError(t, err)
		assert.Equal(t, 10, profile.UpvotesReceived)
		assert.InDelta(t, 0.15, profile.ReputationScore, 1e-9)
		assert.False(t, audit.IsZero())
	})

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		recs := 5
		_, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{TotalRecommendations: &recs})
		require.NoError(t, err)

		upvotes := 20
		profile, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{UpvotesReceived: &upvotes})

		require.NoError(t, err)
		assert.Equal(t, 5, profile.TotalRecommendations)
		assert.Equal(t, 20, profile.UpvotesReceived)
	})

	t.Run("active-since survives later writes", func(t *testing.T) {
		engine, _, repo, _ := newTestEngine()
		recs := 1
		_, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{TotalRecommendations: &recs})
		require.NoError(t, err)
		created := repo.profiles["alice"].ActiveSince

		recs = 2
		profile, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{TotalRecommendations: &recs})

		require.NoError(t, err)
		assert.True(t, profile.ActiveSince.Equal(created))
	})

	t.Run("level change publishes an event", func(t *testing.T) {
		engine, _, _, publisher := newTestEngine()
		upvotes := 80 // 0.1 + 0.4 = 0.5 -> VERIFIED

		_, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{UpvotesReceived: &upvotes})

		require.NoError(t, err)
		assert.Contains(t, publisher.typesSeen(), shared.EventLevelChanged)
		assert.Contains(t, publisher.typesSeen(), shared.EventReputationUpdated)
	})

	t.Run("store failure propagates unchanged", func(t *testing.T) {
		engine, _, repo, _ := newTestEngine()
		repo.fail = errors.New("disk full")
		recs := 1

		_, _, err := engine.UpsertProfile(ctx, "alice", ProfileUpdate{TotalRecommendations: &recs})

		require.Error(t, err)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestEngine_UpdateReputationFromAction(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _ := newTestEngine()

	profile, _, err := engine.UpdateReputationFromAction(ctx, "alice", ActionContentCreated)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalRecommendations)

	profile, _, err = engine.UpdateReputationFromAction(ctx, "alice", ActionContentCreated)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalRecommendations)
	assert.InDelta(t, 0.12, profile.ReputationScore, 1e-9)

	_, _, err = engine.UpdateReputationFromAction(ctx, "alice", ContentAction("deleted"))
	require.Error(t, err)
}

func TestEngine_UpdateReputationFromVotes(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _ := newTestEngine()

	profile, _, err := engine.UpdateReputationFromVotes(ctx, "author", VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.UpvotesReceived)

	profile, _, err = engine.UpdateReputationFromVotes(ctx, "author", VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.DownvotesReceived)

	// 0.1 + 0.005 - 0.01
	assert.InDelta(t, 0.095, profile.ReputationScore, 1e-9)

	_, _, err = engine.UpdateReputationFromVotes(ctx, "author", VoteType("sideways"))
	require.Error(t, err)
}

func TestEngine_GetProfile_NotFound(t *testing.T) {
	engine, _, _, _ := newTestEngine()

	_, err := engine.GetProfile(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

package command

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memGraphStore struct {
	edges map[graph.UserID]map[graph.UserID]*graph.FollowRelationship
}

func newMemGraphStore() *memGraphStore {
	return &memGraphStore{edges: make(map[graph.UserID]map[graph.UserID]*graph.FollowRelationship)}
}

func (s *memGraphStore) GetOutboundEdges(_ context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	var out []graph.OutboundEdge
	for _, rel := range s.edges[userID] {
		out = append(out, graph.OutboundEdge{
			FollowedID:  rel.FollowedID,
			Timestamp:   rel.Timestamp,
			TrustWeight: rel.TrustWeight,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowedID < out[j].FollowedID })
	return out, nil
}

func (s *memGraphStore) GetEdge(_ context.Context, followerID, followedID graph.UserID) (*graph.SocialConnection, error) {
	rel, ok := s.edges[followerID][followedID]
	if !ok {
		return nil, shared.ErrEdgeNotFound
	}
	return &graph.SocialConnection{
		ID:            string(followerID) + "->" + string(followedID),
		FromUserID:    rel.FollowerID,
		ToUserID:      rel.FollowedID,
		Type:          graph.ConnectionTypeFollow,
		EstablishedAt: rel.Timestamp,
		TrustWeight:   rel.TrustWeight,
	}, nil
}

func (s *memGraphStore) CreateEdge(_ context.Context, rel *graph.FollowRelationship) error {
	if _, ok := s.edges[rel.FollowerID][rel.FollowedID]; ok {
		return shared.ErrAlreadyFollowing
	}
	if s.edges[rel.FollowerID] == nil {
		s.edges[rel.FollowerID] = make(map[graph.UserID]*graph.FollowRelationship)
	}
	s.edges[rel.FollowerID][rel.FollowedID] = rel
	return nil
}

func (s *memGraphStore) DeleteEdge(_ context.Context, followerID, followedID graph.UserID) error {
	if _, ok := s.edges[followerID][followedID]; !ok {
		return shared.ErrNotFollowing
	}
	delete(s.edges[followerID], followedID)
	return nil
}

func (s *memGraphStore) CountEdges(_ context.Context, userID graph.UserID) (int, int, error) {
	following := len(s.edges[userID])
	followers := 0
	for _, targets := range s.edges {
		if _, ok := targets[userID]; ok {
			followers++
		}
	}
	return following, followers, nil
}

type memProfileRepo struct {
	profiles map[graph.UserID]*reputation.ReputationProfile
	commits  uint64
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[graph.UserID]*reputation.ReputationProfile)}
}

func (r *memProfileRepo) Get(_ context.Context, userID graph.UserID) (*reputation.ReputationProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *memProfileRepo) Put(_ context.Context, profile *reputation.ReputationProfile) (*reputation.ReputationProfile, shared.AuditRef, error) {
	r.commits++
	r.profiles[profile.UserID] = profile.Clone()
	return profile.Clone(), shared.AuditRef{CommitNumber: r.commits, ObjectID: "obj-" + string(profile.UserID)}, nil
}

type recordingInvalidator struct {
	profiles []graph.UserID
	weights  []graph.UserID
}

func (r *recordingInvalidator) InvalidateProfile(_ context.Context, userID graph.UserID) error {
	r.profiles = append(r.profiles, userID)
	return nil
}

func (r *recordingInvalidator) InvalidateTrustWeights(_ context.Context, userID graph.UserID) error {
	r.weights = append(r.weights, userID)
	return nil
}

func newTestEngine(t *testing.T) (*reputation.Engine, *memGraphStore, *memProfileRepo) {
	t.Helper()
	store := newMemGraphStore()
	repo := newMemProfileRepo()
	engine := reputation.NewEngine(store, repo, nil, nil, reputation.EngineConfig{}).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return engine, store, repo
}

// ─────────────────────────────────────────────────────────────────────────────
// Follow / Unfollow
// ─────────────────────────────────────────────────────────────────────────────

func TestFollowUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the edge and updates both profiles", func(t *testing.T) {
		engine, store, _ := newTestEngine(t)
		inv := &recordingInvalidator{}
		h := NewFollowUserHandler(engine, inv, nil)

		result, err := h.Handle(ctx, FollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Follower.Following)
		assert.Equal(t, 1, result.Followed.Followers)

		_, err = store.GetEdge(ctx, "alice", "bob")
		assert.NoError(t, err)

		assert.ElementsMatch(t, []graph.UserID{"alice", "bob"}, inv.profiles)
		assert.ElementsMatch(t, []graph.UserID{"alice", "bob"}, inv.weights)
	})

	t.Run("rejects self follow before touching the engine", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewFollowUserHandler(engine, nil, nil)

		_, err := h.Handle(ctx, FollowUserCommand{FollowerID: "alice", FollowedID: "alice"})
		assert.Error(t, err)
	})

	t.Run("duplicate follow surfaces already following", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewFollowUserHandler(engine, nil, nil)

		_, err := h.Handle(ctx, FollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		require.NoError(t, err)

		_, err = h.Handle(ctx, FollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		assert.True(t, shared.IsAlreadyExists(err))
	})
}

func TestUnfollowUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the edge and restores counters", func(t *testing.T) {
		engine, store, _ := newTestEngine(t)
		inv := &recordingInvalidator{}
		follow := NewFollowUserHandler(engine, inv, nil)
		unfollow := NewUnfollowUserHandler(engine, inv, nil)

		_, err := follow.Handle(ctx, FollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		require.NoError(t, err)

		result, err := unfollow.Handle(ctx, UnfollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		require.NoError(t, err)

		assert.Equal(t, 0, result.Follower.Following)
		assert.Equal(t, 0, result.Followed.Followers)

		_, err = store.GetEdge(ctx, "alice", "bob")
		assert.ErrorIs(t, err, shared.ErrEdgeNotFound)
	})

	t.Run("unfollow without an edge fails", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewUnfollowUserHandler(engine, nil, nil)

		_, err := h.Handle(ctx, UnfollowUserCommand{FollowerID: "alice", FollowedID: "bob"})
		assert.True(t, shared.IsNotFound(err))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Engagement
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordContentHandler(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)
	h := NewRecordContentHandler(engine, nil, nil)

	profile, ref, err := h.Handle(ctx, RecordContentCommand{AuthorID: "alice", ContentID: "rec-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, profile.TotalRecommendations)
	assert.InDelta(t, 0.11, profile.ReputationScore, 1e-9)
	assert.NotZero(t, ref.CommitNumber)

	t.Run("missing author", func(t *testing.T) {
		_, _, err := h.Handle(ctx, RecordContentCommand{ContentID: "rec-1"})
		assert.Error(t, err)
	})
}

func TestRecordVoteHandler(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)
	h := NewRecordVoteHandler(engine, nil, nil)

	profile, _, err := h.Handle(ctx, RecordVoteCommand{AuthorID: "alice", Vote: "up"})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.UpvotesReceived)

	profile, _, err = h.Handle(ctx, RecordVoteCommand{AuthorID: "alice", Vote: "down"})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.DownvotesReceived)

	t.Run("unknown vote type", func(t *testing.T) {
		_, _, err := h.Handle(ctx, RecordVoteCommand{AuthorID: "alice", Vote: "sideways"})
		assert.Error(t, err)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile Update
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateProfileHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a partial update", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewUpdateProfileHandler(engine, nil, nil)

		recs := 10
		ups := 50
		profile, ref, err := h.Handle(ctx, UpdateProfileCommand{
			UserID:               "alice",
			TotalRecommendations: &recs,
			UpvotesReceived:      &ups,
		})
		require.NoError(t, err)

		assert.Equal(t, 10, profile.TotalRecommendations)
		assert.Equal(t, 50, profile.UpvotesReceived)
		assert.InDelta(t, 0.45, profile.ReputationScore, 1e-9)
		assert.NotZero(t, ref.CommitNumber)
	})

	t.Run("override out of range is rejected", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewUpdateProfileHandler(engine, nil, nil)

		bad := 1.2
		_, _, err := h.Handle(ctx, UpdateProfileCommand{UserID: "alice", ScoreOverride: &bad})
		assert.Error(t, err)
	})

	t.Run("negative rewards are rejected", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		h := NewUpdateProfileHandler(engine, nil, nil)

		neg := -5.0
		_, _, err := h.Handle(ctx, UpdateProfileCommand{UserID: "alice", AddTokenRewards: &neg})
		assert.Error(t, err)
	})
}

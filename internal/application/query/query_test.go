package query

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
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/trust"
)

var queryNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memGraphStore struct {
	edges map[graph.UserID][]graph.OutboundEdge
}

func (s *memGraphStore) follow(from, to graph.UserID) {
	if s.edges == nil {
		s.edges = make(map[graph.UserID][]graph.OutboundEdge)
	}
	s.edges[from] = append(s.edges[from], graph.OutboundEdge{
		FollowedID:  to,
		Timestamp:   queryNow.Add(-24 * time.Hour),
		TrustWeight: 0.75,
	})
}

func (s *memGraphStore) GetOutboundEdges(_ context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	out := make([]graph.OutboundEdge, len(s.edges[userID]))
	copy(out, s.edges[userID])
	return out, nil
}

func (s *memGraphStore) GetEdge(_ context.Context, followerID, followedID graph.UserID) (*graph.SocialConnection, error) {
	for _, edge := range s.edges[followerID] {
		if edge.FollowedID == followedID {
			return &graph.SocialConnection{
				ID:            string(followerID) + "->" + string(followedID),
				FromUserID:    followerID,
				ToUserID:      followedID,
				Type:          graph.ConnectionTypeFollow,
				EstablishedAt: edge.Timestamp,
				TrustWeight:   edge.TrustWeight,
			}, nil
		}
	}
	return nil, shared.ErrEdgeNotFound
}

func (s *memGraphStore) CreateEdge(_ context.Context, rel *graph.FollowRelationship) error {
	s.follow(rel.FollowerID, rel.FollowedID)
	return nil
}

func (s *memGraphStore) DeleteEdge(context.Context, graph.UserID, graph.UserID) error {
	return shared.ErrNotFollowing
}

func (s *memGraphStore) CountEdges(_ context.Context, userID graph.UserID) (int, int, error) {
	return len(s.edges[userID]), 0, nil
}

type memProfileRepo struct {
	profiles map[graph.UserID]*reputation.ReputationProfile
}

func (r *memProfileRepo) Get(_ context.Context, userID graph.UserID) (*reputation.ReputationProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *memProfileRepo) Put(_ context.Context, profile *reputation.ReputationProfile) (*reputation.ReputationProfile, shared.AuditRef, error) {
	if r.profiles == nil {
		r.profiles = make(map[graph.UserID]*reputation.ReputationProfile)
	}
	r.profiles[profile.UserID] = profile.Clone()
	return profile.Clone(), shared.AuditRef{CommitNumber: 1, ObjectID: "obj"}, nil
}

type memContentSource struct {
	metadata     trust.ContentMetadata
	interactions []trust.UserInteraction
}

func (m *memContentSource) GetContentMetadata(_ context.Context, contentID string) (trust.ContentMetadata, error) {
	return m.metadata, nil
}

func (m *memContentSource) GetInteractions(_ context.Context, contentID string) ([]trust.UserInteraction, error) {
	return m.interactions, nil
}

type memProfileCache struct {
	entries map[graph.UserID]*reputation.ReputationProfile
	hits    int
	writes  int
}

func (c *memProfileCache) Get(_ context.Context, userID graph.UserID) (*reputation.ReputationProfile, error) {
	p, ok := c.entries[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	c.hits++
	return p, nil
}

func (c *memProfileCache) Set(_ context.Context, profile *reputation.ReputationProfile) error {
	if c.entries == nil {
		c.entries = make(map[graph.UserID]*reputation.ReputationProfile)
	}
	c.entries[profile.UserID] = profile
	c.writes++
	return nil
}

func newQueryEngine(store graph.MutableStore, repo reputation.Repository) *reputation.Engine {
	return reputation.NewEngine(store, repo, nil, nil, reputation.EngineConfig{}).
		WithClock(func() time.Time { return queryNow })
}

// ─────────────────────────────────────────────────────────────────────────────
// Get Profile
// ─────────────────────────────────────────────────────────────────────────────

func TestGetProfileHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("store miss returns not found", func(t *testing.T) {
		engine := newQueryEngine(&memGraphStore{}, &memProfileRepo{})
		h := NewGetProfileHandler(engine, nil, nil)

		_, err := h.Handle(ctx, GetProfileQuery{UserID: "ghost"})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("reads through the cache", func(t *testing.T) {
		repo := &memProfileRepo{}
		engine := newQueryEngine(&memGraphStore{}, repo)
		profile := reputation.NewDefaultProfile("alice", queryNow)
		_, _, err := repo.Put(ctx, profile)
		require.NoError(t, err)

		cache := &memProfileCache{}
		h := NewGetProfileHandler(engine, cache, nil)

		dto, err := h.Handle(ctx, GetProfileQuery{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "alice", dto.UserID)
		assert.Equal(t, 1, cache.writes)

		_, err = h.Handle(ctx, GetProfileQuery{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.hits)
	})

	t.Run("override is reported as effective score", func(t *testing.T) {
		repo := &memProfileRepo{}
		engine := newQueryEngine(&memGraphStore{}, repo)

		profile := reputation.NewDefaultProfile("alice", queryNow)
		override := 0.9
		profile.ScoreOverride = &override
		profile.Recompute()
		_, _, err := repo.Put(ctx, profile)
		require.NoError(t, err)

		dto, err := NewGetProfileHandler(engine, nil, nil).Handle(ctx, GetProfileQuery{UserID: "alice"})
		require.NoError(t, err)

		assert.True(t, dto.HasOverride)
		assert.InDelta(t, 0.9, dto.EffectiveScore, 1e-9)
		assert.InDelta(t, 0.1, dto.ReputationScore, 1e-9)
		assert.Equal(t, "expert", dto.VerificationLevel)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Get Trust Weight
// ─────────────────────────────────────────────────────────────────────────────

func TestGetTrustWeightHandler(t *testing.T) {
	ctx := context.Background()

	store := &memGraphStore{}
	store.follow("alice", "bob")
	store.follow("bob", "carol")
	engine := newQueryEngine(store, &memProfileRepo{})
	h := NewGetTrustWeightHandler(engine, nil, nil)

	cases := []struct {
		name   string
		source string
		target string
		weight float64
	}{
		{"self", "alice", "alice", 1.0},
		{"direct follow", "alice", "bob", 0.75},
		{"two hops", "alice", "carol", 0.25},
		{"unreachable", "alice", "dave", 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dto, err := h.Handle(ctx, GetTrustWeightQuery{SourceID: tc.source, TargetID: tc.target})
			require.NoError(t, err)
			assert.InDelta(t, tc.weight, dto.Weight, 1e-9)
		})
	}

	t.Run("missing target is rejected", func(t *testing.T) {
		_, err := h.Handle(ctx, GetTrustWeightQuery{SourceID: "alice"})
		assert.Error(t, err)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Get Trust Score
// ─────────────────────────────────────────────────────────────────────────────

func TestGetTrustScoreHandler(t *testing.T) {
	ctx := context.Background()

	store := &memGraphStore{}
	store.follow("alice", "bob")

	content := &memContentSource{
		metadata: trust.ContentMetadata{
			ContentID: "rec-1",
			AuthorID:  "bob",
			CreatedAt: queryNow.Add(-2 * time.Hour),
			Category:  "restaurants",
		},
		interactions: []trust.UserInteraction{
			{UserID: "bob", ContentID: "rec-1", Type: trust.InteractionUpvote, Timestamp: queryNow.Add(-time.Hour)},
		},
	}

	calc := trust.NewCalculator(trust.CalculatorConfig{})
	h := NewGetTrustScoreHandler(calc, NewGraphConnectionSource(store), content, nil, nil).
		WithClock(func() time.Time { return queryNow })

	dto, err := h.Handle(ctx, GetTrustScoreQuery{UserID: "alice", ContentID: "rec-1"})
	require.NoError(t, err)

	assert.Equal(t, "rec-1", dto.ContentID)
	assert.InDelta(t, 0.75, dto.Breakdown.SocialTrust, 1e-9, "author is a direct follow")
	assert.Greater(t, dto.FinalScore, 0.0)
	assert.NotEmpty(t, dto.Category)
	require.NotEmpty(t, dto.SocialPath)
	assert.Equal(t, "bob", dto.SocialPath[0].UserID)

	t.Run("validation failures", func(t *testing.T) {
		_, err := h.Handle(ctx, GetTrustScoreQuery{ContentID: "rec-1"})
		assert.Error(t, err)

		_, err = h.Handle(ctx, GetTrustScoreQuery{UserID: "alice"})
		assert.Error(t, err)
	})
}

func TestGraphConnectionSource_TwoHopSnapshot(t *testing.T) {
	ctx := context.Background()

	store := &memGraphStore{}
	store.follow("alice", "bob")
	store.follow("bob", "carol")
	store.follow("carol", "dave") // three hops out, not part of the snapshot

	source := NewGraphConnectionSource(store)
	connections, err := source.ConnectionsFor(ctx, "alice")
	require.NoError(t, err)

	pairs := make([]string, 0, len(connections))
	for _, conn := range connections {
		pairs = append(pairs, string(conn.FollowerID)+"->"+string(conn.FollowedID))
	}
	sort.Strings(pairs)

	assert.Equal(t, []string{"alice->bob", "bob->carol"}, pairs)
}

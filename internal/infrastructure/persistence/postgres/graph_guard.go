package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUARDED GRAPH STORE
// ══════════════════════════════════════════════════════════════════════════════

// GuardedGraphStore wraps a graph.MutableStore with a circuit breaker. When
// the database is down, resolver traversals fail fast with
// shared.ErrGraphUnavailable instead of queueing on a dead pool. Domain
// outcomes (not found, already following) do not trip the breaker.
type GuardedGraphStore struct {
	inner   graph.MutableStore
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedGraphStore wraps inner with a graph store breaker.
func NewGuardedGraphStore(inner graph.MutableStore, onStateChange func(name string, from, to circuitbreaker.State)) *GuardedGraphStore {
	breaker := circuitbreaker.New(
		"graph-store",
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(10*time.Second),
		circuitbreaker.WithMaxHalfOpenRequests(1),
		circuitbreaker.WithOnStateChange(onStateChange),
		circuitbreaker.WithIsFailure(shared.IsGraphUnavailable),
	)

	return &GuardedGraphStore{inner: inner, breaker: breaker}
}

var _ graph.MutableStore = (*GuardedGraphStore)(nil)

// execute runs fn through the breaker, mapping an open circuit to a graph
// outage.
func (g *GuardedGraphStore) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := g.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("graph", op, shared.ErrGraphUnavailable, "graph store circuit open", err)
	}
	return err
}

func (g *GuardedGraphStore) GetOutboundEdges(ctx context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	var edges []graph.OutboundEdge
	err := g.execute(ctx, "GetOutboundEdges", func(ctx context.Context) error {
		var innerErr error
		edges, innerErr = g.inner.GetOutboundEdges(ctx, userID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (g *GuardedGraphStore) GetEdge(ctx context.Context, followerID, followedID graph.UserID) (*graph.SocialConnection, error) {
	var conn *graph.SocialConnection
	err := g.execute(ctx, "GetEdge", func(ctx context.Context) error {
		var innerErr error
		conn, innerErr = g.inner.GetEdge(ctx, followerID, followedID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (g *GuardedGraphStore) CreateEdge(ctx context.Context, follow *graph.FollowRelationship) error {
	return g.execute(ctx, "CreateEdge", func(ctx context.Context) error {
		return g.inner.CreateEdge(ctx, follow)
	})
}

func (g *GuardedGraphStore) DeleteEdge(ctx context.Context, followerID, followedID graph.UserID) error {
	return g.execute(ctx, "DeleteEdge", func(ctx context.Context) error {
		return g.inner.DeleteEdge(ctx, followerID, followedID)
	})
}

func (g *GuardedGraphStore) CountEdges(ctx context.Context, userID graph.UserID) (int, int, error) {
	var following, followers int
	err := g.execute(ctx, "CountEdges", func(ctx context.Context) error {
		var innerErr error
		following, followers, innerErr = g.inner.CountEdges(ctx, userID)
		return innerErr
	})
	if err != nil {
		return 0, 0, err
	}
	return following, followers, nil
}

// Package postgres implements the PostgreSQL persistence layer for the trust
// and reputation subsystem.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GraphRepository implements graph.MutableStore for PostgreSQL. Infrastructure
// failures are wrapped in shared.ErrGraphUnavailable so callers can tell a
// store outage apart from an absent relationship.
type GraphRepository struct {
	conn *Connection
}

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(conn *Connection) *GraphRepository {
	return &GraphRepository{conn: conn}
}

var _ graph.MutableStore = (*GraphRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Read Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetOutboundEdges returns all outgoing edges for a user, oldest first.
// An unknown user yields an empty slice.
func (r *GraphRepository) GetOutboundEdges(ctx context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	query := `
		SELECT followed_id, established_at, trust_weight
		FROM social_edges
		WHERE follower_id = $1
		ORDER BY established_at, followed_id
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, string(userID))
	if err != nil {
		return nil, r.unavailable("GetOutboundEdges", err)
	}
	defer rows.Close()

	var edges []graph.OutboundEdge
	for rows.Next() {
		var edge graph.OutboundEdge
		var followedID string
		var weight float64

		if err := rows.Scan(&followedID, &edge.Timestamp, &weight); err != nil {
			return nil, r.unavailable("GetOutboundEdges", err)
		}

		edge.FollowedID = graph.UserID(followedID)
		edge.TrustWeight = graph.TrustWeight(weight)
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, r.unavailable("GetOutboundEdges", err)
	}

	return edges, nil
}

// GetEdge returns the active edge between an ordered pair.
func (r *GraphRepository) GetEdge(ctx context.Context, followerID, followedID graph.UserID) (*graph.SocialConnection, error) {
	query := `
		SELECT id, trust_weight, established_at
		FROM social_edges
		WHERE follower_id = $1 AND followed_id = $2
	`

	conn := &graph.SocialConnection{
		FromUserID: followerID,
		ToUserID:   followedID,
		Type:       graph.ConnectionTypeFollow,
	}

	var weight float64
	err := r.conn.querier(ctx).QueryRow(ctx, query, string(followerID), string(followedID)).
		Scan(&conn.ID, &weight, &conn.EstablishedAt)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, shared.ErrEdgeNotFound
		}
		return nil, r.unavailable("GetEdge", err)
	}

	conn.TrustWeight = graph.TrustWeight(weight)
	return conn, nil
}

// CountEdges returns the outgoing and incoming edge counts for a user.
func (r *GraphRepository) CountEdges(ctx context.Context, userID graph.UserID) (int, int, error) {
	query := `
		SELECT
			(SELECT count(*) FROM social_edges WHERE follower_id = $1),
			(SELECT count(*) FROM social_edges WHERE followed_id = $1)
	`

	var following, followers int
	err := r.conn.querier(ctx).QueryRow(ctx, query, string(userID)).Scan(&following, &followers)
	if err != nil {
		return 0, 0, r.unavailable("CountEdges", err)
	}

	return following, followers, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Write Operations
// ─────────────────────────────────────────────────────────────────────────────

// CreateEdge inserts a direct follow edge.
func (r *GraphRepository) CreateEdge(ctx context.Context, follow *graph.FollowRelationship) error {
	query := `
		INSERT INTO social_edges (follower_id, followed_id, trust_weight, established_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		string(follow.FollowerID),
		string(follow.FollowedID),
		float64(follow.TrustWeight),
		follow.Timestamp,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyFollowing
		}
		return r.unavailable("CreateEdge", err)
	}

	return nil
}

// DeleteEdge removes the active edge between the ordered pair.
func (r *GraphRepository) DeleteEdge(ctx context.Context, followerID, followedID graph.UserID) error {
	query := `
		DELETE FROM social_edges
		WHERE follower_id = $1 AND followed_id = $2
	`

	tag, err := r.conn.querier(ctx).Exec(ctx, query, string(followerID), string(followedID))
	if err != nil {
		return r.unavailable("DeleteEdge", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFollowing
	}

	return nil
}

// unavailable wraps an infrastructure failure as a graph outage.
func (r *GraphRepository) unavailable(op string, err error) error {
	return shared.WrapError("graph", op, shared.ErrGraphUnavailable,
		fmt.Sprintf("postgres query failed: %v", err), err)
}

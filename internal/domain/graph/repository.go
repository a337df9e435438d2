package graph

import (
	"context"
)

// Store is the read capability over the follow graph. Implementations must
// wrap infrastructure failures in shared.ErrGraphUnavailable so callers can
// tell a store outage apart from an absent relationship.
type Store interface {
	// GetOutboundEdges returns all outgoing edges for a user. An unknown user
	// yields an empty slice, not an error.
	GetOutboundEdges(ctx context.Context, userID UserID) ([]OutboundEdge, error)

	// GetEdge returns the active edge between an ordered pair, or
	// shared.ErrEdgeNotFound when no active edge exists.
	GetEdge(ctx context.Context, followerID, followedID UserID) (*SocialConnection, error)
}

// MutableStore extends Store with follow-graph mutation. The store enforces
// at most one active edge per ordered pair.
type MutableStore interface {
	Store

	// CreateEdge inserts a direct follow edge. Returns
	// shared.ErrAlreadyFollowing when an active edge already exists.
	CreateEdge(ctx context.Context, follow *FollowRelationship) error

	// DeleteEdge removes the active edge between the ordered pair. Returns
	// shared.ErrNotFollowing when no active edge exists.
	DeleteEdge(ctx context.Context, followerID, followedID UserID) error

	// CountEdges returns the number of outgoing and incoming active edges for
	// a user. Used by the reconciliation pass to repair counter drift.
	CountEdges(ctx context.Context, userID UserID) (following int, followers int, err error)
}

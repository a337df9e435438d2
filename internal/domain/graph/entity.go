// Package graph contains the domain model for the directed follow graph:
// connections between users, the edges the trust subsystem traverses, and the
// bounded resolver that turns the graph into social distances.
package graph

import (
	"fmt"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID represents a user identifier (UUID in string form).
type UserID string

// IsValid checks that the UserID is non-empty.
func (u UserID) IsValid() bool {
	return len(u) > 0
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// TrustWeight is a pairwise trust coefficient in [0, 1].
type TrustWeight float64

// IsValid checks that the weight is in the allowed range.
func (w TrustWeight) IsValid() bool {
	return w >= 0.0 && w <= 1.0
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// ConnectionType classifies a social connection.
type ConnectionType string

const (
	// ConnectionTypeFollow is a plain directed follow.
	ConnectionTypeFollow ConnectionType = "follow"

	// ConnectionTypeTrust is an explicit trust grant.
	ConnectionTypeTrust ConnectionType = "trust"

	// ConnectionTypeVerified is a verified relationship (e.g. confirmed identity).
	ConnectionTypeVerified ConnectionType = "verified"
)

// IsValid checks the connection type.
func (c ConnectionType) IsValid() bool {
	switch c {
	case ConnectionTypeFollow, ConnectionTypeTrust, ConnectionTypeVerified:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: SOCIAL CONNECTION
// A directed edge in the follow graph. At most one active edge may exist per
// ordered (from, to) pair; the store enforces uniqueness.
// ══════════════════════════════════════════════════════════════════════════════

// SocialConnection is a directed edge between two users.
type SocialConnection struct {
	// ID is the unique edge identifier (UUID).
	ID string

	// FromUserID is the user the edge originates from.
	FromUserID UserID

	// ToUserID is the user the edge points to.
	ToUserID UserID

	// Type classifies the connection.
	Type ConnectionType

	// EstablishedAt is when the edge was created.
	EstablishedAt time.Time

	// TrustWeight is the per-edge trust coefficient in [0, 1].
	TrustWeight TrustWeight
}

// NewSocialConnectionParams holds constructor input for a connection.
type NewSocialConnectionParams struct {
	ID            string
	FromUserID    UserID
	ToUserID      UserID
	Type          ConnectionType
	EstablishedAt time.Time
	TrustWeight   TrustWeight
}

// NewSocialConnection creates and validates a new directed edge.
func NewSocialConnection(params NewSocialConnectionParams) (*SocialConnection, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("graph", "NewConnection", shared.ErrEmptyValue, "connection id is required")
	}
	if !params.FromUserID.IsValid() || !params.ToUserID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if params.FromUserID == params.ToUserID {
		return nil, shared.ErrSelfFollow
	}
	if !params.Type.IsValid() {
		return nil, shared.NewDomainError("graph", "NewConnection", shared.ErrInvalidInput, fmt.Sprintf("invalid connection type: %s", params.Type))
	}
	if !params.TrustWeight.IsValid() {
		return nil, shared.NewDomainError("graph", "NewConnection", shared.ErrValueOutOfRange, "trust weight must be in [0, 1]")
	}

	establishedAt := params.EstablishedAt
	if establishedAt.IsZero() {
		establishedAt = time.Now().UTC()
	}

	return &SocialConnection{
		ID:            params.ID,
		FromUserID:    params.FromUserID,
		ToUserID:      params.ToUserID,
		Type:          params.Type,
		EstablishedAt: establishedAt,
		TrustWeight:   params.TrustWeight,
	}, nil
}

// Involves checks whether the given user is an endpoint of the edge.
func (c *SocialConnection) Involves(userID UserID) bool {
	return c.FromUserID == userID || c.ToUserID == userID
}

// String returns a representation for logging.
func (c *SocialConnection) String() string {
	return fmt.Sprintf("SocialConnection{%s -> %s, Type: %s, Weight: %.2f}",
		c.FromUserID, c.ToUserID, c.Type, c.TrustWeight)
}

// Clone creates a copy of the connection.
func (c *SocialConnection) Clone() *SocialConnection {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: FOLLOW RELATIONSHIP
// The canonical distance-1 edge produced by a follow mutation. TrustWeight is
// a policy constant (config), not a per-edge judgement.
// ══════════════════════════════════════════════════════════════════════════════

// FollowRelationship is a direct follow between two users.
type FollowRelationship struct {
	// FollowerID is the user who follows.
	FollowerID UserID

	// FollowedID is the user being followed.
	FollowedID UserID

	// Timestamp is when the follow was created.
	Timestamp time.Time

	// Distance is always 1 for a direct follow.
	Distance int

	// TrustWeight is the policy constant for direct follows.
	TrustWeight TrustWeight
}

// NewFollowRelationship creates a validated direct follow edge.
func NewFollowRelationship(followerID, followedID UserID, weight TrustWeight, now time.Time) (*FollowRelationship, error) {
	if !followerID.IsValid() || !followedID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if followerID == followedID {
		return nil, shared.ErrSelfFollow
	}
	if !weight.IsValid() {
		return nil, shared.NewDomainError("graph", "NewFollow", shared.ErrValueOutOfRange, "trust weight must be in [0, 1]")
	}

	return &FollowRelationship{
		FollowerID:  followerID,
		FollowedID:  followedID,
		Timestamp:   now,
		Distance:    1,
		TrustWeight: weight,
	}, nil
}

// String returns a representation for logging.
func (f *FollowRelationship) String() string {
	return fmt.Sprintf("Follow{%s -> %s}", f.FollowerID, f.FollowedID)
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTBOUND EDGE
// Read-model row returned by the graph store for fan-out scans.
// ══════════════════════════════════════════════════════════════════════════════

// OutboundEdge is a single outgoing edge as read from the store.
type OutboundEdge struct {
	// FollowedID is the target of the edge.
	FollowedID UserID

	// Timestamp is when the edge was established.
	Timestamp time.Time

	// TrustWeight is the stored per-edge weight.
	TrustWeight TrustWeight
}

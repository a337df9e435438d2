package graph

import (
	"context"
	"sort"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOCIAL DISTANCE RESOLVER
// Bounded BFS over the follow graph. Two hops maximum: deeper traversal is a
// deliberate non-goal, and the fan-out cap bounds worst-case cost to O(cap)
// store lookups per call.
// ══════════════════════════════════════════════════════════════════════════════

// Default resolver parameters.
const (
	DefaultMaxDepth  = 2
	DefaultFanOutCap = 100
)

// ResolverConfig bounds the resolver's traversal.
type ResolverConfig struct {
	// MaxDepth is the maximum hop count considered (capped at 2).
	MaxDepth int

	// FanOutCap limits how many of the evaluating user's direct follows are
	// scanned when probing for a two-hop path.
	FanOutCap int
}

// DefaultResolverConfig returns the standard bounds.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MaxDepth:  DefaultMaxDepth,
		FanOutCap: DefaultFanOutCap,
	}
}

func (c ResolverConfig) normalized() ResolverConfig {
	if c.MaxDepth <= 0 || c.MaxDepth > DefaultMaxDepth {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.FanOutCap <= 0 {
		c.FanOutCap = DefaultFanOutCap
	}
	return c
}

// PathHop is one step of the resolved social path, kept for explainability.
type PathHop struct {
	// UserID is the user at this hop.
	UserID UserID

	// Distance is the hop count from the evaluating user.
	Distance int

	// EdgeWeight is the stored weight of the edge leading to this hop.
	EdgeWeight TrustWeight
}

// Resolution is the outcome of a distance lookup.
type Resolution struct {
	// Distance is the shortest hop count found. Meaningful only when
	// Reachable is true.
	Distance int

	// Reachable is false when no path exists within MaxDepth. This is a
	// definite "no relationship", never a stand-in for a store failure.
	Reachable bool

	// Path is the path used, in hop order. Tie-breaks among equal-length
	// paths are deterministic (edge timestamp, then followed ID) and affect
	// only which path is recorded, never the distance.
	Path []PathHop
}

// Resolver computes bounded social distances between users.
type Resolver struct {
	store  Store
	config ResolverConfig
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, config ResolverConfig) *Resolver {
	return &Resolver{
		store:  store,
		config: config.normalized(),
	}
}

// Resolve returns the shortest social distance from the evaluating user to the
// target, up to MaxDepth hops. Callers normally short-circuit the self case;
// the resolver still answers it with distance 0 for robustness.
//
// Store failures propagate as shared.ErrGraphUnavailable and are never
// coerced into an unreachable result.
func (r *Resolver) Resolve(ctx context.Context, evaluatingID, targetID UserID) (Resolution, error) {
	if !evaluatingID.IsValid() || !targetID.IsValid() {
		return Resolution{}, shared.ErrInvalidUserID
	}

	if evaluatingID == targetID {
		return Resolution{Distance: 0, Reachable: true}, nil
	}

	// Distance 1: direct edge.
	direct, err := r.store.GetEdge(ctx, evaluatingID, targetID)
	if err != nil && !shared.IsNotFound(err) {
		return Resolution{}, shared.WrapError("graph", "Resolve", shared.ErrGraphUnavailable, "direct edge lookup failed", err)
	}
	if direct != nil {
		return Resolution{
			Distance:  1,
			Reachable: true,
			Path: []PathHop{
				{UserID: targetID, Distance: 1, EdgeWeight: direct.TrustWeight},
			},
		}, nil
	}

	if r.config.MaxDepth < 2 {
		return Resolution{Reachable: false}, nil
	}

	// Distance 2: probe each direct follow for an edge to the target.
	edges, err := r.store.GetOutboundEdges(ctx, evaluatingID)
	if err != nil {
		return Resolution{}, shared.WrapError("graph", "Resolve", shared.ErrGraphUnavailable, "fan-out scan failed", err)
	}

	candidates := sortOutboundEdges(edges)
	if len(candidates) > r.config.FanOutCap {
		candidates = candidates[:r.config.FanOutCap]
	}

	for _, edge := range candidates {
		if err := ctx.Err(); err != nil {
			return Resolution{}, shared.WrapError("graph", "Resolve", shared.ErrTimeout, "resolve cancelled", err)
		}
		if edge.FollowedID == targetID {
			// Already checked as a direct edge; skip to keep the scan cheap.
			continue
		}

		hop, err := r.store.GetEdge(ctx, edge.FollowedID, targetID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return Resolution{}, shared.WrapError("graph", "Resolve", shared.ErrGraphUnavailable, "second-hop lookup failed", err)
		}

		return Resolution{
			Distance:  2,
			Reachable: true,
			Path: []PathHop{
				{UserID: edge.FollowedID, Distance: 1, EdgeWeight: edge.TrustWeight},
				{UserID: targetID, Distance: 2, EdgeWeight: hop.TrustWeight},
			},
		}, nil
	}

	return Resolution{Reachable: false}, nil
}

// sortOutboundEdges orders edges for the deterministic tie-break: oldest edge
// first, then by followed ID.
func sortOutboundEdges(edges []OutboundEdge) []OutboundEdge {
	sorted := make([]OutboundEdge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].FollowedID < sorted[j].FollowedID
	})
	return sorted
}

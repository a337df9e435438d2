package reputation

import (
	"context"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// Repository persists reputation profiles.
//
// Implementations must treat a profile write as the commit point: Put returns
// the committed profile together with the audit reference of the mutation, so
// callers can surface both without a second read.
type Repository interface {
	// Get returns the profile for userID.
	// Returns shared.ErrProfileNotFound when no profile exists.
	Get(ctx context.Context, userID graph.UserID) (*ReputationProfile, error)

	// Put creates or replaces the profile and returns the committed state
	// with its audit reference.
	Put(ctx context.Context, profile *ReputationProfile) (*ReputationProfile, shared.AuditRef, error)
}

// Atomic runs fn inside a single transaction when the backing store supports
// one. Repository and graph store calls made through the ctx passed to fn
// share that transaction. Stores without transactions run fn directly; the
// reconciliation worker repairs any drift a partial failure leaves behind.
type Atomic interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopAtomic runs fn without transactional guarantees. Used with stores that
// have no transaction support and in tests.
type NoopAtomic struct{}

// Atomic implements Atomic.
func (NoopAtomic) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

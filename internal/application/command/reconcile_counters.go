package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE COUNTERS COMMAND
// Recounts follow edges against profile counters and repairs drift. The
// follower and following counters are denormalized; a crash between the
// edge write and the counter write can leave them stale. This pass is the
// safety net.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileCountersCommand bounds one reconciliation pass.
type ReconcileCountersCommand struct {
	// BatchSize is how many profiles to check per page.
	BatchSize int

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c ReconcileCountersCommand) Validate() error {
	if c.BatchSize < 0 {
		return errors.New("reconcile_counters: batch_size cannot be negative")
	}
	return nil
}

// ReconcileCountersResult summarizes one pass.
type ReconcileCountersResult struct {
	// Checked is how many profiles were compared against the graph.
	Checked int

	// Repaired is how many profiles had drifted counters.
	Repaired int

	// Duration is the wall time of the pass.
	Duration time.Duration
}

// ProfileLister pages through all known profile IDs in a stable order.
type ProfileLister interface {
	// ListUserIDs returns up to limit user IDs strictly after afterID.
	// An empty afterID starts from the beginning.
	ListUserIDs(ctx context.Context, afterID graph.UserID, limit int) ([]graph.UserID, error)
}

// ReconcileCountersHandler handles the ReconcileCountersCommand.
type ReconcileCountersHandler struct {
	engine      *reputation.Engine
	graphStore  graph.MutableStore
	lister      ProfileLister
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewReconcileCountersHandler creates a new ReconcileCountersHandler.
func NewReconcileCountersHandler(
	engine *reputation.Engine,
	graphStore graph.MutableStore,
	lister ProfileLister,
	invalidator TrustCacheInvalidator,
	log *logger.Logger,
) *ReconcileCountersHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &ReconcileCountersHandler{
		engine:      engine,
		graphStore:  graphStore,
		lister:      lister,
		invalidator: invalidator,
		log:         log.With(logger.Component("reconcile_counters")),
	}
}

// Handle executes one full reconciliation pass.
func (h *ReconcileCountersHandler) Handle(ctx context.Context, cmd ReconcileCountersCommand) (*ReconcileCountersResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reconcile_counters: validation failed: %w", err)
	}

	batchSize := cmd.BatchSize
	if batchSize == 0 {
		batchSize = 500
	}

	start := time.Now()
	result := &ReconcileCountersResult{}

	var afterID graph.UserID
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ids, err := h.lister.ListUserIDs(ctx, afterID, batchSize)
		if err != nil {
			return result, fmt.Errorf("reconcile_counters: listing profiles: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, userID := range ids {
			repaired, err := h.reconcileOne(ctx, userID)
			if err != nil {
				h.log.Warn("reconcile failed for user", logger.UserID(string(userID)), logger.Err(err))
				continue
			}
			result.Checked++
			if repaired {
				result.Repaired++
			}
		}

		afterID = ids[len(ids)-1]
		if len(ids) < batchSize {
			break
		}
	}

	result.Duration = time.Since(start)

	h.log.Info("reconciliation pass complete",
		logger.Int("checked", result.Checked),
		logger.Int("repaired", result.Repaired),
		logger.Latency(result.Duration),
	)

	return result, nil
}

// reconcileOne compares one profile's counters to the edge counts and
// repairs a mismatch.
func (h *ReconcileCountersHandler) reconcileOne(ctx context.Context, userID graph.UserID) (bool, error) {
	profile, err := h.engine.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}

	following, followers, err := h.graphStore.CountEdges(ctx, userID)
	if err != nil {
		return false, err
	}

	if profile.Following == following && profile.Followers == followers {
		return false, nil
	}

	h.log.Info("counter drift detected",
		logger.UserID(string(userID)),
		logger.Int("stored_following", profile.Following),
		logger.Int("actual_following", following),
		logger.Int("stored_followers", profile.Followers),
		logger.Int("actual_followers", followers),
	)

	_, _, err = h.engine.UpsertProfile(ctx, userID, reputation.ProfileUpdate{
		Followers: &followers,
		Following: &following,
	})
	if err != nil {
		return false, err
	}

	if err := h.invalidator.InvalidateProfile(ctx, userID); err != nil {
		h.log.Warn("profile cache invalidation failed", logger.UserID(string(userID)), logger.Err(err))
	}

	return true, nil
}

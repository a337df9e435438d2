package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRUST WEIGHT QUERY
// Returns the policy trust weight between two users: 1.0 for self, the
// direct-follow weight at one hop, the secondary weight at two hops, zero
// beyond. A graph outage is an error, not a zero.
// ══════════════════════════════════════════════════════════════════════════════

// GetTrustWeightQuery contains the parameters for a pairwise weight lookup.
type GetTrustWeightQuery struct {
	// SourceID is the evaluating user.
	SourceID string

	// TargetID is the user being weighed.
	TargetID string
}

// Validate validates the query.
func (q GetTrustWeightQuery) Validate() error {
	if q.SourceID == "" {
		return errors.New("get_trust_weight: source_id must be provided")
	}
	if q.TargetID == "" {
		return errors.New("get_trust_weight: target_id must be provided")
	}
	return nil
}

// TrustWeightDTO is the read model of a pairwise trust weight.
type TrustWeightDTO struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Weight   float64 `json:"weight"`
}

// TrustWeightCacheReader is the read-through cache over resolved weights.
type TrustWeightCacheReader interface {
	Get(ctx context.Context, sourceID, targetID graph.UserID) (float64, error)
	Set(ctx context.Context, sourceID, targetID graph.UserID, weight float64) error
}

// GetTrustWeightHandler handles the GetTrustWeightQuery.
type GetTrustWeightHandler struct {
	engine *reputation.Engine
	cache  TrustWeightCacheReader
	log    *logger.Logger
}

// NewGetTrustWeightHandler creates a new GetTrustWeightHandler. cache may be
// nil.
func NewGetTrustWeightHandler(engine *reputation.Engine, cache TrustWeightCacheReader, log *logger.Logger) *GetTrustWeightHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetTrustWeightHandler{
		engine: engine,
		cache:  cache,
		log:    log.With(logger.Component("get_trust_weight")),
	}
}

// Handle executes the get trust weight query.
func (h *GetTrustWeightHandler) Handle(ctx context.Context, q GetTrustWeightQuery) (*TrustWeightDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_trust_weight: validation failed: %w", err)
	}

	sourceID := graph.UserID(q.SourceID)
	targetID := graph.UserID(q.TargetID)

	if h.cache != nil {
		if weight, err := h.cache.Get(ctx, sourceID, targetID); err == nil {
			return &TrustWeightDTO{SourceID: q.SourceID, TargetID: q.TargetID, Weight: weight}, nil
		}
	}

	weight, err := h.engine.TrustWeight(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, sourceID, targetID, weight); err != nil {
			h.log.Warn("trust weight cache write failed",
				logger.UserID(q.SourceID),
				logger.TargetID(q.TargetID),
				logger.Err(err),
			)
		}
	}

	return &TrustWeightDTO{SourceID: q.SourceID, TargetID: q.TargetID, Weight: weight}, nil
}

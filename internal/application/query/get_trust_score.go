package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/trust"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRUST SCORE QUERY
// Scores one content item for one evaluating user on the 0..10 scale,
// combining social proximity to the author, interaction quality signals,
// recency, and interaction diversity.
// ══════════════════════════════════════════════════════════════════════════════

// GetTrustScoreQuery contains the parameters for a trust score calculation.
type GetTrustScoreQuery struct {
	// UserID is the evaluating user.
	UserID string

	// ContentID identifies the content to score.
	ContentID string
}

// Validate validates the query.
func (q GetTrustScoreQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_trust_score: user_id must be provided")
	}
	if q.ContentID == "" {
		return errors.New("get_trust_score: content_id must be provided")
	}
	return nil
}

// TrustScoreDTO is the read model of a computed trust score.
type TrustScoreDTO struct {
	ContentID      string            `json:"content_id"`
	UserID         string            `json:"user_id"`
	FinalScore     float64           `json:"final_score"`
	Confidence     float64           `json:"confidence"`
	Category       string            `json:"category"`
	MeetsThreshold bool              `json:"meets_threshold"`
	Breakdown      ScoreBreakdownDTO `json:"breakdown"`
	SocialPath     []PathEntryDTO    `json:"social_path"`
}

// ScoreBreakdownDTO mirrors the component factors of a score.
type ScoreBreakdownDTO struct {
	SocialTrust    float64 `json:"social_trust"`
	QualitySignals float64 `json:"quality_signals"`
	Recency        float64 `json:"recency"`
	Diversity      float64 `json:"diversity"`
}

// PathEntryDTO is one contributor on the social path.
type PathEntryDTO struct {
	UserID             string  `json:"user_id"`
	Distance           int     `json:"distance"`
	ContributionWeight float64 `json:"contribution_weight"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// ConnectionSource supplies the follow-graph slice a calculation sees.
type ConnectionSource interface {
	// ConnectionsFor returns every follow edge on paths of up to two hops
	// out of the evaluating user.
	ConnectionsFor(ctx context.Context, evaluatingUserID graph.UserID) ([]trust.Connection, error)
}

// ContentSource supplies content metadata and its interactions.
type ContentSource interface {
	// GetContentMetadata returns the metadata for one content item.
	GetContentMetadata(ctx context.Context, contentID string) (trust.ContentMetadata, error)

	// GetInteractions returns all recorded interactions with the content.
	GetInteractions(ctx context.Context, contentID string) ([]trust.UserInteraction, error)
}

// TrustScoreCacheReader caches computed scores per (user, content) pair.
type TrustScoreCacheReader interface {
	Get(ctx context.Context, userID graph.UserID, contentID string) (*trust.TrustScoreResult, error)
	Set(ctx context.Context, userID graph.UserID, result *trust.TrustScoreResult) error
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetTrustScoreHandler handles the GetTrustScoreQuery.
type GetTrustScoreHandler struct {
	calculator  *trust.Calculator
	connections ConnectionSource
	content     ContentSource
	cache       TrustScoreCacheReader
	log         *logger.Logger
	now         func() time.Time
}

// NewGetTrustScoreHandler creates a new GetTrustScoreHandler. cache may be
// nil.
func NewGetTrustScoreHandler(
	calculator *trust.Calculator,
	connections ConnectionSource,
	content ContentSource,
	cache TrustScoreCacheReader,
	log *logger.Logger,
) *GetTrustScoreHandler {
	if log == nil {
		log = logger.Default()
	}

	return &GetTrustScoreHandler{
		calculator:  calculator,
		connections: connections,
		content:     content,
		cache:       cache,
		log:         log.With(logger.Component("get_trust_score")),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the handler's clock. Used in tests.
func (h *GetTrustScoreHandler) WithClock(now func() time.Time) *GetTrustScoreHandler {
	h.now = now
	return h
}

// Handle executes the get trust score query.
func (h *GetTrustScoreHandler) Handle(ctx context.Context, q GetTrustScoreQuery) (*TrustScoreDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_trust_score: validation failed: %w", err)
	}

	userID := graph.UserID(q.UserID)

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, userID, q.ContentID); err == nil {
			return h.toDTO(q.UserID, cached), nil
		}
	}

	metadata, err := h.content.GetContentMetadata(ctx, q.ContentID)
	if err != nil {
		return nil, fmt.Errorf("get_trust_score: content lookup failed: %w", err)
	}

	interactions, err := h.content.GetInteractions(ctx, q.ContentID)
	if err != nil {
		return nil, fmt.Errorf("get_trust_score: interaction lookup failed: %w", err)
	}

	connections, err := h.connections.ConnectionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := h.calculator.Calculate(userID, connections, interactions, metadata, h.now())
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, userID, result); err != nil {
			h.log.Warn("trust score cache write failed",
				logger.UserID(q.UserID),
				logger.ContentID(q.ContentID),
				logger.Err(err),
			)
		}
	}

	h.log.Debug("trust score computed",
		logger.UserID(q.UserID),
		logger.ContentID(q.ContentID),
		logger.Score(result.FinalScore),
		logger.Confidence(result.Confidence),
	)

	return h.toDTO(q.UserID, result), nil
}

func (h *GetTrustScoreHandler) toDTO(userID string, r *trust.TrustScoreResult) *TrustScoreDTO {
	path := make([]PathEntryDTO, 0, len(r.SocialPath))
	for _, entry := range r.SocialPath {
		path = append(path, PathEntryDTO{
			UserID:             string(entry.UserID),
			Distance:           entry.Distance,
			ContributionWeight: entry.ContributionWeight,
		})
	}

	return &TrustScoreDTO{
		ContentID:      r.ContentID,
		UserID:         userID,
		FinalScore:     r.FinalScore,
		Confidence:     r.Confidence,
		Category:       string(r.Category),
		MeetsThreshold: h.calculator.MeetsTrustThreshold(r.FinalScore),
		Breakdown: ScoreBreakdownDTO{
			SocialTrust:    r.Breakdown.SocialTrust,
			QualitySignals: r.Breakdown.QualitySignals,
			Recency:        r.Breakdown.Recency,
			Diversity:      r.Breakdown.Diversity,
		},
		SocialPath: path,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH-BACKED CONNECTION SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// connectionFanOutCap bounds the per-user edge list, matching the resolver's
// traversal cap so the query and the resolver agree on reachability.
const connectionFanOutCap = graph.DefaultFanOutCap

// GraphConnectionSource builds a two-hop connection snapshot from the graph
// store.
type GraphConnectionSource struct {
	store graph.Store
}

// NewGraphConnectionSource creates a GraphConnectionSource.
func NewGraphConnectionSource(store graph.Store) *GraphConnectionSource {
	return &GraphConnectionSource{store: store}
}

var _ ConnectionSource = (*GraphConnectionSource)(nil)

// ConnectionsFor implements ConnectionSource. It returns the evaluating
// user's outbound edges plus the outbound edges of each direct followed, the
// complete edge set for paths of length two. Each list is sorted oldest
// first and capped before expansion.
func (s *GraphConnectionSource) ConnectionsFor(ctx context.Context, evaluatingUserID graph.UserID) ([]trust.Connection, error) {
	direct, err := s.cappedEdges(ctx, evaluatingUserID)
	if err != nil {
		return nil, err
	}

	connections := make([]trust.Connection, 0, len(direct)*2)
	for _, edge := range direct {
		connections = append(connections, trust.Connection{
			FollowerID: evaluatingUserID,
			FollowedID: edge.FollowedID,
			Timestamp:  edge.Timestamp,
		})
	}

	for _, edge := range direct {
		second, err := s.cappedEdges(ctx, edge.FollowedID)
		if err != nil {
			return nil, err
		}
		for _, hop := range second {
			connections = append(connections, trust.Connection{
				FollowerID: edge.FollowedID,
				FollowedID: hop.FollowedID,
				Timestamp:  hop.Timestamp,
			})
		}
	}

	return connections, nil
}

// cappedEdges fetches one user's outbound edges in deterministic order and
// applies the fan-out cap.
func (s *GraphConnectionSource) cappedEdges(ctx context.Context, userID graph.UserID) ([]graph.OutboundEdge, error) {
	edges, err := s.store.GetOutboundEdges(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Timestamp.Equal(edges[j].Timestamp) {
			return edges[i].FollowedID < edges[j].FollowedID
		}
		return edges[i].Timestamp.Before(edges[j].Timestamp)
	})

	if len(edges) > connectionFanOutCap {
		edges = edges[:connectionFanOutCap]
	}

	return edges, nil
}

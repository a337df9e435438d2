// Package trust implements viewer-relative trust scoring of content. The
// calculator is pure: all graph state arrives as inputs and the clock is an
// explicit parameter, so identical inputs always produce identical output.
package trust

import (
	"fmt"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// InteractionType classifies how a user engaged with content.
type InteractionType string

const (
	InteractionUpvote   InteractionType = "upvote"
	InteractionSave     InteractionType = "save"
	InteractionShare    InteractionType = "share"
	InteractionDownvote InteractionType = "downvote"
)

// IsValid checks the interaction type.
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionUpvote, InteractionSave, InteractionShare, InteractionDownvote:
		return true
	default:
		return false
	}
}

// SignalWeight returns the quality-signal value of the interaction type.
// Downvotes carry a negative weight rather than a small positive one.
func (t InteractionType) SignalWeight() float64 {
	switch t {
	case InteractionUpvote:
		return 1.0
	case InteractionSave:
		return 0.8
	case InteractionShare:
		return 0.6
	case InteractionDownvote:
		return -1.0
	default:
		return 0
	}
}

// TrustCategory labels a final trust score band.
type TrustCategory string

const (
	CategoryLow       TrustCategory = "low"
	CategoryModerate  TrustCategory = "moderate"
	CategoryHigh      TrustCategory = "high"
	CategoryExcellent TrustCategory = "excellent"
)

// ══════════════════════════════════════════════════════════════════════════════
// INPUTS
// All request-scoped. The calculator owns no persistent state.
// ══════════════════════════════════════════════════════════════════════════════

// Connection is one directed follow edge supplied to the calculator.
type Connection struct {
	FollowerID graph.UserID `json:"follower_id"`
	FollowedID graph.UserID `json:"followed_id"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Validate checks the connection.
func (c Connection) Validate() error {
	if !c.FollowerID.IsValid() || !c.FollowedID.IsValid() {
		return shared.NewDomainError("trust", "Validate", shared.ErrInvalidInput, "connection endpoints are required")
	}
	if c.FollowerID == c.FollowedID {
		return shared.NewDomainError("trust", "Validate", shared.ErrInvalidInput, "connection cannot be a self-loop")
	}
	return nil
}

// ContentMetadata describes the content item being scored.
type ContentMetadata struct {
	ContentID string       `json:"content_id"`
	AuthorID  graph.UserID `json:"author_id"`
	CreatedAt time.Time    `json:"created_at"`
	Category  string       `json:"category,omitempty"`
}

// Validate checks the metadata. Malformed input fails fast: a silent zero
// score would be indistinguishable from legitimately untrusted content.
func (m ContentMetadata) Validate() error {
	if m.ContentID == "" {
		return shared.ErrInvalidContent
	}
	if !m.AuthorID.IsValid() {
		return shared.ErrInvalidContent
	}
	if m.CreatedAt.IsZero() {
		return shared.ErrInvalidContent
	}
	return nil
}

// UserInteraction is one engagement record supplied to the calculator.
type UserInteraction struct {
	UserID    graph.UserID    `json:"user_id"`
	ContentID string          `json:"content_id"`
	Type      InteractionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate checks the interaction record.
func (i UserInteraction) Validate() error {
	if !i.UserID.IsValid() {
		return shared.ErrInvalidInteraction
	}
	if i.ContentID == "" {
		return shared.ErrInvalidInteraction
	}
	if !i.Type.IsValid() {
		return shared.ErrInvalidInteraction
	}
	if i.Timestamp.IsZero() {
		return shared.ErrInvalidInteraction
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

// ScoreBreakdown exposes the pre-combination components, each in [0, 1].
type ScoreBreakdown struct {
	SocialTrust    float64 `json:"social_trust"`
	QualitySignals float64 `json:"quality_signals"`
	Recency        float64 `json:"recency"`
	Diversity      float64 `json:"diversity"`
}

// PathEntry is one contributor on the explainability path.
type PathEntry struct {
	UserID             graph.UserID `json:"user_id"`
	Distance           int          `json:"distance"`
	ContributionWeight float64      `json:"contribution_weight"`
}

// TrustScoreResult is the scored outcome for one content item from one
// viewer's perspective.
type TrustScoreResult struct {
	ContentID string `json:"content_id"`

	// FinalScore is in [0, MaxTrustScore].
	FinalScore float64 `json:"final_score"`

	// Confidence reflects evidence volume, independent of FinalScore's
	// magnitude. A high point estimate on thin evidence reports low
	// confidence.
	Confidence float64 `json:"confidence"`

	Category  TrustCategory  `json:"category"`
	Breakdown ScoreBreakdown `json:"breakdown"`

	// SocialPath lists the most-contributing users, highest first.
	SocialPath []PathEntry `json:"social_path,omitempty"`
}

// String returns a representation for logging.
func (r *TrustScoreResult) String() string {
	return fmt.Sprintf(
		"TrustScoreResult{Content: %s, Score: %.3f, Confidence: %.3f, Category: %s}",
		r.ContentID, r.FinalScore, r.Confidence, r.Category,
	)
}

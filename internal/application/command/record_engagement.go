package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD CONTENT COMMAND
// Credits an author for newly created content. The recommendation counter
// feeds the reputation formula.
// ══════════════════════════════════════════════════════════════════════════════

// RecordContentCommand records a content creation against its author.
type RecordContentCommand struct {
	// AuthorID is the content author.
	AuthorID string

	// ContentID identifies the created content. Informational; the counter
	// does not deduplicate per content.
	ContentID string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c RecordContentCommand) Validate() error {
	if c.AuthorID == "" {
		return errors.New("record_content: author_id must be provided")
	}
	return nil
}

// RecordContentHandler handles the RecordContentCommand.
type RecordContentHandler struct {
	engine      *reputation.Engine
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewRecordContentHandler creates a new RecordContentHandler.
func NewRecordContentHandler(engine *reputation.Engine, invalidator TrustCacheInvalidator, log *logger.Logger) *RecordContentHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &RecordContentHandler{
		engine:      engine,
		invalidator: invalidator,
		log:         log.With(logger.Component("record_content")),
	}
}

// Handle executes the record content command.
func (h *RecordContentHandler) Handle(ctx context.Context, cmd RecordContentCommand) (*reputation.ReputationProfile, shared.AuditRef, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.AuditRef{}, fmt.Errorf("record_content: validation failed: %w", err)
	}

	profile, ref, err := h.engine.UpdateReputationFromAction(ctx, graph.UserID(cmd.AuthorID), reputation.ActionContentCreated)
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	if err := h.invalidator.InvalidateProfile(ctx, profile.UserID); err != nil {
		h.log.Warn("profile cache invalidation failed", logger.UserID(cmd.AuthorID), logger.Err(err))
	}

	h.log.Info("content recorded",
		logger.UserID(cmd.AuthorID),
		logger.ContentID(cmd.ContentID),
		logger.Score(profile.ReputationScore),
		logger.CommitNumber(ref.CommitNumber),
	)

	return profile, ref, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD VOTE COMMAND
// Credits or debits a content author for a received vote.
// ══════════════════════════════════════════════════════════════════════════════

// RecordVoteCommand records an up or down vote against a content author.
type RecordVoteCommand struct {
	// AuthorID is the author of the voted content.
	AuthorID string

	// Vote is "up" or "down".
	Vote string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c RecordVoteCommand) Validate() error {
	if c.AuthorID == "" {
		return errors.New("record_vote: author_id must be provided")
	}
	if !reputation.VoteType(c.Vote).IsValid() {
		return fmt.Errorf("record_vote: vote must be %q or %q", reputation.VoteUp, reputation.VoteDown)
	}
	return nil
}

// RecordVoteHandler handles the RecordVoteCommand.
type RecordVoteHandler struct {
	engine      *reputation.Engine
	invalidator TrustCacheInvalidator
	log         *logger.Logger
}

// NewRecordVoteHandler creates a new RecordVoteHandler.
func NewRecordVoteHandler(engine *reputation.Engine, invalidator TrustCacheInvalidator, log *logger.Logger) *RecordVoteHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &RecordVoteHandler{
		engine:      engine,
		invalidator: invalidator,
		log:         log.With(logger.Component("record_vote")),
	}
}

// Handle executes the record vote command.
func (h *RecordVoteHandler) Handle(ctx context.Context, cmd RecordVoteCommand) (*reputation.ReputationProfile, shared.AuditRef, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.AuditRef{}, fmt.Errorf("record_vote: validation failed: %w", err)
	}

	profile, ref, err := h.engine.UpdateReputationFromVotes(ctx, graph.UserID(cmd.AuthorID), reputation.VoteType(cmd.Vote))
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	if err := h.invalidator.InvalidateProfile(ctx, profile.UserID); err != nil {
		h.log.Warn("profile cache invalidation failed", logger.UserID(cmd.AuthorID), logger.Err(err))
	}

	h.log.Info("vote recorded",
		logger.UserID(cmd.AuthorID),
		logger.String("vote", cmd.Vote),
		logger.Score(profile.ReputationScore),
		logger.CommitNumber(ref.CommitNumber),
	)

	return profile, ref, nil
}

// Package postgres implements the PostgreSQL persistence layer for the trust
// and reputation subsystem.
package postgres

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements reputation.Repository for PostgreSQL. Every Put
// appends an audit_log row in the same statement batch, so the returned audit
// reference identifies exactly the committed state.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var (
	_ reputation.Repository = (*ProfileRepository)(nil)
	_ reputation.Atomic     = (*ProfileRepository)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Repository Operations
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the profile for userID.
func (r *ProfileRepository) Get(ctx context.Context, userID graph.UserID) (*reputation.ReputationProfile, error) {
	query := `
		SELECT user_id, total_recommendations, upvotes_received, downvotes_received,
			   reputation_score, score_override, verification_level, specializations,
			   active_since, token_rewards_earned, followers, following, updated_at
		FROM reputation_profiles
		WHERE user_id = $1
	`

	row := r.conn.querier(ctx).QueryRow(ctx, query, string(userID))
	return r.scanProfile(row)
}

// Put creates or replaces the profile and appends the audit record.
func (r *ProfileRepository) Put(ctx context.Context, profile *reputation.ReputationProfile) (*reputation.ReputationProfile, shared.AuditRef, error) {
	if err := profile.Validate(); err != nil {
		return nil, shared.AuditRef{}, err
	}

	query := `
		INSERT INTO reputation_profiles (
			user_id, total_recommendations, upvotes_received, downvotes_received,
			reputation_score, score_override, verification_level, specializations,
			active_since, token_rewards_earned, followers, following, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			total_recommendations = EXCLUDED.total_recommendations,
			upvotes_received = EXCLUDED.upvotes_received,
			downvotes_received = EXCLUDED.downvotes_received,
			reputation_score = EXCLUDED.reputation_score,
			score_override = EXCLUDED.score_override,
			verification_level = EXCLUDED.verification_level,
			specializations = EXCLUDED.specializations,
			token_rewards_earned = EXCLUDED.token_rewards_earned,
			followers = EXCLUDED.followers,
			following = EXCLUDED.following,
			updated_at = EXCLUDED.updated_at
	`

	q := r.conn.querier(ctx)

	_, err := q.Exec(ctx, query,
		string(profile.UserID),
		profile.TotalRecommendations,
		profile.UpvotesReceived,
		profile.DownvotesReceived,
		profile.ReputationScore,
		profile.ScoreOverride,
		string(profile.VerificationLevel),
		profile.Specializations,
		profile.ActiveSince,
		profile.TokenRewardsEarned,
		profile.Followers,
		profile.Following,
		profile.UpdatedAt,
	)
	if err != nil {
		return nil, shared.AuditRef{}, fmt.Errorf("failed to upsert profile: %w", err)
	}

	ref, err := r.appendAudit(ctx, q, string(profile.UserID), "profile_upsert", profile)
	if err != nil {
		return nil, shared.AuditRef{}, err
	}

	return profile.Clone(), ref, nil
}

// ListUserIDs returns up to limit profile IDs strictly after afterID in
// lexical order. Used by the reconciliation pass to page the full profile
// set without offsets.
func (r *ProfileRepository) ListUserIDs(ctx context.Context, afterID graph.UserID, limit int) ([]graph.UserID, error) {
	query := `
		SELECT user_id
		FROM reputation_profiles
		WHERE user_id > $1
		ORDER BY user_id
		LIMIT $2
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, string(afterID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile ids: %w", err)
	}
	defer rows.Close()

	var ids []graph.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile id: %w", err)
		}
		ids = append(ids, graph.UserID(id))
	}

	return ids, rows.Err()
}

// Atomic implements reputation.Atomic. Repository and graph store calls made
// through the ctx passed to fn run on the same transaction.
func (r *ProfileRepository) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		// Already inside a transaction, join it.
		return fn(ctx)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Audit Log
// ─────────────────────────────────────────────────────────────────────────────

// appendAudit inserts an audit row and returns its reference. The payload
// digest binds the commit to the exact committed state.
func (r *ProfileRepository) appendAudit(ctx context.Context, q Querier, aggregateID, action string, payload interface{}) (shared.AuditRef, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return shared.AuditRef{}, fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	digest := blake2b.Sum256(raw)
	objectID := uuid.New().String()

	query := `
		INSERT INTO audit_log (object_id, aggregate_id, action, payload_digest)
		VALUES ($1, $2, $3, $4)
		RETURNING commit_number
	`

	var commitNumber uint64
	err = q.QueryRow(ctx, query, objectID, aggregateID, action, hex.EncodeToString(digest[:])).
		Scan(&commitNumber)
	if err != nil {
		return shared.AuditRef{}, fmt.Errorf("failed to append audit record: %w", err)
	}

	return shared.AuditRef{CommitNumber: commitNumber, ObjectID: objectID}, nil
}

// scanProfile scans a single profile row.
func (r *ProfileRepository) scanProfile(row pgx.Row) (*reputation.ReputationProfile, error) {
	var p reputation.ReputationProfile
	var userID, level string
	var override *float64

	err := row.Scan(
		&userID,
		&p.TotalRecommendations,
		&p.UpvotesReceived,
		&p.DownvotesReceived,
		&p.ReputationScore,
		&override,
		&level,
		&p.Specializations,
		&p.ActiveSince,
		&p.TokenRewardsEarned,
		&p.Followers,
		&p.Following,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.UserID = graph.UserID(userID)
	p.ScoreOverride = override
	p.VerificationLevel = reputation.VerificationLevel(level)

	return &p, nil
}

// Package postgres implements the PostgreSQL persistence layer for the trust
// and reputation subsystem.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SOCIAL EDGES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create social_edges table
-- Version: 001

-- One row per active follow edge. The unique constraint enforces at most
-- one active edge per ordered (follower, followed) pair.
CREATE TABLE IF NOT EXISTS social_edges (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    follower_id VARCHAR(64) NOT NULL,
    followed_id VARCHAR(64) NOT NULL,
    trust_weight DECIMAL(4,3) NOT NULL DEFAULT 0.750,
    established_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT social_edges_pair_unique UNIQUE (follower_id, followed_id),
    CONSTRAINT social_edges_no_self CHECK (follower_id <> followed_id),
    CONSTRAINT social_edges_weight_range CHECK (trust_weight >= 0 AND trust_weight <= 1)
);

-- Outbound traversal: ordered so the fan-out cap keeps the oldest edges.
CREATE INDEX IF NOT EXISTS idx_social_edges_outbound
    ON social_edges (follower_id, established_at, followed_id);

-- Inbound counting for follower counters and reconciliation.
CREATE INDEX IF NOT EXISTS idx_social_edges_inbound
    ON social_edges (followed_id);
`

const migration001Down = `
DROP INDEX IF EXISTS idx_social_edges_inbound;
DROP INDEX IF EXISTS idx_social_edges_outbound;
DROP TABLE IF EXISTS social_edges;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE REPUTATION PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create reputation_profiles table
-- Version: 002

CREATE TABLE IF NOT EXISTS reputation_profiles (
    user_id VARCHAR(64) PRIMARY KEY,
    total_recommendations INTEGER NOT NULL DEFAULT 0,
    upvotes_received INTEGER NOT NULL DEFAULT 0,
    downvotes_received INTEGER NOT NULL DEFAULT 0,
    reputation_score DECIMAL(4,3) NOT NULL DEFAULT 0.100,
    score_override DECIMAL(4,3),
    verification_level VARCHAR(20) NOT NULL DEFAULT 'basic',
    specializations TEXT[] NOT NULL DEFAULT '{}',
    active_since TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    token_rewards_earned DECIMAL(18,6) NOT NULL DEFAULT 0,
    followers INTEGER NOT NULL DEFAULT 0,
    following INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT reputation_profiles_counters_nonneg CHECK (
        total_recommendations >= 0 AND
        upvotes_received >= 0 AND
        downvotes_received >= 0 AND
        followers >= 0 AND
        following >= 0
    ),
    CONSTRAINT reputation_profiles_score_range CHECK (
        reputation_score >= 0 AND reputation_score <= 1
    ),
    CONSTRAINT reputation_profiles_override_range CHECK (
        score_override IS NULL OR (score_override >= 0 AND score_override <= 1)
    ),
    CONSTRAINT reputation_profiles_rewards_nonneg CHECK (token_rewards_earned >= 0),
    CONSTRAINT reputation_profiles_level_valid CHECK (
        verification_level IN ('basic', 'verified', 'expert')
    )
);

CREATE INDEX IF NOT EXISTS idx_reputation_profiles_level
    ON reputation_profiles (verification_level);
`

const migration002Down = `
DROP INDEX IF EXISTS idx_reputation_profiles_level;
DROP TABLE IF EXISTS reputation_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE AUDIT LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create audit_log table
-- Version: 003

-- Append-only record of committed state changes. commit_number is the
-- monotonically increasing sequence exposed to callers as the audit
-- reference; object_id identifies the committed payload.
CREATE TABLE IF NOT EXISTS audit_log (
    commit_number BIGSERIAL PRIMARY KEY,
    object_id UUID NOT NULL,
    aggregate_id VARCHAR(64) NOT NULL,
    action VARCHAR(40) NOT NULL,
    payload_digest VARCHAR(128) NOT NULL DEFAULT '',
    committed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_log_aggregate
    ON audit_log (aggregate_id, commit_number);
`

const migration003Down = `
DROP INDEX IF EXISTS idx_audit_log_aggregate;
DROP TABLE IF EXISTS audit_log;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_social_edges",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_reputation_profiles",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_audit_log",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the set of DDL statements for the collections the core owns.
// Executed once at startup by cmd/decision-engine.
const Schema = `
CREATE TABLE IF NOT EXISTS odds_snapshots (
	content_hash TEXT PRIMARY KEY,
	game_id      TEXT NOT NULL,
	sport        TEXT NOT NULL,
	book_key     TEXT NOT NULL,
	captured_at  TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_odds_snapshots_game ON odds_snapshots (game_id, captured_at DESC);

CREATE TABLE IF NOT EXISTS injury_snapshots (
	content_hash TEXT PRIMARY KEY,
	team_key     TEXT NOT NULL,
	captured_at  TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS simulation_contexts (
	context_hash   TEXT PRIMARY KEY,
	game_id        TEXT NOT NULL,
	sport          TEXT NOT NULL,
	created_at_utc TIMESTAMPTZ NOT NULL,
	payload        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sim_contexts_game ON simulation_contexts (game_id, created_at_utc DESC);

CREATE TABLE IF NOT EXISTS simulation_results (
	context_hash TEXT NOT NULL,
	game_id      TEXT NOT NULL,
	market_type  TEXT NOT NULL,
	selection_id TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at_utc TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (context_hash, market_type, selection_id)
);
CREATE INDEX IF NOT EXISTS idx_sim_results_game_market ON simulation_results (game_id, market_type);

CREATE TABLE IF NOT EXISTS signals (
	signal_id          TEXT PRIMARY KEY,
	previous_signal_id TEXT,
	game_id            TEXT NOT NULL,
	market_type        TEXT NOT NULL,
	selection_id       TEXT NOT NULL,
	state               TEXT NOT NULL,
	payload             JSONB NOT NULL,
	created_at_utc      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_game_market ON signals (game_id, market_type, created_at_utc DESC);

CREATE TABLE IF NOT EXISTS published_predictions (
	prediction_id TEXT NOT NULL,
	channel       TEXT NOT NULL,
	payload       JSONB NOT NULL,
	published_at_utc TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (prediction_id, channel)
);

CREATE TABLE IF NOT EXISTS calibration_versions (
	calibration_version TEXT NOT NULL,
	sport               TEXT NOT NULL,
	market_type         TEXT NOT NULL,
	bucket              TEXT NOT NULL,
	payload             JSONB NOT NULL,
	trained_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (calibration_version, sport, market_type, bucket)
);

CREATE TABLE IF NOT EXISTS calibration_active (
	sport               TEXT NOT NULL,
	market_type         TEXT NOT NULL,
	bucket              TEXT NOT NULL,
	calibration_version TEXT NOT NULL,
	PRIMARY KEY (sport, market_type, bucket)
);

CREATE TABLE IF NOT EXISTS gradings (
	prediction_id TEXT PRIMARY KEY,
	outcome       TEXT NOT NULL,
	payload       JSONB NOT NULL,
	graded_at_utc TIMESTAMPTZ NOT NULL
);

-- Audit log: append-only at the storage role. The application-level
-- storage role used by internal/audit is granted INSERT and SELECT only;
-- UPDATE/DELETE are revoked out of band by the deployment's migration,
-- so the audit trail stays append-only at the storage role too.
CREATE TABLE IF NOT EXISTS audit_log (
	id                   BIGSERIAL PRIMARY KEY,
	event_id             TEXT NOT NULL,
	inputs_hash          TEXT NOT NULL,
	decision_version     INT NOT NULL,
	classification       TEXT NOT NULL,
	release_status       TEXT NOT NULL,
	edge_points          DOUBLE PRECISION NOT NULL,
	model_probability    DOUBLE PRECISION NOT NULL,
	trace_id             TEXT NOT NULL,
	engine_version       TEXT NOT NULL,
	calibration_version  TEXT NOT NULL DEFAULT '',
	market_type          TEXT NOT NULL,
	league               TEXT NOT NULL,
	retention_expires_at TIMESTAMPTZ NOT NULL,
	logged_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_log (event_id, logged_at DESC);
`

// ApplySchema executes the DDL against db. Idempotent: safe to run on
// every startup.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply storage schema: %w", err)
	}
	return nil
}

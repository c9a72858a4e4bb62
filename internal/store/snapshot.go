// Package store is the snapshot and context store plus the storage backing
// for signal, audit, and grading records: database/sql + lib/pq, with
// ON CONFLICT DO NOTHING for idempotent content-hash writes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// SnapshotStore is the snapshot and context store.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore wraps an existing *sql.DB connection.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// PutOddsSnapshot canonicalizes and inserts an OddsSnapshot if its content
// hash is not already present. Writes are idempotent.
func (s *SnapshotStore) PutOddsSnapshot(ctx context.Context, snap models.OddsSnapshot) (string, error) {
	hash, err := ContentHash(struct {
		GameID  string              `json:"game_id"`
		Sport   models.Sport        `json:"sport"`
		BookKey string              `json:"book_key"`
		Lines   []models.MarketLine `json:"lines"`
	}{snap.GameID, snap.Sport, snap.BookKey, snap.Lines})
	if err != nil {
		return "", err
	}
	snap.ContentHash = hash

	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal odds snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO odds_snapshots (content_hash, game_id, sport, book_key, captured_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (content_hash) DO NOTHING
	`, hash, snap.GameID, string(snap.Sport), snap.BookKey, snap.CapturedAt, payload)
	if err != nil {
		return "", fmt.Errorf("insert odds snapshot: %w", err)
	}
	return hash, nil
}

// PutInjurySnapshot canonicalizes and inserts an InjurySnapshot, idempotently.
func (s *SnapshotStore) PutInjurySnapshot(ctx context.Context, snap models.InjurySnapshot) (string, error) {
	hash, err := ContentHash(struct {
		TeamKey string               `json:"team_key"`
		Entries []models.InjuryEntry `json:"entries"`
	}{snap.TeamKey, snap.Entries})
	if err != nil {
		return "", err
	}
	snap.ContentHash = hash

	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal injury snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO injury_snapshots (content_hash, team_key, captured_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_hash) DO NOTHING
	`, hash, snap.TeamKey, snap.CapturedAt, payload)
	if err != nil {
		return "", fmt.Errorf("insert injury snapshot: %w", err)
	}
	return hash, nil
}

// PutSimContext canonicalizes and inserts a SimulationContext, idempotently.
// Identity is context_hash = SHA-256 over its canonical serialization.
func (s *SnapshotStore) PutSimContext(ctx context.Context, sc models.SimulationContext) (string, error) {
	hash, err := ContentHash(struct {
		GameID               string             `json:"game_id"`
		Sport                models.Sport       `json:"sport"`
		ModelVersion         string             `json:"model_version"`
		EngineVersion        string             `json:"engine_version"`
		DataFeedVersion      string             `json:"data_feed_version"`
		OddsSnapshotHash     string             `json:"odds_snapshot_hash"`
		InjurySnapshotHashes []string           `json:"injury_snapshot_hashes"`
		PaceInputs           map[string]float64 `json:"pace_inputs,omitempty"`
		IterationCount       int                `json:"iteration_count"`
		SeedBase             int64              `json:"seed_base"`
	}{sc.GameID, sc.Sport, sc.ModelVersion, sc.EngineVersion, sc.DataFeedVersion,
		sc.OddsSnapshotHash, sc.InjurySnapshotHashes, sc.PaceInputs, sc.IterationCount, sc.SeedBase})
	if err != nil {
		return "", err
	}
	sc.ContextHash = hash

	payload, err := json.Marshal(sc)
	if err != nil {
		return "", fmt.Errorf("marshal simulation context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulation_contexts (context_hash, game_id, sport, created_at_utc, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (context_hash) DO NOTHING
	`, hash, sc.GameID, string(sc.Sport), sc.CreatedAtUTC, payload)
	if err != nil {
		return "", fmt.Errorf("insert simulation context: %w", err)
	}
	return hash, nil
}

// GetSimContext fetches a SimulationContext by content hash.
func (s *SnapshotStore) GetSimContext(ctx context.Context, contextHash string) (*models.SimulationContext, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM simulation_contexts WHERE context_hash = $1`, contextHash).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query simulation context: %w", err)
	}
	var sc models.SimulationContext
	if err := json.Unmarshal(payload, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal simulation context: %w", err)
	}
	return &sc, nil
}

// ClosingOddsSnapshot fetches the last OddsSnapshot captured for a game,
// used by the grader as the closing line for CLV; the closing market is
// captured as a separate OddsSnapshot near game start.
func (s *SnapshotStore) ClosingOddsSnapshot(ctx context.Context, gameID string) (*models.OddsSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM odds_snapshots
		WHERE game_id = $1
		ORDER BY captured_at DESC LIMIT 1
	`, gameID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query closing odds snapshot: %w", err)
	}
	var snap models.OddsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal odds snapshot: %w", err)
	}
	return &snap, nil
}

// GetOddsSnapshot fetches an OddsSnapshot by content hash.
func (s *SnapshotStore) GetOddsSnapshot(ctx context.Context, contentHash string) (*models.OddsSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM odds_snapshots WHERE content_hash = $1`, contentHash).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query odds snapshot: %w", err)
	}
	var snap models.OddsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal odds snapshot: %w", err)
	}
	return &snap, nil
}

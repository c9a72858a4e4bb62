package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// SimResultStore persists SimulationResult records, one per
// (context_hash, market_type, selection_id). Immutable once written.
type SimResultStore struct {
	db *sql.DB
}

func NewSimResultStore(db *sql.DB) *SimResultStore { return &SimResultStore{db: db} }

// Put inserts a SimulationResult. A conflict on the primary key is treated as
// a no-op: results are immutable, so a re-delivery of the same result is
// idempotent rather than an error.
func (s *SimResultStore) Put(ctx context.Context, r models.SimulationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal simulation result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulation_results (context_hash, game_id, market_type, selection_id, payload, created_at_utc)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (context_hash, market_type, selection_id) DO NOTHING
	`, r.ContextHash, r.GameID, string(r.MarketType), r.SelectionID, payload, r.CreatedAtUTC)
	if err != nil {
		return fmt.Errorf("insert simulation result: %w", err)
	}
	return nil
}

// GetByContext fetches every SimulationResult bound to one context_hash.
func (s *SimResultStore) GetByContext(ctx context.Context, contextHash string) ([]models.SimulationResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM simulation_results WHERE context_hash = $1`, contextHash)
	if err != nil {
		return nil, fmt.Errorf("query simulation results: %w", err)
	}
	defer rows.Close()

	var out []models.SimulationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan simulation result: %w", err)
		}
		var r models.SimulationResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("unmarshal simulation result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

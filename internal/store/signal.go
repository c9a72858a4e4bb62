package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// SignalStore persists the append-only Signal chain. No method here
// performs an UPDATE or DELETE: every lifecycle transition is a new row
// referencing PreviousSignalID.
type SignalStore struct {
	db *sql.DB
}

func NewSignalStore(db *sql.DB) *SignalStore { return &SignalStore{db: db} }

// Append inserts one new Signal record into the chain.
func (s *SignalStore) Append(ctx context.Context, sig models.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO signals (signal_id, previous_signal_id, game_id, market_type, selection_id, state, payload, created_at_utc)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
	`, sig.SignalID, sig.PreviousSignalID, sig.GameID, string(sig.MarketType), sig.SelectionID, string(sig.State), payload, sig.CreatedAtUTC)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// Chain returns every Signal record for a (game, market_type), oldest first,
// so callers can fold it into current state.
func (s *SignalStore) Chain(ctx context.Context, gameID string, marketType models.MarketType) ([]models.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM signals
		WHERE game_id = $1 AND market_type = $2
		ORDER BY created_at_utc ASC
	`, gameID, string(marketType))
	if err != nil {
		return nil, fmt.Errorf("query signal chain: %w", err)
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		var sig models.Signal
		if err := json.Unmarshal(payload, &sig); err != nil {
			return nil, fmt.Errorf("unmarshal signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// LatestAllMarkets returns the most recent Signal for every market_type with
// a chain for gameID, for the market_state_registry read endpoint.
func (s *SignalStore) LatestAllMarkets(ctx context.Context, gameID string) ([]models.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (market_type) payload FROM signals
		WHERE game_id = $1
		ORDER BY market_type, created_at_utc DESC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query latest signals for game: %w", err)
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		var sig models.Signal
		if err := json.Unmarshal(payload, &sig); err != nil {
			return nil, fmt.Errorf("unmarshal signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Latest returns the most recent Signal in the chain, or nil if none exists.
func (s *SignalStore) Latest(ctx context.Context, gameID string, marketType models.MarketType) (*models.Signal, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM signals
		WHERE game_id = $1 AND market_type = $2
		ORDER BY created_at_utc DESC LIMIT 1
	`, gameID, string(marketType)).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest signal: %w", err)
	}
	var sig models.Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signal: %w", err)
	}
	return &sig, nil
}

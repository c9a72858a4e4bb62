package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// PublishStore backs the publishing gate: uniqueness on
// (prediction_id, channel) makes publish idempotent by construction.
type PublishStore struct {
	db *sql.DB
}

func NewPublishStore(db *sql.DB) *PublishStore { return &PublishStore{db: db} }

// Insert writes a PublishedPrediction. If (prediction_id, channel) already
// exists the insert is a no-op and nil is returned; the existing record is
// left unchanged, keeping publish idempotent.
func (s *PublishStore) Insert(ctx context.Context, pub models.PublishedPrediction) error {
	payload, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("marshal published prediction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO published_predictions (prediction_id, channel, payload, published_at_utc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (prediction_id, channel) DO NOTHING
	`, pub.PredictionID, pub.Channel, payload, pub.PublishedAtUTC)
	if err != nil {
		return fmt.Errorf("insert published prediction: %w", err)
	}
	return nil
}

// Get fetches the existing PublishedPrediction for (prediction_id, channel),
// or nil if none exists yet.
func (s *PublishStore) Get(ctx context.Context, predictionID, channel string) (*models.PublishedPrediction, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM published_predictions WHERE prediction_id = $1 AND channel = $2
	`, predictionID, channel).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query published prediction: %w", err)
	}
	var pub models.PublishedPrediction
	if err := json.Unmarshal(payload, &pub); err != nil {
		return nil, fmt.Errorf("unmarshal published prediction: %w", err)
	}
	return &pub, nil
}

// ListForGame returns every PublishedPrediction released for any signal
// belonging to gameID, most recent first, by joining through the signals
// table's game_id column (no game_id is stored on published_predictions
// itself, since a publication is keyed by signal, not by game).
func (s *PublishStore) ListForGame(ctx context.Context, gameID string) ([]models.PublishedPrediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pp.payload
		FROM published_predictions pp
		JOIN signals sig ON sig.signal_id = pp.payload->>'signal_id'
		WHERE sig.game_id = $1
		ORDER BY pp.published_at_utc DESC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query published predictions for game: %w", err)
	}
	defer rows.Close()

	var out []models.PublishedPrediction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan published prediction: %w", err)
		}
		var pub models.PublishedPrediction
		if err := json.Unmarshal(payload, &pub); err != nil {
			return nil, fmt.Errorf("unmarshal published prediction: %w", err)
		}
		out = append(out, pub)
	}
	return out, rows.Err()
}

// MarkVoid sets is_official=false on a published prediction's stored copy by
// rewriting its payload with an UPDATE under the same key; the
// (prediction_id, channel) row is updated in place only for the void flag
// and reason: the record itself remains, and neither ticket terms nor
// classification are ever rewritten.
func (s *PublishStore) MarkVoid(ctx context.Context, predictionID, channel, reason string) error {
	existing, err := s.Get(ctx, predictionID, channel)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("no published prediction for %s/%s", predictionID, channel)
	}
	existing.IsOfficial = false
	existing.VoidReason = reason
	payload, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshal voided prediction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE published_predictions SET payload = $3 WHERE prediction_id = $1 AND channel = $2
	`, predictionID, channel, payload)
	if err != nil {
		return fmt.Errorf("void published prediction: %w", err)
	}
	return nil
}

// GradingStore persists per-PublishedPrediction settlement records.
type GradingStore struct {
	db *sql.DB
}

func NewGradingStore(db *sql.DB) *GradingStore { return &GradingStore{db: db} }

func (s *GradingStore) Insert(ctx context.Context, g models.Grading) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal grading: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO gradings (prediction_id, outcome, payload, graded_at_utc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (prediction_id) DO UPDATE SET outcome = EXCLUDED.outcome, payload = EXCLUDED.payload, graded_at_utc = EXCLUDED.graded_at_utc
	`, g.PredictionID, string(g.Outcome), payload, g.GradedAtUTC)
	if err != nil {
		return fmt.Errorf("insert grading: %w", err)
	}
	return nil
}

func (s *GradingStore) Get(ctx context.Context, predictionID string) (*models.Grading, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM gradings WHERE prediction_id = $1`, predictionID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query grading: %w", err)
	}
	var g models.Grading
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, fmt.Errorf("unmarshal grading: %w", err)
	}
	return &g, nil
}

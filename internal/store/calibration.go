package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// CalibrationStore persists fitted CalibrationSegments and the active-version
// pointer per (sport, market_type, bucket). Staging a new fit and promoting
// it are separate operations: promotion is an explicit pointer swap, never a
// side effect of training; there is no silent rollout.
type CalibrationStore struct {
	db *sql.DB
}

func NewCalibrationStore(db *sql.DB) *CalibrationStore { return &CalibrationStore{db: db} }

// PutVersion stages one fitted segment. Re-staging the same version is
// idempotent.
func (s *CalibrationStore) PutVersion(ctx context.Context, seg models.CalibrationSegment) error {
	payload, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("marshal calibration segment: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calibration_versions (calibration_version, sport, market_type, bucket, payload, trained_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (calibration_version, sport, market_type, bucket) DO NOTHING
	`, seg.CalibrationVersion, string(seg.Sport), string(seg.MarketType), seg.Bucket, payload, seg.TrainedAt)
	if err != nil {
		return fmt.Errorf("insert calibration version: %w", err)
	}
	return nil
}

// Promote swaps the active pointer for a segment to the given version. The
// version must already be staged.
func (s *CalibrationStore) Promote(ctx context.Context, sport models.Sport, marketType models.MarketType, bucket, version string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM calibration_versions
			WHERE calibration_version = $1 AND sport = $2 AND market_type = $3 AND bucket = $4
		)
	`, version, string(sport), string(marketType), bucket).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check staged calibration version: %w", err)
	}
	if !exists {
		return fmt.Errorf("promote calibration: version %s not staged for %s/%s/%s", version, sport, marketType, bucket)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calibration_active (sport, market_type, bucket, calibration_version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sport, market_type, bucket) DO UPDATE SET calibration_version = EXCLUDED.calibration_version
	`, string(sport), string(marketType), bucket, version)
	if err != nil {
		return fmt.Errorf("swap active calibration pointer: %w", err)
	}
	return nil
}

// Active returns the currently promoted segment for (sport, market_type,
// bucket), or nil when no version has ever been promoted.
func (s *CalibrationStore) Active(ctx context.Context, sport models.Sport, marketType models.MarketType, bucket string) (*models.CalibrationSegment, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT cv.payload
		FROM calibration_active ca
		JOIN calibration_versions cv
		  ON cv.calibration_version = ca.calibration_version
		 AND cv.sport = ca.sport AND cv.market_type = ca.market_type AND cv.bucket = ca.bucket
		WHERE ca.sport = $1 AND ca.market_type = $2 AND ca.bucket = $3
	`, string(sport), string(marketType), bucket).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query active calibration: %w", err)
	}
	var seg models.CalibrationSegment
	if err := json.Unmarshal(payload, &seg); err != nil {
		return nil, fmt.Errorf("unmarshal calibration segment: %w", err)
	}
	return &seg, nil
}

// TrainingSample is one graded, official publication joined back to the
// probability the engine released it at.
type TrainingSample struct {
	Predicted float64
	Outcome   models.GradingOutcome
}

// TrainingSamples returns the per-segment training set: every graded
// official publication for one (sport, market_type), reading p_calibrated
// from the published record and the outcome from its grading.
func (s *CalibrationStore) TrainingSamples(ctx context.Context, sport models.Sport, marketType models.MarketType) ([]TrainingSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT (pp.payload->>'p_calibrated')::DOUBLE PRECISION, g.outcome
		FROM gradings g
		JOIN published_predictions pp ON pp.prediction_id = g.prediction_id
		JOIN signals sig ON sig.signal_id = pp.payload->>'signal_id'
		WHERE (pp.payload->>'is_official')::BOOLEAN = TRUE
		  AND pp.payload->>'market_key' = $2
		  AND sig.payload->'decision_snapshot'->>'sport' = $1
	`, string(sport), string(marketType))
	if err != nil {
		return nil, fmt.Errorf("query training samples: %w", err)
	}
	defer rows.Close()

	var out []TrainingSample
	for rows.Next() {
		var sample TrainingSample
		var outcome string
		if err := rows.Scan(&sample.Predicted, &outcome); err != nil {
			return nil, fmt.Errorf("scan training sample: %w", err)
		}
		sample.Outcome = models.GradingOutcome(outcome)
		out = append(out, sample)
	}
	return out, rows.Err()
}

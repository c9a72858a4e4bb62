package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// AuditStore is the storage-layer half of the audit logger. It
// exposes only Insert and Find: there is no Update or Delete method on this
// type, and the Postgres role it connects as has UPDATE/DELETE revoked, so
// the "append-only audit" property holds at both the application and the
// storage-role layer.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore { return &AuditStore{db: db} }

// Insert writes one audit record. A failed insert must hard-fail the
// decision that produced it; callers propagate this error rather than
// swallow it.
func (s *AuditStore) Insert(ctx context.Context, rec models.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			event_id, inputs_hash, decision_version, classification, release_status,
			edge_points, model_probability, trace_id, engine_version, calibration_version,
			market_type, league, retention_expires_at, logged_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, rec.EventID, rec.InputsHash, rec.DecisionVersion, string(rec.Classification), string(rec.ReleaseStatus),
		rec.EdgePoints, rec.ModelProbability, rec.TraceID, rec.EngineVersion, rec.CalibrationVersion,
		string(rec.MarketType), string(rec.League), rec.RetentionExpiresAt, rec.LoggedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// FindByEvent returns every audit record for one event id, most recent first.
func (s *AuditStore) FindByEvent(ctx context.Context, eventID string) ([]models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, inputs_hash, decision_version, classification, release_status,
		       edge_points, model_probability, trace_id, engine_version, calibration_version,
		       market_type, league, retention_expires_at, logged_at
		FROM audit_log WHERE event_id = $1 ORDER BY logged_at DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var rec models.AuditLog
		var classification, releaseStatus, marketType, league string
		if err := rows.Scan(&rec.EventID, &rec.InputsHash, &rec.DecisionVersion, &classification, &releaseStatus,
			&rec.EdgePoints, &rec.ModelProbability, &rec.TraceID, &rec.EngineVersion, &rec.CalibrationVersion,
			&marketType, &league, &rec.RetentionExpiresAt, &rec.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Classification = models.Classification(classification)
		rec.ReleaseStatus = models.ReleaseStatus(releaseStatus)
		rec.MarketType = models.MarketType(marketType)
		rec.League = models.Sport(league)
		out = append(out, rec)
	}
	return out, rows.Err()
}

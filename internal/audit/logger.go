// Package audit is the pipeline-facing wrapper around store.AuditStore that
// implements the audit logger: one record per produced
// MarketDecision, a 7-year retention window, and a hard failure back to the
// caller when the insert itself fails.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

const retentionPeriod = 7 * 365 * 24 * time.Hour

// EngineVersion identifies the build that produced a decision. It defaults
// to "dev"; none of the cmd entrypoints assigns it.
var EngineVersion = "dev"

// Logger writes the audit trail entry for every produced MarketDecision,
// approved or blocked.
type Logger struct {
	store *store.AuditStore
}

func NewLogger(s *store.AuditStore) *Logger {
	return &Logger{store: s}
}

// Record writes one audit entry for d. A non-nil error here must be
// propagated as a hard failure by the caller: no decision may be emitted
// without an audit trail.
func (l *Logger) Record(ctx context.Context, eventID string, d models.MarketDecision, now time.Time) (models.AuditLog, error) {
	rec := models.AuditLog{
		EventID:            eventID,
		InputsHash:         d.Debug.InputsHash,
		DecisionVersion:    d.DecisionVersion,
		Classification:     d.Classification,
		ReleaseStatus:      d.ReleaseStatus,
		EdgePoints:         d.Edge.EdgePoints,
		ModelProbability:   d.ModelProbabilityAdjusted,
		TraceID:            uuid.NewString(),
		EngineVersion:      EngineVersion,
		CalibrationVersion: d.CalibrationVersion,
		MarketType:         d.MarketType,
		League:             d.Sport,
		RetentionExpiresAt: now.UTC().Add(retentionPeriod),
		LoggedAt:           now.UTC(),
	}

	if err := l.store.Insert(ctx, rec); err != nil {
		return models.AuditLog{}, fmt.Errorf("audit insert failed, decision for event %s must not be emitted: %w", eventID, err)
	}
	return rec, nil
}

// RecordBackpressureDrop writes the audit trail entry for a tick event
// dropped because the sport's simulation backlog exceeded its ceiling.
// The drop is not a decision, so no classification applies
// beyond NO_PLAY; the release_status carries the drop reason.
func (l *Logger) RecordBackpressureDrop(ctx context.Context, eventID string, sport models.Sport, marketType models.MarketType, now time.Time) error {
	rec := models.AuditLog{
		EventID:            eventID,
		Classification:     models.ClassificationNoPlay,
		ReleaseStatus:      models.ReleaseDroppedByBackpressure,
		TraceID:            uuid.NewString(),
		EngineVersion:      EngineVersion,
		MarketType:         marketType,
		League:             sport,
		RetentionExpiresAt: now.UTC().Add(retentionPeriod),
		LoggedAt:           now.UTC(),
	}
	if err := l.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("audit backpressure drop for event %s: %w", eventID, err)
	}
	return nil
}

// RecordCalibrationPromotion writes the audit trail entry for an explicit
// calibration pointer swap. Promotions are never silent: each one leaves
// an audit record naming the version that went live.
func (l *Logger) RecordCalibrationPromotion(ctx context.Context, sport models.Sport, marketType models.MarketType, version string, now time.Time) error {
	rec := models.AuditLog{
		EventID:            fmt.Sprintf("calibration-promotion:%s:%s", sport, marketType),
		Classification:     models.ClassificationNoPlay,
		ReleaseStatus:      models.ReleaseApproved,
		TraceID:            uuid.NewString(),
		EngineVersion:      EngineVersion,
		CalibrationVersion: version,
		MarketType:         marketType,
		League:             sport,
		RetentionExpiresAt: now.UTC().Add(retentionPeriod),
		LoggedAt:           now.UTC(),
	}
	if err := l.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("audit calibration promotion %s: %w", version, err)
	}
	return nil
}

// History returns every audit record for one event, most recent first.
func (l *Logger) History(ctx context.Context, eventID string) ([]models.AuditLog, error) {
	return l.store.FindByEvent(ctx, eventID)
}

// Package publish is the publishing gate: exactly-once
// release per (prediction_id, channel), with price/line/version fields
// locked at publish time and a void path that never deletes the record.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Channel enumerates the allowed release channels.
type Channel string

const (
	ChannelInternal  Channel = "internal"
	ChannelWeb       Channel = "web"
	ChannelBroadcast Channel = "broadcast"
)

// Visibility enumerates the allowed audiences for a release.
type Visibility string

const (
	VisibilityFree     Visibility = "free"
	VisibilityPremium  Visibility = "premium"
	VisibilityInternal Visibility = "internal"
)

// Request carries everything needed to release one Signal to one channel.
type Request struct {
	Sig                models.Signal
	Decision           models.MarketDecision
	Channel            Channel
	Visibility         Visibility
	MarketSnapshotID   string
	EngineVersion      string
	ModelVersion       string
	MarketLine         *float64
	Price              int
	BookKey            string
}

// Gate wraps a PublishStore with the locked-fields and exactly-once rules.
type Gate struct {
	store *store.PublishStore
}

func NewGate(s *store.PublishStore) *Gate {
	return &Gate{store: s}
}

// Publish releases req exactly once per (prediction_id, channel). If a
// record already exists for that pair, it is returned unchanged rather than
// overwritten; publish is idempotent by construction.
func (g *Gate) Publish(ctx context.Context, req Request, now time.Time) (models.PublishedPrediction, error) {
	if req.Channel != ChannelInternal && req.Channel != ChannelWeb && req.Channel != ChannelBroadcast {
		return models.PublishedPrediction{}, fmt.Errorf("publish: unknown channel %q", req.Channel)
	}
	if req.Sig.State != models.SignalActiveEdge && req.Sig.State != models.SignalActiveMonitoring && req.Sig.State != models.SignalWeakened {
		return models.PublishedPrediction{}, fmt.Errorf("publish: signal state %q is not externally visible", req.Sig.State)
	}

	predictionID := predictionIDFor(req.Sig.SignalID, string(req.Channel))
	if existing, err := g.store.Get(ctx, predictionID, string(req.Channel)); err != nil {
		return models.PublishedPrediction{}, fmt.Errorf("check existing publication: %w", err)
	} else if existing != nil {
		return *existing, nil
	}

	pub := models.PublishedPrediction{
		PredictionID:          predictionID,
		Channel:                string(req.Channel),
		Visibility:             string(req.Visibility),
		SignalID:               req.Sig.SignalID,
		MarketSnapshotID:       req.MarketSnapshotID,
		EngineVersion:          req.EngineVersion,
		ModelVersion:           req.ModelVersion,
		CalibrationVersion:     req.Decision.CalibrationVersion,
		ProbabilityCalibrated:  req.Decision.ModelProbabilityAdjusted,
		MarketKey:              string(req.Decision.MarketType),
		SelectionID:            req.Decision.RecommendedSelectionID,
		TicketTerms: models.TicketTerms{
			MarketLine: req.MarketLine,
			Price:      req.Price,
			BookKey:    req.BookKey,
		},
		IsOfficial:     true,
		PublishedAtUTC: now.UTC(),
	}

	if err := g.store.Insert(ctx, pub); err != nil {
		return models.PublishedPrediction{}, fmt.Errorf("insert publication: %w", err)
	}
	if stored, err := g.store.Get(ctx, predictionID, string(req.Channel)); err == nil && stored != nil {
		return *stored, nil
	}
	return pub, nil
}

// Void marks a publication non-official without deleting the record.
func (g *Gate) Void(ctx context.Context, predictionID string, channel Channel, reason string) error {
	return g.store.MarkVoid(ctx, predictionID, string(channel), reason)
}

// predictionIDFor derives a stable prediction_id from the signal that earned
// the release; one signal may be published once per channel.
func predictionIDFor(signalID, channel string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(signalID+"|"+channel)).String()
}

// VoidOnInvalidation is a convenience helper for the orchestrator: when a
// signal transitions to INVALIDATED, any of its active publications across
// channels should be voided with the same reason.
func (g *Gate) VoidOnInvalidation(ctx context.Context, sig models.Signal, channels []Channel) error {
	if sig.State != models.SignalInvalidated {
		return nil
	}
	for _, ch := range channels {
		predictionID := predictionIDFor(sig.PreviousSignalID, string(ch))
		if existing, err := g.store.Get(ctx, predictionID, string(ch)); err != nil {
			return fmt.Errorf("check publication for void: %w", err)
		} else if existing == nil || !existing.IsOfficial {
			continue
		}
		if err := g.Void(ctx, predictionID, ch, sig.Reason); err != nil {
			return fmt.Errorf("void publication on invalidation: %w", err)
		}
	}
	return nil
}

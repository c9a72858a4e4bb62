// Package signal is the signal lifecycle manager: a state
// machine per (game, market_type) that locks, confirms, downgrades,
// invalidates, and settles a MarketDecision chosen for external use. Every
// transition is a new append-only record via store.SignalStore; no record
// is ever mutated.
package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// InvalidationReason enumerates the explicit rules that can force INVALIDATED.
type InvalidationReason string

const (
	ReasonRosterUnavailable InvalidationReason = "ROSTER_UNAVAILABLE"
	ReasonLineSnap          InvalidationReason = "MARKET_LINE_SNAP_BEYOND_TOLERANCE"
	ReasonIntegrityFailure  InvalidationReason = "INTEGRITY_FAILURE"
	ReasonInjuryThreshold   InvalidationReason = "INJURY_STATUS_CROSSED_THRESHOLD"
)

// Manager advances the signal chain for one (game, market_type) at a time;
// processing is sequential per (game, market_type).
type Manager struct {
	store *store.SignalStore
}

// NewManager constructs a Manager backed by the given append-only store.
func NewManager(s *store.SignalStore) *Manager {
	return &Manager{store: s}
}

// Advance folds the existing chain for (gameID, marketType), applies the
// newest decision, and appends the resulting Signal transition. It never
// mutates prior records; it only decides what new record, if any, to append.
func (m *Manager) Advance(ctx context.Context, cfg sportconfig.Config, gameID string, marketType models.MarketType, decision models.MarketDecision, recentTiers []models.Classification, invalidation InvalidationReason, now time.Time) (*models.Signal, error) {
	chain, err := m.store.Chain(ctx, gameID, marketType)
	if err != nil {
		return nil, fmt.Errorf("load signal chain: %w", err)
	}

	var prior *models.Signal
	if len(chain) > 0 {
		prior = &chain[len(chain)-1]
	}

	next, shouldAppend := nextState(cfg, prior, decision, recentTiers, invalidation)
	if !shouldAppend {
		return prior, nil
	}

	sig := models.Signal{
		SignalID:         uuid.NewString(),
		GameID:           gameID,
		MarketType:       marketType,
		SelectionID:      decision.RecommendedSelectionID,
		State:            next.state,
		Reason:           next.reason,
		DecisionSnapshot: decision,
		CreatedAtUTC:     now.UTC(),
	}
	if prior != nil {
		sig.PreviousSignalID = prior.SignalID
		// Side (selection_id) may never flip within a live chain; a flip
		// requires INVALIDATION first.
		if prior.SelectionID != "" && sig.SelectionID != "" && prior.SelectionID != sig.SelectionID &&
			prior.State != models.SignalInvalidated && prior.State != models.SignalSettled {
			sig.SelectionID = prior.SelectionID
			sig.State = models.SignalInvalidated
			sig.Reason = string(ReasonIntegrityFailure) + ": side flip attempted without invalidation"
		}
	}

	if err := m.store.Append(ctx, sig); err != nil {
		return nil, fmt.Errorf("append signal: %w", err)
	}
	return &sig, nil
}

type transition struct {
	state  models.SignalState
	reason string
}

// nextState implements the lifecycle transition rules. It returns (transition, false)
// when no new record should be appended (e.g. confirmation window not yet
// met and no prior signal exists).
func nextState(cfg sportconfig.Config, prior *models.Signal, decision models.MarketDecision, recentTiers []models.Classification, invalidation InvalidationReason) (transition, bool) {
	if invalidation != "" && prior != nil && prior.State != models.SignalSettled {
		return transition{state: models.SignalInvalidated, reason: string(invalidation)}, true
	}

	if prior == nil {
		if confirmedByWindow(cfg, recentTiers) {
			return transition{state: models.SignalPending, reason: "CONFIRMATION_WINDOW_MET"}, true
		}
		return transition{}, false
	}

	switch prior.State {
	case models.SignalInvalidated, models.SignalSettled:
		if confirmedByWindow(cfg, recentTiers) {
			return transition{state: models.SignalPending, reason: "RESTARTED_AFTER_INVALIDATION"}, true
		}
		return transition{}, false
	case models.SignalPending:
		if decision.Classification == models.ClassificationEdge {
			return transition{state: models.SignalActiveEdge, reason: "EDGE_CONFIRMED"}, true
		}
		return transition{}, false
	case models.SignalActiveEdge:
		switch decision.Classification {
		case models.ClassificationEdge:
			return transition{}, false
		case models.ClassificationLean:
			return transition{state: models.SignalWeakened, reason: "CONFIDENCE_REDUCED_SIDE_UNCHANGED"}, true
		default:
			return transition{state: models.SignalActiveMonitoring, reason: "VARIANCE_OR_MARKET_MOVEMENT"}, true
		}
	case models.SignalActiveMonitoring, models.SignalWeakened:
		if decision.Classification == models.ClassificationEdge {
			return transition{state: models.SignalActiveEdge, reason: "EDGE_RECONFIRMED"}, true
		}
		return transition{}, false
	default:
		return transition{}, false
	}
}

// confirmedByWindow applies the sport-configurable N-of-M confirmation
// window on the strict prefix of recent tiers. Early in a chain, before M
// sims exist, the requirement scales down so a first qualifying sim can
// open a PENDING chain; it tightens to the full N-of-M as history fills.
func confirmedByWindow(cfg sportconfig.Config, recentTiers []models.Classification) bool {
	window := cfg.ConfirmationWindowOf
	if window <= 0 || len(recentTiers) == 0 {
		return false
	}
	if len(recentTiers) < window {
		window = len(recentTiers)
	}
	need := cfg.ConfirmationWindowSize
	if need > window {
		need = window
	}
	prefix := recentTiers[len(recentTiers)-window:]
	confirmed := 0
	for _, tier := range prefix {
		if tier == models.ClassificationEdge || tier == models.ClassificationLean {
			confirmed++
		}
	}
	return confirmed >= need
}

// Settle appends a terminal SETTLED record once the signal's game resolves.
func Settle(ctx context.Context, s *store.SignalStore, gameID string, marketType models.MarketType, now time.Time) (*models.Signal, error) {
	prior, err := s.Latest(ctx, gameID, marketType)
	if err != nil {
		return nil, fmt.Errorf("load latest signal: %w", err)
	}
	if prior == nil {
		return nil, nil
	}
	settled := models.Signal{
		SignalID:         uuid.NewString(),
		PreviousSignalID: prior.SignalID,
		GameID:           gameID,
		MarketType:       marketType,
		SelectionID:      prior.SelectionID,
		State:            models.SignalSettled,
		Reason:           "GAME_FINALIZED",
		DecisionSnapshot: prior.DecisionSnapshot,
		CreatedAtUTC:     now.UTC(),
	}
	if err := s.Append(ctx, settled); err != nil {
		return nil, fmt.Errorf("append settled signal: %w", err)
	}
	return &settled, nil
}

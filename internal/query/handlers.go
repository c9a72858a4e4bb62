// Package query implements the read-only query surface that sits in front
// of the append-only stores: game_decisions, market_state_registry, and
// the meta endpoint.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// MetaInfo is the process-identity payload returned by the meta endpoint,
// used by deploy validation.
type MetaInfo struct {
	EngineBuildID string `json:"engine_build_id"`
	SimVersion    string `json:"sim_version"`
	DeployedAt    string `json:"deployed_at"`
	Environment   string `json:"environment"`
}

// Handler serves the read-only endpoints (game decisions, market state
// registry, meta, health).
// It never writes: all mutation happens in the decision-engine and
// grading-worker processes; this is a pure read/compose layer in front
// of the writer processes.
type Handler struct {
	Signals    *store.SignalStore
	SimResults *store.SimResultStore
	Registry   *sportconfig.Registry
	Meta       MetaInfo
}

// NewHandler builds a query Handler.
func NewHandler(signals *store.SignalStore, simResults *store.SimResultStore, registry *sportconfig.Registry, meta MetaInfo) *Handler {
	return &Handler{Signals: signals, SimResults: simResults, Registry: registry, Meta: meta}
}

// marketOrder fixes the iteration order used to probe LatestAllMarkets
// results, so responses are stable regardless of map/slice ordering upstream.
var marketOrder = []models.MarketType{models.MarketSpread, models.MarketMoneylineTwo, models.MarketTotal}

// gameDecisionsResponse is the wire shape of the atomic GameDecisions bundle.
type gameDecisionsResponse struct {
	GameID          string                  `json:"game_id"`
	HomeTeamName    string                  `json:"home_team_name"`
	AwayTeamName    string                  `json:"away_team_name"`
	Spread          *models.MarketDecision  `json:"spread,omitempty"`
	Moneyline       *models.MarketDecision  `json:"moneyline,omitempty"`
	Total           *models.MarketDecision  `json:"total,omitempty"`
	InputsHash      string                  `json:"inputs_hash"`
	DecisionVersion int                     `json:"decision_version"`
	ComputedAt      time.Time               `json:"computed_at"`
}

// HandleGameDecisions implements `GET game_decisions(league, game_id)`.
// GET /api/v1/game-decisions/{game_id}?league={sport}
//
// It is fail-closed: if the sport's primary market has no decision
// snapshot yet, it returns 503 rather than a partial bundle: missing inputs
// mean no answer, never a guessed one.
func (h *Handler) HandleGameDecisions(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "game_id is required")
		return
	}
	league := r.URL.Query().Get("league")
	if league == "" {
		writeError(w, http.StatusBadRequest, "league query parameter is required")
		return
	}
	sport := models.Sport(league)
	if _, err := h.Registry.ConfigFor(sport); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown league %q", league))
		return
	}

	signals, err := h.Signals.LatestAllMarkets(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load signals: %v", err))
		return
	}

	byMarket := make(map[models.MarketType]models.Signal, len(signals))
	for _, sig := range signals {
		byMarket[sig.MarketType] = sig
	}

	cfg, _ := h.Registry.ConfigFor(sport)
	required, ok := byMarket[cfg.PrimaryMarket]
	if !ok {
		// No decision exists yet for the sport's primary market: nothing
		// authoritative to serve. Fail closed rather than guess.
		writeError(w, http.StatusServiceUnavailable, "required inputs are missing for this game")
		return
	}

	homeTeamKey, awayTeamKey := h.teamKeysFor(r.Context(), required.DecisionSnapshot.ContextHash)

	resp := gameDecisionsResponse{
		GameID: gameID,
		// The core resolves team_key only; mapping to a display name is
		// a UI-layer concern the core deliberately does not own.
		HomeTeamName:    homeTeamKey,
		AwayTeamName:    awayTeamKey,
		InputsHash:      required.DecisionSnapshot.Debug.InputsHash,
		DecisionVersion: required.DecisionSnapshot.DecisionVersion,
		ComputedAt:      required.DecisionSnapshot.ComputedAt,
	}
	for _, mt := range marketOrder {
		sig, ok := byMarket[mt]
		if !ok {
			continue
		}
		decision := sig.DecisionSnapshot
		switch mt {
		case models.MarketSpread:
			resp.Spread = &decision
		case models.MarketMoneylineTwo:
			resp.Moneyline = &decision
		case models.MarketTotal:
			resp.Total = &decision
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// teamKeysFor resolves the home/away team_key pair bound to a context_hash by
// reading back any SimulationResult recorded against it; best-effort, since
// the bundle is still useful to a caller even without resolved team keys.
func (h *Handler) teamKeysFor(ctx context.Context, contextHash string) (string, string) {
	results, err := h.SimResults.GetByContext(ctx, contextHash)
	if err != nil || len(results) == 0 {
		return "", ""
	}
	return results[0].HomeTeamKey, results[0].AwayTeamKey
}

// marketStateEntry is one row of the market_state_registry, carrying the
// visibility contract: EDGE is broadcast- and
// parlay-allowed; LEAN is parlay-only; NO_PLAY/BLOCKED are neither.
type marketStateEntry struct {
	GameID          string               `json:"game_id"`
	MarketType      models.MarketType    `json:"market_type"`
	Classification  models.Classification `json:"classification"`
	BroadcastAllowed bool                `json:"broadcast_allowed"`
	ParlayAllowed    bool                `json:"parlay_allowed"`
}

func visibilityFor(classification models.Classification) (broadcastAllowed, parlayAllowed bool) {
	switch classification {
	case models.ClassificationEdge:
		return true, true
	case models.ClassificationLean:
		return false, true
	default:
		return false, false
	}
}

// HandleMarketStateRegistry implements `GET market_state_registry`.
// GET /api/v1/market-state-registry?game_id={game_id}
//
// Returns the authoritative per-market tier for one game with its
// visibility contract. game_id is required: the registry is scoped per
// game, not a global dump of every signal ever recorded.
func (h *Handler) HandleMarketStateRegistry(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "game_id query parameter is required")
		return
	}

	signals, err := h.Signals.LatestAllMarkets(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load signals: %v", err))
		return
	}

	entries := make([]marketStateEntry, 0, len(signals))
	for _, sig := range signals {
		broadcastAllowed, parlayAllowed := visibilityFor(sig.DecisionSnapshot.Classification)
		entries = append(entries, marketStateEntry{
			GameID:           gameID,
			MarketType:       sig.MarketType,
			Classification:   sig.DecisionSnapshot.Classification,
			BroadcastAllowed: broadcastAllowed,
			ParlayAllowed:    parlayAllowed,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"markets": entries,
	})
}

// HandleMeta reports the process identity for deploy validation.
// GET /meta
func (h *Handler) HandleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"engine_build_id": h.Meta.EngineBuildID,
		"sim_version":     h.Meta.SimVersion,
		"deployed_at":     h.Meta.DeployedAt,
		"environment":     h.Meta.Environment,
		"status":          "ok",
	})
}

// HandleHealth is the plain liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

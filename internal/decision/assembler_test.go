package decision_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/xavierbriggs/decision-core/internal/decision"
	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestAssembleApprovesCleanEdge(t *testing.T) {
	line := -3.5
	bookKey := "dk"
	selID := selection.ID("game-1", models.MarketSpread, models.SideHome, &line, bookKey)

	in := decision.AssembleInput{
		GameID: "game-1", Sport: models.SportNFL, MarketType: models.MarketSpread,
		MarketSettlement: models.SettlementFullGame, ContextHash: "ctx-1",
		PreferenceSelectionID: selID, PreferenceSide: models.SideHome, PreferenceTeamID: "home-team",
		MarketLine: &line, MarketOdds: -110, BookKey: bookKey,
		EdgePoints: 2.0, EdgeEV: 4.5,
		ModelProbabilityRaw: 0.58, ModelProbabilityAdjusted: 0.56,
		Classification: models.ClassificationEdge, Reasons: []string{"EDGE_PROBABILITY_PASS"},
		CalibrationVersion: "cal-v1", DecisionVersion: 1,
		Competitors: decision.Competitors{"home-team": "Home Team", "away-team": "Away Team"},
	}

	assembled, err := decision.Assemble(in, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if assembled.ReleaseStatus != models.ReleaseApproved {
		t.Errorf("expected APPROVED, got %s (reasons=%v)", assembled.ReleaseStatus, assembled.Reasons)
	}
	if assembled.RecommendedSelectionID != selID {
		t.Errorf("expected recommended_selection_id=%s, got %s", selID, assembled.RecommendedSelectionID)
	}
	if assembled.Debug.InputsHash == "" {
		t.Error("expected non-empty inputs_hash")
	}
}

func TestAssembleBlocksOnUnknownCompetitor(t *testing.T) {
	line := -3.5
	bookKey := "dk"
	selID := selection.ID("game-1", models.MarketSpread, models.SideHome, &line, bookKey)

	in := decision.AssembleInput{
		GameID: "game-1", Sport: models.SportNFL, MarketType: models.MarketSpread,
		ContextHash: "ctx-1", PreferenceSelectionID: selID, PreferenceSide: models.SideHome,
		PreferenceTeamID: "ghost-team", MarketLine: &line, MarketOdds: -110, BookKey: bookKey,
		EdgePoints: 2.0, EdgeEV: 4.5, Classification: models.ClassificationEdge,
		CalibrationVersion: "cal-v1", DecisionVersion: 1,
		Competitors: decision.Competitors{"home-team": "Home Team", "away-team": "Away Team"},
	}

	assembled, err := decision.Assemble(in, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if assembled.ReleaseStatus != models.ReleaseBlockedByIntegrity {
		t.Errorf("expected BLOCKED_BY_INTEGRITY, got %s", assembled.ReleaseStatus)
	}
	if assembled.Classification != models.ClassificationBlocked {
		t.Errorf("expected classification BLOCKED, got %s", assembled.Classification)
	}
}

func TestAssembleNoPlayLeavesRecommendationEmpty(t *testing.T) {
	line := -3.5
	in := decision.AssembleInput{
		GameID: "game-2", Sport: models.SportNBA, MarketType: models.MarketSpread,
		ContextHash: "ctx-2", PreferenceSelectionID: "some-pref-id",
		MarketLine: &line, MarketOdds: -110, BookKey: "fd",
		Classification: models.ClassificationNoPlay, Reasons: []string{"NO_PLAY_DEFAULT"},
		CalibrationVersion: "cal-v1", DecisionVersion: 1,
		Competitors: decision.Competitors{"home-team": "Home Team"},
	}

	assembled, err := decision.Assemble(in, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if assembled.RecommendedSelectionID != "" {
		t.Errorf("expected no recommendation for NO_PLAY, got %s", assembled.RecommendedSelectionID)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	line := -3.5
	bookKey := "dk"
	selID := selection.ID("game-1", models.MarketSpread, models.SideHome, &line, bookKey)
	in := decision.AssembleInput{
		GameID: "game-1", Sport: models.SportNFL, MarketType: models.MarketSpread,
		MarketSettlement: models.SettlementFullGame, ContextHash: "ctx-1",
		PreferenceSelectionID: selID, PreferenceSide: models.SideHome, PreferenceTeamID: "home-team",
		MarketLine: &line, MarketOdds: -110, BookKey: bookKey,
		EdgePoints: 2.0, EdgeEV: 4.5,
		ModelProbabilityRaw: 0.58, ModelProbabilityAdjusted: 0.56,
		Classification: models.ClassificationEdge, Reasons: []string{"EDGE_PROBABILITY_PASS"},
		CalibrationVersion: "cal-v1", DecisionVersion: 1,
		Competitors: decision.Competitors{"home-team": "Home Team", "away-team": "Away Team"},
	}
	at := time.Unix(1700000000, 0).UTC()

	first, err := decision.Assemble(in, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := decision.Assemble(in, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected bit-identical decisions for identical inputs")
	}
	if first.Debug.InputsHash != second.Debug.InputsHash {
		t.Errorf("inputs_hash differs across identical runs: %s vs %s", first.Debug.InputsHash, second.Debug.InputsHash)
	}
}

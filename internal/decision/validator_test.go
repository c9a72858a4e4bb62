package decision_test

import (
	"testing"

	"github.com/xavierbriggs/decision-core/internal/decision"
	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func validSpreadDecision() decision.Assembled {
	line := -5.5
	selID := selection.ID("G1", models.MarketSpread, models.SideHome, &line, "pinnacle")
	return decision.Assembled{
		MarketDecision: models.MarketDecision{
			GameID:                     "G1",
			MarketType:                 models.MarketSpread,
			MarketLine:                 &line,
			ModelPreferenceSelectionID: selID,
			RecommendedSelectionID:     selID,
			DirectionSelectionID:       selID,
			Classification:             models.ClassificationEdge,
			Edge:                       models.Edge{EdgePoints: 1.5},
			Reasons:                    []string{"model favors home by more than the market"},
			Debug:                     models.DecisionDebug{InputsHash: "abc123"},
		},
		RecommendedSide:   models.SideHome,
		RecommendedTeamID: "home-team",
		BookKey:           "pinnacle",
	}
}

func TestValidatePassesWellFormedDecision(t *testing.T) {
	d := validSpreadDecision()
	competitors := decision.Competitors{"home-team": "Home Team", "away-team": "Away Team"}

	if violations := decision.Validate(d, competitors); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidateCatchesCompetitorIntegrityFailure(t *testing.T) {
	d := validSpreadDecision()
	competitors := decision.Competitors{"someone-else": "Someone Else"}

	violations := decision.Validate(d, competitors)
	if !contains(violations, "COMPETITOR_INTEGRITY_FAILED") {
		t.Errorf("expected COMPETITOR_INTEGRITY_FAILED, got %v", violations)
	}
}

func TestValidateCatchesMissingSelectionID(t *testing.T) {
	d := validSpreadDecision()
	d.RecommendedSelectionID = ""
	d.ModelPreferenceSelectionID = ""
	d.DirectionSelectionID = ""

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "MISSING_SELECTION_ID") {
		t.Errorf("expected MISSING_SELECTION_ID, got %v", violations)
	}
}

func TestValidateCatchesMissingInputsHash(t *testing.T) {
	d := validSpreadDecision()
	d.Debug.InputsHash = ""

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "MISSING_INPUTS_HASH") {
		t.Errorf("expected MISSING_INPUTS_HASH, got %v", violations)
	}
}

func TestValidateCatchesMarketAlignedReasonMismatch(t *testing.T) {
	d := validSpreadDecision()
	d.Classification = models.ClassificationMarketAligned
	d.Reasons = []string{"a clear market misprice"}

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "MARKET_ALIGNED_REASON_MISMATCH") {
		t.Errorf("expected MARKET_ALIGNED_REASON_MISMATCH, got %v", violations)
	}
}

func TestValidateCatchesZeroEdgeForActionableTier(t *testing.T) {
	d := validSpreadDecision()
	d.Edge = models.Edge{EdgePoints: 0}

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "ZERO_EDGE_FOR_ACTIONABLE_TIER") {
		t.Errorf("expected ZERO_EDGE_FOR_ACTIONABLE_TIER, got %v", violations)
	}
}

func TestValidateCatchesSpreadLineZero(t *testing.T) {
	d := validSpreadDecision()
	zero := 0.0
	d.MarketLine = &zero

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "SPREAD_LINE_ZERO") {
		t.Errorf("expected SPREAD_LINE_ZERO, got %v", violations)
	}
}

func TestValidateCatchesTotalSideInvalid(t *testing.T) {
	line := 44.5
	selID := selection.ID("G1", models.MarketTotal, models.SideOver, &line, "pinnacle")
	d := decision.Assembled{
		MarketDecision: models.MarketDecision{
			GameID:                     "G1",
			MarketType:                 models.MarketTotal,
			MarketLine:                 &line,
			ModelPreferenceSelectionID: selID,
			RecommendedSelectionID:     selID,
			DirectionSelectionID:       selID,
			Classification:             models.ClassificationEdge,
			Edge:                       models.Edge{EdgePoints: 1.0},
			Debug:                     models.DecisionDebug{InputsHash: "abc123"},
		},
		RecommendedSide: models.SideHome,
		BookKey:         "pinnacle",
	}

	violations := decision.Validate(d, decision.Competitors{})
	if !contains(violations, "TOTAL_SIDE_INVALID") {
		t.Errorf("expected TOTAL_SIDE_INVALID, got %v", violations)
	}
}

func TestValidateCatchesDirectionPreferenceMismatch(t *testing.T) {
	d := validSpreadDecision()
	d.DirectionSelectionID = "some-other-id"

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "DIRECTION_PREFERENCE_MISMATCH") {
		t.Errorf("expected DIRECTION_PREFERENCE_MISMATCH, got %v", violations)
	}
}

func TestValidateCatchesSelectionIDMismatch(t *testing.T) {
	d := validSpreadDecision()
	d.RecommendedSelectionID = "not-the-real-hash"

	violations := decision.Validate(d, decision.Competitors{"home-team": "Home Team"})
	if !contains(violations, "SELECTION_ID_MISMATCH") {
		t.Errorf("expected SELECTION_ID_MISMATCH, got %v", violations)
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

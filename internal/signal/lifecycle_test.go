package signal

import (
	"testing"

	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestConfirmedByWindowRequiresNOfM(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA) // 2 of 3
	tiers := []models.Classification{models.ClassificationNoPlay, models.ClassificationLean, models.ClassificationEdge}
	if !confirmedByWindow(cfg, tiers) {
		t.Error("expected 2-of-3 confirmation to pass")
	}
	tiers = []models.Classification{models.ClassificationNoPlay, models.ClassificationNoPlay, models.ClassificationEdge}
	if confirmedByWindow(cfg, tiers) {
		t.Error("expected 1-of-3 confirmation to fail")
	}
}

func TestNextStatePendingToActiveEdge(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	prior := &models.Signal{State: models.SignalPending, SelectionID: "sel-1"}
	decision := models.MarketDecision{Classification: models.ClassificationEdge, RecommendedSelectionID: "sel-1"}
	next, ok := nextState(cfg, prior, decision, nil, "")
	if !ok || next.state != models.SignalActiveEdge {
		t.Errorf("expected ACTIVE_EDGE, got %v ok=%v", next.state, ok)
	}
}

func TestNextStateActiveEdgeDowngradesToMonitoring(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	prior := &models.Signal{State: models.SignalActiveEdge, SelectionID: "sel-1"}
	decision := models.MarketDecision{Classification: models.ClassificationNoPlay, RecommendedSelectionID: ""}
	next, ok := nextState(cfg, prior, decision, nil, "")
	if !ok || next.state != models.SignalActiveMonitoring {
		t.Errorf("expected ACTIVE_MONITORING, got %v ok=%v", next.state, ok)
	}
}

func TestNextStateInvalidationOverridesEverything(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	prior := &models.Signal{State: models.SignalActiveEdge, SelectionID: "sel-1"}
	decision := models.MarketDecision{Classification: models.ClassificationEdge, RecommendedSelectionID: "sel-1"}
	next, ok := nextState(cfg, prior, decision, nil, ReasonRosterUnavailable)
	if !ok || next.state != models.SignalInvalidated {
		t.Errorf("expected INVALIDATED, got %v ok=%v", next.state, ok)
	}
}

func TestNextStateNoPriorWithoutConfirmationDoesNothing(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	decision := models.MarketDecision{Classification: models.ClassificationEdge}
	_, ok := nextState(cfg, nil, decision, nil, "")
	if ok {
		t.Error("expected no transition without a confirmed window")
	}
}

func TestConfirmedByWindowScalesDownEarlyInChain(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA) // 2 of 3
	if !confirmedByWindow(cfg, []models.Classification{models.ClassificationLean}) {
		t.Error("expected a single qualifying sim to open a chain")
	}
	if confirmedByWindow(cfg, []models.Classification{models.ClassificationNoPlay}) {
		t.Error("expected a single non-qualifying sim to not open a chain")
	}
	if confirmedByWindow(cfg, nil) {
		t.Error("expected empty history to never confirm")
	}
}

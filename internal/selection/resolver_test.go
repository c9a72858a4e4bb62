package selection_test

import (
	"testing"

	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestIDStability(t *testing.T) {
	line := -5.5
	id1 := selection.ID("G1", models.MarketSpread, models.SideHome, &line, "pinnacle")
	id2 := selection.ID("G1", models.MarketSpread, models.SideHome, &line, "pinnacle")
	if id1 != id2 {
		t.Fatalf("selection id not stable: %s vs %s", id1, id2)
	}
	if len(id1) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%s)", len(id1), id1)
	}

	otherLine := -6.5
	id3 := selection.ID("G1", models.MarketSpread, models.SideHome, &otherLine, "pinnacle")
	if id1 == id3 {
		t.Fatal("changing the line should change the selection id")
	}
}

func TestGenerateSpreadSelections(t *testing.T) {
	sels := selection.GenerateSpreadSelections("G1", -5.5, "pinnacle")
	if len(sels) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(sels))
	}
	if sels[0].SelectionID == sels[1].SelectionID {
		t.Fatal("home and away selections must have distinct ids")
	}
}

func TestValidateSelectionConsistency(t *testing.T) {
	sels := selection.GenerateMoneylineSelections("G1", "pinnacle")
	pref := sels[0].SelectionID

	if err := selection.ValidateSelectionConsistency(sels, pref, pref); err != nil {
		t.Errorf("expected valid consistency check to pass: %v", err)
	}

	if err := selection.ValidateSelectionConsistency(sels, pref, sels[1].SelectionID); err == nil {
		t.Error("expected mismatched direction/preference id to fail")
	}

	if err := selection.ValidateSelectionConsistency(sels, "NO_EDGE", "NO_EDGE"); err != nil {
		t.Errorf("NO_EDGE sentinel should be accepted: %v", err)
	}

	dup := append(sels, sels[0])
	if err := selection.ValidateSelectionConsistency(dup, pref, pref); err == nil {
		t.Error("expected duplicate selection ids to fail")
	}
}

func TestGenerateThreeWayMoneylineSelections(t *testing.T) {
	sels := selection.GenerateThreeWayMoneylineSelections("G1", "pinnacle")
	if len(sels) != 3 {
		t.Fatalf("expected 3 selections, got %d", len(sels))
	}
	seen := map[string]bool{}
	for _, s := range sels {
		if seen[s.SelectionID] {
			t.Fatalf("duplicate selection id %s", s.SelectionID)
		}
		seen[s.SelectionID] = true
	}
}

// Package selection implements the selection-id resolver: a deterministic,
// content-hashed identifier for every bettable side of a market. The hash
// formula is a compatibility contract with every consumer of these ids and
// must never change.
package selection

import (
	"crypto/sha256"
	"fmt"

	"github.com/xavierbriggs/decision-core/pkg/decisionerr"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

const (
	sentinelNoEdge  = "NO_EDGE"
	sentinelInvalid = "INVALID"
)

// normalizeLine renders the line component of the hash input: "ML" for
// moneyline, else a signed one-decimal string such as "-5.5" or "+2.0".
func normalizeLine(line *float64) string {
	if line == nil {
		return "ML"
	}
	return fmt.Sprintf("%+.1f", *line)
}

// ID computes the 16-hex-char selection_id for one side of a market.
// selection_id = first 16 hex chars of SHA-256 over
// "event|market_type|side_key|line_norm|book_key".
func ID(eventID string, marketType models.MarketType, sideKey models.Side, line *float64, bookKey string) string {
	hashInput := fmt.Sprintf("%s|%s|%s|%s|%s", eventID, marketType, sideKey, normalizeLine(line), bookKey)
	sum := sha256.Sum256([]byte(hashInput))
	return fmt.Sprintf("%x", sum)[:16]
}

// GenerateSpreadSelections builds the home/away selection pair for a spread
// market: {home: line, away: -line}.
func GenerateSpreadSelections(eventID string, line float64, bookKey string) []models.Selection {
	away := -line
	return []models.Selection{
		{
			SelectionID:            ID(eventID, models.MarketSpread, models.SideHome, &line, bookKey),
			Side:                   models.SideHome,
			MarketLineForSelection: &line,
			MarketType:             models.MarketSpread,
		},
		{
			SelectionID:            ID(eventID, models.MarketSpread, models.SideAway, &away, bookKey),
			Side:                   models.SideAway,
			MarketLineForSelection: &away,
			MarketType:             models.MarketSpread,
		},
	}
}

// GenerateMoneylineSelections builds the home/away selection pair for a
// 2-way moneyline market.
func GenerateMoneylineSelections(eventID, bookKey string) []models.Selection {
	return []models.Selection{
		{SelectionID: ID(eventID, models.MarketMoneylineTwo, models.SideHome, nil, bookKey), Side: models.SideHome, MarketType: models.MarketMoneylineTwo},
		{SelectionID: ID(eventID, models.MarketMoneylineTwo, models.SideAway, nil, bookKey), Side: models.SideAway, MarketType: models.MarketMoneylineTwo},
	}
}

// GenerateThreeWayMoneylineSelections builds the home/draw/away selection
// triple for a 3-way moneyline market.
func GenerateThreeWayMoneylineSelections(eventID, bookKey string) []models.Selection {
	return []models.Selection{
		{SelectionID: ID(eventID, models.MarketMoneylineThree, models.SideHome, nil, bookKey), Side: models.SideHome, MarketType: models.MarketMoneylineThree},
		{SelectionID: ID(eventID, models.MarketMoneylineThree, models.SideDraw, nil, bookKey), Side: models.SideDraw, MarketType: models.MarketMoneylineThree},
		{SelectionID: ID(eventID, models.MarketMoneylineThree, models.SideAway, nil, bookKey), Side: models.SideAway, MarketType: models.MarketMoneylineThree},
	}
}

// GenerateTotalSelections builds the over/under selection pair for a total market.
func GenerateTotalSelections(eventID string, line float64, bookKey string) []models.Selection {
	return []models.Selection{
		{
			SelectionID:            ID(eventID, models.MarketTotal, models.SideOver, &line, bookKey),
			Side:                   models.SideOver,
			MarketLineForSelection: &line,
			MarketType:             models.MarketTotal,
		},
		{
			SelectionID:            ID(eventID, models.MarketTotal, models.SideUnder, &line, bookKey),
			Side:                   models.SideUnder,
			MarketLineForSelection: &line,
			MarketType:             models.MarketTotal,
		},
	}
}

// ValidateSelectionConsistency enforces the resolver invariants: every
// selection has a non-empty id, ids are unique across the market,
// preferenceID matches one selection (or a sentinel), and directionID
// equals preferenceID.
func ValidateSelectionConsistency(selections []models.Selection, preferenceID, directionID string) error {
	seen := make(map[string]bool, len(selections))
	for _, s := range selections {
		if s.SelectionID == "" {
			return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeSelectionInconsistent, "selection missing selection_id")
		}
		if seen[s.SelectionID] {
			return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeSelectionInconsistent, "duplicate selection_id across market")
		}
		seen[s.SelectionID] = true
	}

	if preferenceID != sentinelNoEdge && preferenceID != sentinelInvalid {
		if !seen[preferenceID] {
			return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeSelectionInconsistent,
				"model_preference_selection_id does not match any selection in the market")
		}
	}

	if directionID != preferenceID {
		return decisionerr.New(decisionerr.KindIntegrity, decisionerr.CodeSelectionInconsistent,
			"direction_selection_id must equal model_preference_selection_id")
	}

	return nil
}

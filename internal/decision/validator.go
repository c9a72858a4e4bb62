// Package decision is the market-decision assembler. The validator owns
// every release invariant; because this module also owns the selection
// resolver, it can recompute and cross-check every selection_id it is
// handed rather than trusting the caller.
package decision

import (
	"strings"

	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

var misleadingWords = []string{"misprice", "edge", "value", "inefficiency"}

// Competitors maps team_id to team_name for one game, used to check
// competitor integrity.
type Competitors map[string]string

// Assembled wraps a MarketDecision with the context the validator needs but
// that does not belong on the public, storable record: which side was
// recommended, which team_id it maps to, and the book the decision was
// priced against.
type Assembled struct {
	models.MarketDecision
	RecommendedSide models.Side
	RecommendedTeamID string
	BookKey         string
}

// Validate enforces the release invariants and returns the
// violations list; an empty slice means the decision may be released.
func Validate(d Assembled, competitors Competitors) []string {
	var violations []string

	// 1. Competitor integrity: for spread/moneyline the preferred team must
	// exist among the game's competitors.
	if d.MarketType == models.MarketSpread || d.MarketType == models.MarketMoneylineTwo {
		if d.RecommendedSelectionID != "" && d.RecommendedTeamID != "" {
			if _, ok := competitors[d.RecommendedTeamID]; !ok {
				violations = append(violations, "COMPETITOR_INTEGRITY_FAILED")
			}
		}
	}

	// 2. Required fields.
	if d.RecommendedSelectionID == "" && d.ModelPreferenceSelectionID == "" {
		violations = append(violations, "MISSING_SELECTION_ID")
	}
	if d.Debug.InputsHash == "" {
		violations = append(violations, "MISSING_INPUTS_HASH")
	}

	// 3. Classification coherence: MARKET_ALIGNED reasons must not contain
	// misprice/edge/value/inefficiency (case-insensitive substring).
	if d.Classification == models.ClassificationMarketAligned {
		for _, reason := range d.Reasons {
			lower := strings.ToLower(reason)
			for _, bad := range misleadingWords {
				if strings.Contains(lower, bad) {
					violations = append(violations, "MARKET_ALIGNED_REASON_MISMATCH")
				}
			}
		}
	}

	// 4. EDGE/LEAN must carry a non-zero edge (EV for moneylines, points
	// otherwise); the sign of the edge is not checked.
	if d.Classification == models.ClassificationEdge || d.Classification == models.ClassificationLean {
		nonZero := d.Edge.EdgeEV != 0
		if d.MarketType != models.MarketMoneylineTwo && d.MarketType != models.MarketMoneylineThree {
			nonZero = d.Edge.EdgePoints != 0
		}
		if !nonZero {
			violations = append(violations, "ZERO_EDGE_FOR_ACTIONABLE_TIER")
		}
	}

	// 5. Spread market line must not be 0.
	if d.MarketType == models.MarketSpread && d.MarketLine != nil && *d.MarketLine == 0 {
		violations = append(violations, "SPREAD_LINE_ZERO")
	}

	// 6. Total side must be OVER or UNDER.
	if d.MarketType == models.MarketTotal && d.RecommendedSelectionID != "" {
		if d.RecommendedSide != models.SideOver && d.RecommendedSide != models.SideUnder {
			violations = append(violations, "TOTAL_SIDE_INVALID")
		}
	}

	// 7. Direction id must equal preference id.
	if d.DirectionSelectionID != "" && d.DirectionSelectionID != d.ModelPreferenceSelectionID {
		violations = append(violations, "DIRECTION_PREFERENCE_MISMATCH")
	}

	// 8. Selection-id cross-check (supplemented beyond the original source):
	// recompute the selection id from its declared components and compare.
	if d.RecommendedSelectionID != "" && d.RecommendedSide != "" {
		recomputed := selection.ID(d.GameID, d.MarketType, d.RecommendedSide, d.MarketLine, d.BookKey)
		if recomputed != d.RecommendedSelectionID {
			violations = append(violations, "SELECTION_ID_MISMATCH")
		}
	}

	return violations
}

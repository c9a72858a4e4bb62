package decision

import (
	"time"

	"github.com/xavierbriggs/decision-core/internal/store"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// AssembleInput bundles everything the assembler needs to build one
// MarketDecision for a (game, market_type) at one context_hash.
type AssembleInput struct {
	GameID             string
	Sport              models.Sport
	MarketType         models.MarketType
	MarketSettlement   models.MarketSettlement
	ContextHash        string
	Selections         []models.Selection
	PreferenceSelectionID string
	PreferenceSide     models.Side
	PreferenceTeamID   string
	MarketLine         *float64
	MarketOdds         int
	BookKey            string
	EdgePoints         float64
	EdgeEV             float64
	ModelProbabilityRaw float64
	ModelProbabilityAdjusted float64
	Classification     models.Classification
	Reasons            []string
	CalibrationVersion string
	DecisionVersion    int
	Competitors        Competitors
}

// Assemble builds a MarketDecision, runs the validator, and sets
// release_status accordingly.
func Assemble(in AssembleInput, now time.Time) (Assembled, error) {
	inputsHash, err := store.InputsHash(in.ContextHash, string(in.MarketType), in.MarketLine, in.MarketOdds, in.CalibrationVersion, in.DecisionVersion)
	if err != nil {
		return Assembled{}, err
	}

	recommendedID := ""
	if in.Classification == models.ClassificationEdge || in.Classification == models.ClassificationLean {
		recommendedID = in.PreferenceSelectionID
	}

	d := models.MarketDecision{
		GameID:                   in.GameID,
		Sport:                    in.Sport,
		MarketType:               in.MarketType,
		MarketSettlement:         in.MarketSettlement,
		ContextHash:              in.ContextHash,
		ModelPreferenceSelectionID: in.PreferenceSelectionID,
		RecommendedSelectionID:   recommendedID,
		DirectionSelectionID:     in.PreferenceSelectionID,
		MarketLine:               in.MarketLine,
		MarketOdds:               in.MarketOdds,
		Edge:                     models.Edge{EdgePoints: in.EdgePoints, EdgeEV: in.EdgeEV},
		ModelProbabilityRaw:      in.ModelProbabilityRaw,
		ModelProbabilityAdjusted: in.ModelProbabilityAdjusted,
		Classification:           in.Classification,
		Reasons:                  in.Reasons,
		Debug:                    models.DecisionDebug{InputsHash: inputsHash},
		DecisionVersion:          in.DecisionVersion,
		CalibrationVersion:       in.CalibrationVersion,
		ComputedAt:               now,
	}

	assembled := Assembled{
		MarketDecision:    d,
		RecommendedSide:   in.PreferenceSide,
		RecommendedTeamID: in.PreferenceTeamID,
		BookKey:           in.BookKey,
	}

	if recommendedID == "" {
		assembled.RecommendedSide = ""
	}

	violations := Validate(assembled, in.Competitors)
	if len(violations) > 0 {
		assembled.Classification = models.ClassificationBlocked
		assembled.ReleaseStatus = models.ReleaseBlockedByIntegrity
		assembled.Reasons = append(assembled.Reasons, violations...)
	} else {
		assembled.ReleaseStatus = models.ReleaseApproved
	}

	return assembled, nil
}

// AssembleGame bundles spread, moneyline, and total decisions for one game
// sharing one inputs_hash-bearing computed_at timestamp.
func AssembleGame(gameID, homeName, awayName string, spread, moneyline, total *Assembled, decisionVersion int, now time.Time) models.GameDecisions {
	gd := models.GameDecisions{
		GameID: gameID, HomeTeamName: homeName, AwayTeamName: awayName,
		DecisionVersion: decisionVersion, ComputedAt: now,
	}
	if spread != nil {
		md := spread.MarketDecision
		gd.Spread = &md
		gd.InputsHash = md.Debug.InputsHash
	}
	if moneyline != nil {
		md := moneyline.MarketDecision
		gd.Moneyline = &md
	}
	if total != nil {
		md := total.MarketDecision
		gd.Total = &md
	}
	return gd
}

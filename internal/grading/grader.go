// Package grading settles official PublishedPredictions against an
// EventResult, computes CLV versus the closing line, and feeds the
// per-segment calibration retraining job.
package grading

import (
	"context"
	"fmt"
	"time"

	"github.com/xavierbriggs/decision-core/internal/oddsmath"
	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// GradingWriter is the slice of store.GradingStore the grader needs.
type GradingWriter interface {
	Insert(ctx context.Context, g models.Grading) error
}

// Grader settles published predictions and records CLV.
type Grader struct {
	gradings GradingWriter
}

func NewGrader(g GradingWriter) *Grader {
	return &Grader{gradings: g}
}

// ClosingQuote is the closing market for the published side, read from the
// last OddsSnapshot captured before game start.
type ClosingQuote struct {
	Price int
	Line  *float64
}

// Settle grades one official PublishedPrediction against the final result:
// totals grade OVER/UNDER against the locked line, spread grades cover
// margin against the locked line, moneyline grades the outright winner
// (ties per sport rule). closing, when available, is the
// closing quote for the published side; missing closing data leaves CLV
// unset rather than blocking settlement.
func (g *Grader) Settle(ctx context.Context, pub models.PublishedPrediction, sport models.Sport, result models.EventResult, closing *ClosingQuote, now time.Time) (models.Grading, error) {
	if !result.Completed {
		return models.Grading{}, fmt.Errorf("grade: event %s not yet completed", result.GameID)
	}
	if !pub.IsOfficial {
		return models.Grading{}, fmt.Errorf("grade: prediction %s is not official", pub.PredictionID)
	}

	outcome, units := gradeOutcome(pub, sport, result)

	grading := models.Grading{
		PredictionID:  pub.PredictionID,
		Outcome:       outcome,
		RealizedUnits: units,
		GradedAtUTC:   now.UTC(),
	}

	if closing != nil {
		if clv, ok := closingLineValue(pub, result.GameID, *closing); ok {
			grading.CLV = &clv
		}
	}

	if err := g.gradings.Insert(ctx, grading); err != nil {
		return models.Grading{}, fmt.Errorf("insert grading: %w", err)
	}
	return grading, nil
}

// gradeOutcome dispatches by the market key embedded in pub.MarketKey.
func gradeOutcome(pub models.PublishedPrediction, sport models.Sport, result models.EventResult) (models.GradingOutcome, float64) {
	if pub.TicketTerms.MarketLine == nil && models.MarketType(pub.MarketKey) != models.MarketMoneylineTwo && models.MarketType(pub.MarketKey) != models.MarketMoneylineThree {
		return models.GradingVoid, 0
	}

	switch models.MarketType(pub.MarketKey) {
	case models.MarketMoneylineTwo:
		return gradeMoneyline(pub, sport, result)
	case models.MarketSpread:
		return gradeSpread(pub, result)
	case models.MarketTotal:
		return gradeTotal(pub, result)
	default:
		return models.GradingVoid, 0
	}
}

func sideFromSelectionID(pub models.PublishedPrediction, eventID, bookKey string, line *float64) models.Side {
	for _, side := range []models.Side{models.SideHome, models.SideAway, models.SideOver, models.SideUnder} {
		if selection.ID(eventID, models.MarketType(pub.MarketKey), side, line, bookKey) == pub.SelectionID {
			return side
		}
	}
	return ""
}

func gradeMoneyline(pub models.PublishedPrediction, sport models.Sport, result models.EventResult) (models.GradingOutcome, float64) {
	if result.HomeScore == result.AwayScore {
		// MLB/NHL full-game grade under sport rule: no shootout/extras data in
		// EventResult, so a tied full-game score pushes.
		_ = sport
		return models.GradingPush, 1.0
	}
	winner := models.SideAway
	if result.HomeScore > result.AwayScore {
		winner = models.SideHome
	}
	side := sideFromSelectionID(pub, result.GameID, pub.TicketTerms.BookKey, nil)
	if side == winner {
		return models.GradingWin, oddsmath.PayoutPer100(pub.TicketTerms.Price) / 100.0
	}
	return models.GradingLoss, -1.0
}

func gradeSpread(pub models.PublishedPrediction, result models.EventResult) (models.GradingOutcome, float64) {
	line := pub.TicketTerms.MarketLine
	side := sideFromSelectionID(pub, result.GameID, pub.TicketTerms.BookKey, line)
	var adjusted, opponent float64
	switch side {
	case models.SideHome:
		adjusted = float64(result.HomeScore) + *line
		opponent = float64(result.AwayScore)
	case models.SideAway:
		adjusted = float64(result.AwayScore) + *line
		opponent = float64(result.HomeScore)
	default:
		return models.GradingVoid, 0
	}
	switch {
	case adjusted > opponent:
		return models.GradingWin, oddsmath.PayoutPer100(pub.TicketTerms.Price) / 100.0
	case adjusted == opponent:
		return models.GradingPush, 1.0
	default:
		return models.GradingLoss, -1.0
	}
}

func gradeTotal(pub models.PublishedPrediction, result models.EventResult) (models.GradingOutcome, float64) {
	line := pub.TicketTerms.MarketLine
	side := sideFromSelectionID(pub, result.GameID, pub.TicketTerms.BookKey, line)
	total := float64(result.HomeScore + result.AwayScore)
	switch side {
	case models.SideOver:
		switch {
		case total > *line:
			return models.GradingWin, oddsmath.PayoutPer100(pub.TicketTerms.Price) / 100.0
		case total == *line:
			return models.GradingPush, 1.0
		default:
			return models.GradingLoss, -1.0
		}
	case models.SideUnder:
		switch {
		case total < *line:
			return models.GradingWin, oddsmath.PayoutPer100(pub.TicketTerms.Price) / 100.0
		case total == *line:
			return models.GradingPush, 1.0
		default:
			return models.GradingLoss, -1.0
		}
	default:
		return models.GradingVoid, 0
	}
}

// closingLineValue picks the CLV form per market: line-based points for
// spreads and totals (positive when the market closed past the number
// taken, in the bet's favor), implied-probability based for moneylines.
func closingLineValue(pub models.PublishedPrediction, eventID string, closing ClosingQuote) (float64, bool) {
	marketType := models.MarketType(pub.MarketKey)
	switch marketType {
	case models.MarketMoneylineTwo, models.MarketMoneylineThree:
		clv, err := ComputeCLV(pub.TicketTerms.Price, closing.Price)
		if err != nil {
			return 0, false
		}
		return clv, true
	case models.MarketSpread, models.MarketTotal:
		if pub.TicketTerms.MarketLine == nil || closing.Line == nil {
			return 0, false
		}
		side := sideFromSelectionID(pub, eventID, pub.TicketTerms.BookKey, pub.TicketTerms.MarketLine)
		if side == "" {
			return 0, false
		}
		return ComputeLineCLV(side, *pub.TicketTerms.MarketLine, *closing.Line), true
	default:
		return 0, false
	}
}

// ComputeLineCLV measures closing-line value in points for line markets. A
// spread side prefers holding a larger number than the close, an over
// prefers the market to have closed above its line, an under the reverse.
func ComputeLineCLV(side models.Side, takenLine, closingLine float64) float64 {
	switch side {
	case models.SideOver:
		return closingLine - takenLine
	case models.SideUnder:
		return takenLine - closingLine
	default:
		return takenLine - closingLine
	}
}

// ComputeCLV returns the closing-line-value measurement for one publication
// against the closing price captured near game start:
// clv = p_closed - p_taken, favorable when positive.
func ComputeCLV(takenAmericanPrice, closingAmericanPrice int) (float64, error) {
	pTaken, err := oddsmath.AmericanToImpliedProbability(takenAmericanPrice)
	if err != nil {
		return 0, fmt.Errorf("taken price: %w", err)
	}
	pClosed, err := oddsmath.AmericanToImpliedProbability(closingAmericanPrice)
	if err != nil {
		return 0, fmt.Errorf("closing price: %w", err)
	}
	return pClosed - pTaken, nil
}

// ClosingQuoteFor scans a closing OddsSnapshot for the quote matching the
// published side, or nil when the snapshot carries no matching market.
func ClosingQuoteFor(pub models.PublishedPrediction, snap *models.OddsSnapshot) *ClosingQuote {
	if snap == nil {
		return nil
	}
	marketType := models.MarketType(pub.MarketKey)
	var sideLine *float64
	if marketType == models.MarketSpread || marketType == models.MarketTotal {
		sideLine = pub.TicketTerms.MarketLine
	}
	side := sideFromSelectionID(pub, snap.GameID, pub.TicketTerms.BookKey, sideLine)
	if side == "" {
		return nil
	}
	for _, line := range snap.Lines {
		if line.MarketType == marketType && line.Side == side {
			return &ClosingQuote{Price: line.AmericanOdds, Line: line.Point}
		}
	}
	return nil
}

// PromoteCalibration performs the explicit pointer swap: no silent
// rollout, the new version is returned for the caller to record and
// write to the audit log.
func PromoteCalibration(current models.CalibrationSegment, next models.CalibrationSegment) (models.CalibrationSegment, error) {
	if current.Sport != next.Sport || current.MarketType != next.MarketType || current.Bucket != next.Bucket {
		return models.CalibrationSegment{}, fmt.Errorf("promote calibration: segment mismatch (%s/%s/%s vs %s/%s/%s)",
			current.Sport, current.MarketType, current.Bucket, next.Sport, next.MarketType, next.Bucket)
	}
	return next, nil
}

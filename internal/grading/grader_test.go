package grading_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/xavierbriggs/decision-core/internal/grading"
	"github.com/xavierbriggs/decision-core/internal/selection"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestComputeCLVFavorableWhenLineMoved(t *testing.T) {
	clv, err := grading.ComputeCLV(-110, -130)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clv <= 0 {
		t.Errorf("expected positive CLV when closing price tightened in bettor's favor, got %f", clv)
	}
}

func TestComputeCLVUnfavorableWhenLineDrifts(t *testing.T) {
	clv, err := grading.ComputeCLV(-130, -110)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clv >= 0 {
		t.Errorf("expected negative CLV when closing price drifted away, got %f", clv)
	}
}

func TestPromoteCalibrationRejectsSegmentMismatch(t *testing.T) {
	current := models.CalibrationSegment{Sport: models.SportNBA, MarketType: models.MarketSpread, Bucket: "b1"}
	next := models.CalibrationSegment{Sport: models.SportNFL, MarketType: models.MarketSpread, Bucket: "b1"}
	if _, err := grading.PromoteCalibration(current, next); err == nil {
		t.Error("expected error on segment mismatch")
	}
}

func TestPromoteCalibrationAcceptsMatchingSegment(t *testing.T) {
	current := models.CalibrationSegment{Sport: models.SportNBA, MarketType: models.MarketSpread, Bucket: "b1", CalibrationVersion: "v1"}
	next := models.CalibrationSegment{Sport: models.SportNBA, MarketType: models.MarketSpread, Bucket: "b1", CalibrationVersion: "v2"}
	promoted, err := grading.PromoteCalibration(current, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted.CalibrationVersion != "v2" {
		t.Errorf("expected promoted version v2, got %s", promoted.CalibrationVersion)
	}
}

func TestSettleRejectsIncompleteEvent(t *testing.T) {
	pub := models.PublishedPrediction{IsOfficial: true}
	result := models.EventResult{GameID: "game-9", Completed: false}
	_, err := grading.NewGrader(nil).Settle(context.Background(), pub, models.SportNFL, result, nil, time.Unix(0, 0))
	if err == nil {
		t.Error("expected error for incomplete event")
	}
}

func TestSettleRejectsUnofficialPublication(t *testing.T) {
	pub := models.PublishedPrediction{IsOfficial: false}
	result := models.EventResult{GameID: "game-9", Completed: true}
	_, err := grading.NewGrader(nil).Settle(context.Background(), pub, models.SportNFL, result, nil, time.Unix(0, 0))
	if err == nil {
		t.Error("expected error for unofficial publication")
	}
}

// memGradings is an in-memory GradingWriter for settlement tests.
type memGradings struct {
	records []models.Grading
}

func (m *memGradings) Insert(ctx context.Context, g models.Grading) error {
	m.records = append(m.records, g)
	return nil
}

func TestSettleSpreadWinWithFavorableCLV(t *testing.T) {
	// Published EDGE on home -3.5 at -110; final score home by 5; closing
	// snapshot shows home -4.5 at -110.
	line := -3.5
	selID := selection.ID("G6", models.MarketSpread, models.SideHome, &line, "dk")
	pub := models.PublishedPrediction{
		PredictionID: "pred-6",
		MarketKey:    string(models.MarketSpread),
		SelectionID:  selID,
		IsOfficial:   true,
		TicketTerms:  models.TicketTerms{MarketLine: &line, Price: -110, BookKey: "dk"},
	}
	result := models.EventResult{GameID: "G6", HomeScore: 27, AwayScore: 22, Completed: true}
	closingLine := -4.5
	closing := &grading.ClosingQuote{Price: -110, Line: &closingLine}

	mem := &memGradings{}
	graded, err := grading.NewGrader(mem).Settle(context.Background(), pub, models.SportNFL, result, closing, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graded.Outcome != models.GradingWin {
		t.Errorf("expected WIN, got %s", graded.Outcome)
	}
	if math.Abs(graded.RealizedUnits-0.9091) > 0.001 {
		t.Errorf("expected realized units ~+0.91, got %f", graded.RealizedUnits)
	}
	if graded.CLV == nil || *graded.CLV <= 0 {
		t.Errorf("expected favorable CLV from -3.5 taken vs -4.5 close, got %v", graded.CLV)
	}
	if len(mem.records) != 1 {
		t.Errorf("expected one grading record written, got %d", len(mem.records))
	}
}

func TestSettleTotalPushOnExactLine(t *testing.T) {
	line := 44.0
	selID := selection.ID("G7", models.MarketTotal, models.SideOver, &line, "dk")
	pub := models.PublishedPrediction{
		PredictionID: "pred-7",
		MarketKey:    string(models.MarketTotal),
		SelectionID:  selID,
		IsOfficial:   true,
		TicketTerms:  models.TicketTerms{MarketLine: &line, Price: -110, BookKey: "dk"},
	}
	result := models.EventResult{GameID: "G7", HomeScore: 24, AwayScore: 20, Completed: true}

	mem := &memGradings{}
	graded, err := grading.NewGrader(mem).Settle(context.Background(), pub, models.SportNFL, result, nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graded.Outcome != models.GradingPush {
		t.Errorf("expected PUSH on landed line, got %s", graded.Outcome)
	}
	if graded.CLV != nil {
		t.Error("expected no CLV without a closing quote")
	}
}

func TestComputeLineCLVDirections(t *testing.T) {
	if clv := grading.ComputeLineCLV(models.SideHome, -3.5, -4.5); clv <= 0 {
		t.Errorf("home -3.5 vs close -4.5 should be favorable, got %f", clv)
	}
	if clv := grading.ComputeLineCLV(models.SideOver, 44.5, 43.5); clv >= 0 {
		t.Errorf("over 44.5 vs close 43.5 should be unfavorable, got %f", clv)
	}
	if clv := grading.ComputeLineCLV(models.SideUnder, 44.5, 43.5); clv <= 0 {
		t.Errorf("under 44.5 vs close 43.5 should be favorable, got %f", clv)
	}
}

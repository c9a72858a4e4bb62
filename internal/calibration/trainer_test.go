package calibration_test

import (
	"math"
	"testing"
	"time"

	"github.com/xavierbriggs/decision-core/internal/calibration"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// overconfidentSamples builds a training set where the model's published
// probabilities run hot: picks published at p win only at p-0.1.
func overconfidentSamples(n int) []calibration.Sample {
	samples := make([]calibration.Sample, 0, n)
	for i := 0; i < n; i++ {
		p := 0.55 + 0.35*float64(i)/float64(n)
		// Deterministic win pattern approximating rate p-0.1.
		won := float64(i%10)/10.0 < p-0.1
		samples = append(samples, calibration.Sample{Predicted: p, Won: won})
	}
	return samples
}

func TestTrainRejectsTinySampleSets(t *testing.T) {
	_, err := calibration.Train(models.SportNBA, models.MarketSpread, "b1",
		calibration.MethodIsotonic, "cal-v2", make([]calibration.Sample, 10), time.Unix(0, 0))
	if err == nil {
		t.Error("expected training on 10 samples to be refused")
	}
}

func TestTrainIsotonicIsMonotone(t *testing.T) {
	seg, err := calibration.Train(models.SportNBA, models.MarketSpread, "b1",
		calibration.MethodIsotonic, "cal-v2", overconfidentSamples(200), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seg.Knots) == 0 {
		t.Fatal("expected isotonic fit to produce knots")
	}
	for i := 1; i < len(seg.Knots); i++ {
		if seg.Knots[i].Y < seg.Knots[i-1].Y {
			t.Fatalf("isotonic fit not monotone at knot %d: %f < %f", i, seg.Knots[i].Y, seg.Knots[i-1].Y)
		}
		if seg.Knots[i].X <= seg.Knots[i-1].X {
			t.Fatalf("isotonic knots not strictly increasing in X at %d", i)
		}
	}

	lo := calibration.ApplySegment(seg, 0.55)
	hi := calibration.ApplySegment(seg, 0.90)
	if lo > hi {
		t.Errorf("applied isotonic map not monotone: f(0.55)=%f > f(0.90)=%f", lo, hi)
	}
}

func TestTrainPlattShrinksOverconfidence(t *testing.T) {
	seg, err := calibration.Train(models.SportMLB, models.MarketMoneylineTwo, "b1",
		calibration.MethodPlatt, "cal-v2", overconfidentSamples(500), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calibrated := calibration.ApplySegment(seg, 0.80)
	if calibrated >= 0.80 {
		t.Errorf("expected Platt fit on an overconfident model to pull 0.80 down, got %f", calibrated)
	}
	if calibrated < 0.5 {
		t.Errorf("expected calibrated probability to stay above coin-flip, got %f", calibrated)
	}
}

func TestApplySegmentUnknownMethodIsIdentity(t *testing.T) {
	seg := models.CalibrationSegment{Method: "unknown"}
	if got := calibration.ApplySegment(seg, 0.63); math.Abs(got-0.63) > 1e-12 {
		t.Errorf("expected identity map for unknown method, got %f", got)
	}
}

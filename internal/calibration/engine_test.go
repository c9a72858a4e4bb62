package calibration_test

import (
	"math"
	"testing"

	"github.com/xavierbriggs/decision-core/internal/calibration"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

func TestApplyWithinSoftDeviationNoPenalty(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	out := calibration.Apply(cfg, calibration.Input{
		ModelValue: -5.5, MarketValue: -5.7, RawProbability: 0.55, ZVariance: 0.5,
	})
	if !out.Publish {
		t.Error("expected publish=true within soft deviation")
	}
	if out.EdgeDampingFactor != 1.0 {
		t.Errorf("expected no damping, got %f", out.EdgeDampingFactor)
	}
}

func TestApplyHardDeviationBlocksWithoutElite(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	out := calibration.Apply(cfg, calibration.Input{
		ModelValue: -15.0, MarketValue: -5.5, RawProbability: 0.55, ZVariance: 0.5,
	})
	if out.Publish {
		t.Error("expected hard deviation without elite override to block publish")
	}
}

func TestApplyHardDeviationElitePassesThrough(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNBA)
	out := calibration.Apply(cfg, calibration.Input{
		ModelValue: -15.0, MarketValue: -5.5, RawProbability: 0.55, ZVariance: 0.5,
		Elite: calibration.EliteInputs{
			Probability: cfg.EliteMinProbability + 0.01,
			ZVariance:   cfg.EliteMaxZVariance - 0.01,
			DataQuality: cfg.EliteMinDataQuality + 0.01,
		},
	})
	if !out.Publish {
		t.Error("expected elite override to allow publish despite hard deviation")
	}
}

func TestApplyCompression(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNHL) // low compression factor
	out := calibration.Apply(cfg, calibration.Input{RawProbability: 0.70, ZVariance: 0.5})
	want := 0.5 + (0.70-0.5)*cfg.CompressionFactor
	if math.Abs(out.ProbabilityAdjusted-want) > 1e-9 {
		t.Errorf("compressed probability = %f, want %f", out.ProbabilityAdjusted, want)
	}
}

func TestApplyExtremeVarianceBlocks(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNHL)
	out := calibration.Apply(cfg, calibration.Input{RawProbability: 0.55, ZVariance: cfg.ExtremeVarianceZ + 0.1})
	if out.Publish {
		t.Error("expected beyond-extreme variance to block publish")
	}
}

func TestApplyPostseasonRegime(t *testing.T) {
	cfg := sportconfig.DefaultConfigFor(models.SportNCAAF)
	out := calibration.Apply(cfg, calibration.Input{RawProbability: 0.72, ZVariance: 0.5, Postseason: true})

	ceiling := cfg.Postseason.PublicCeilingPercentile
	if out.ProbabilityAdjusted > ceiling {
		t.Errorf("expected postseason ceiling %f to cap probability, got %f", ceiling, out.ProbabilityAdjusted)
	}
	if out.EdgeDampingFactor >= 1.0 {
		t.Errorf("expected postseason pace compression to dampen edge, got %f", out.EdgeDampingFactor)
	}

	regular := calibration.Apply(cfg, calibration.Input{RawProbability: 0.72, ZVariance: 0.5})
	if regular.EdgeDampingFactor != 1.0 {
		t.Errorf("expected no damping outside postseason, got %f", regular.EdgeDampingFactor)
	}
}

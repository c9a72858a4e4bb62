// Package calibration is the calibration engine: a four-stage pipeline of
// market-anchor penalty, variance gating, probability compression, and
// league-baseline clamp. Each stage is data-driven off sportconfig.Config,
// never a per-sport code branch.
package calibration

import (
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
)

// EliteInputs carries the extra signals needed to evaluate an elite-override
// exception to the hard-deviation block.
type EliteInputs struct {
	Probability       float64
	ZVariance         float64
	DataQuality       float64
	InjuryUncertainty float64
}

// meetsEliteOverride reports whether all elite-override conditions hold.
func meetsEliteOverride(cfg sportconfig.Config, in EliteInputs) bool {
	return in.Probability >= cfg.EliteMinProbability &&
		in.ZVariance <= cfg.EliteMaxZVariance &&
		in.DataQuality >= cfg.EliteMinDataQuality &&
		in.InjuryUncertainty <= cfg.EliteMaxInjuryUncertainty
}

// BaselineDrift carries the rolling-window bias inputs for stage 4.
type BaselineDrift struct {
	BiasVsActual float64
	BiasVsMarket float64
	OverRate     float64
	DampFactor   float64 // applied multiplicatively to edge if any bound is exceeded
}

// Input bundles everything the engine's four stages need.
type Input struct {
	ModelValue    float64 // model spread/total/line value
	MarketValue   float64
	RawProbability float64
	ZVariance     float64 // current sigma / sport normal sigma
	Elite         EliteInputs
	Baseline      BaselineDrift
	Postseason    bool
}

// Output is the engine's verdict: an adjusted probability/edge, whether
// publication is allowed, and the reason codes attached to any block.
type Output struct {
	ProbabilityAdjusted float64
	EdgeDampingFactor    float64
	Publish              bool
	BlockReasons         []string
	AppliedPenalties     map[string]float64
}

// Apply runs the four-stage calibration pipeline for one market_type value.
func Apply(cfg sportconfig.Config, in Input) Output {
	out := Output{
		ProbabilityAdjusted: in.RawProbability,
		EdgeDampingFactor:    1.0,
		Publish:              true,
		AppliedPenalties:     map[string]float64{},
	}

	// Stage 1: market-anchor penalty.
	d := absf(in.ModelValue - in.MarketValue)
	switch {
	case d <= cfg.SoftDeviation:
		// no penalty
	case d <= cfg.HardDeviation:
		span := cfg.HardDeviation - cfg.SoftDeviation
		frac := 0.0
		if span > 0 {
			frac = (d - cfg.SoftDeviation) / span
		}
		penalty := frac // linear penalty in [0,1], dampens edge proportionally
		out.AppliedPenalties["market_anchor_penalty"] = penalty
		out.EdgeDampingFactor *= 1.0 - penalty
	default:
		out.AppliedPenalties["market_anchor_penalty"] = 1.0
		if !meetsEliteOverride(cfg, in.Elite) {
			out.Publish = false
			out.BlockReasons = append(out.BlockReasons, "HARD_DEVIATION_EXCEEDED")
		}
	}

	// Stage 2: variance gating.
	switch {
	case in.ZVariance <= cfg.NormalVarianceZ:
		// no dampening
	case in.ZVariance <= cfg.HighVarianceZ:
		out.EdgeDampingFactor *= 0.75
		out.AppliedPenalties["variance_gate"] = 0.25
	case in.ZVariance <= cfg.ExtremeVarianceZ:
		out.EdgeDampingFactor *= 0.25
		out.AppliedPenalties["variance_gate"] = 0.75
	default:
		out.EdgeDampingFactor *= 0.25
		out.AppliedPenalties["variance_gate"] = 0.75
		out.Publish = false
		out.BlockReasons = append(out.BlockReasons, "EXTREME_VARIANCE_BLOCK")
	}

	// Stage 3: probability compression.
	// p_compressed = 0.5 + (p_raw - 0.5) * compression_factor
	out.ProbabilityAdjusted = 0.5 + (in.RawProbability-0.5)*cfg.CompressionFactor

	// Postseason regime: pace compression and public-ceiling clamp, data
	// carried on the sport config and applied only when the context flags
	// the game postseason.
	if cfg.Postseason.Enabled && in.Postseason {
		out.EdgeDampingFactor *= 1.0 - cfg.Postseason.PaceCompressionPct
		out.AppliedPenalties["postseason_regime"] = cfg.Postseason.PaceCompressionPct
		if out.ProbabilityAdjusted > cfg.Postseason.PublicCeilingPercentile {
			out.ProbabilityAdjusted = cfg.Postseason.PublicCeilingPercentile
		}
	}

	// Stage 4: league baseline clamp.
	if absf(in.Baseline.BiasVsActual) > cfg.MaxBiasVsActual ||
		absf(in.Baseline.BiasVsMarket) > cfg.MaxBiasVsMarket ||
		in.Baseline.OverRate > cfg.MaxOverRate {
		damp := in.Baseline.DampFactor
		if damp <= 0 {
			damp = 0.5
		}
		out.EdgeDampingFactor *= damp
		out.AppliedPenalties["baseline_clamp"] = 1.0 - damp
	}

	return out
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package rcl is the reality-check layer: it clamps or flags model totals
// against league historical mean/sigma and, for live games, checks pace
// feasibility.
package rcl

import (
	"fmt"
	"math"
)

// PaceGuardrailStatus reports the live pace feasibility verdict.
type PaceGuardrailStatus string

const (
	PaceNotApplicable PaceGuardrailStatus = "not_applicable"
	PaceFeasible      PaceGuardrailStatus = "feasible"
	PaceInfeasible    PaceGuardrailStatus = "infeasible"
)

// Input bundles the values the RCL needs for one (game, market_type=TOTAL) check.
type Input struct {
	ModelTotal          float64
	HistoricalMean      float64
	HistoricalStdDev    float64
	IsLive              bool
	CurrentTotalPoints  float64
	ElapsedMinutes      float64
	RegulationMinutes   float64
	PaceFeasibilityCeil float64 // max plausible points/minute for the sport
}

// Result is the RCL's verdict, shaped after SimAuditRecord.
type Result struct {
	ZScore              float64
	RCLPassed           bool
	RCLReason           string
	ClampedModelTotal   float64
	ConfidenceAdjustment string // e.g. "DOWNGRADE_2_TIERS", "" if none
	PaceGuardrailStatus PaceGuardrailStatus
	BlockEdge           bool
}

// Evaluate applies the three-band policy:
//
//	|z| <= 2.0            -> pass
//	2.0 < |z| <= 3.0       -> flag, downgrade confidence, still passable
//	|z| > 3.0              -> clamp to mean +/- 2*sigma, rcl_passed=false
func Evaluate(in Input) Result {
	res := Result{
		ClampedModelTotal:   in.ModelTotal,
		PaceGuardrailStatus: PaceNotApplicable,
	}

	if in.HistoricalStdDev <= 0 {
		res.RCLPassed = true
		res.RCLReason = "NO_HISTORICAL_VARIANCE"
		return res
	}

	z := (in.ModelTotal - in.HistoricalMean) / in.HistoricalStdDev
	res.ZScore = z
	absZ := math.Abs(z)

	switch {
	case absZ <= 2.0:
		res.RCLPassed = true
		res.RCLReason = "PASS"
	case absZ <= 3.0:
		res.RCLPassed = true
		res.RCLReason = formatReason("HISTORICAL_DEVIATION_Z", z)
		res.ConfidenceAdjustment = "DOWNGRADE_1_TIER"
	default:
		res.RCLPassed = false
		res.RCLReason = formatReason("HISTORICAL_OUTLIER_Z", z)
		res.ConfidenceAdjustment = "DOWNGRADE_2_TIERS"
		if z > 0 {
			res.ClampedModelTotal = in.HistoricalMean + 2*in.HistoricalStdDev
		} else {
			res.ClampedModelTotal = in.HistoricalMean - 2*in.HistoricalStdDev
		}
	}

	if in.IsLive && in.ElapsedMinutes > 0 && in.RegulationMinutes > in.ElapsedMinutes {
		remainingMinutes := in.RegulationMinutes - in.ElapsedMinutes
		pointsNeeded := in.ModelTotal - in.CurrentTotalPoints
		requiredPace := pointsNeeded / remainingMinutes
		if in.PaceFeasibilityCeil > 0 && requiredPace > in.PaceFeasibilityCeil {
			res.PaceGuardrailStatus = PaceInfeasible
			res.BlockEdge = true
		} else {
			res.PaceGuardrailStatus = PaceFeasible
		}
	}

	if !res.RCLPassed {
		res.BlockEdge = true
	}

	return res
}

// formatReason renders a reason code with its z-score, e.g.
// "HISTORICAL_OUTLIER_Z=3.50".
func formatReason(prefix string, z float64) string {
	return fmt.Sprintf("%s=%.2f", prefix, z)
}

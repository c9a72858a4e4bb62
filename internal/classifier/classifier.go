// Package classifier assigns the edge tier. Its sole
// inputs are probability edge, expected value, and integrity flags; CLV,
// market movement, and volatility labels are explicitly excluded from the
// tier decision and may only populate metadata.
package classifier

import (
	"math"

	"github.com/xavierbriggs/decision-core/internal/oddsmath"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// IntegrityFlags captures the hard-block conditions.
type IntegrityFlags struct {
	MissingMarketLine  bool
	StaleOdds          bool
	ContextHashMismatch bool
	SymmetryViolation  bool
	RosterUnavailable  bool
}

func (f IntegrityFlags) AnyFailed() bool {
	return f.MissingMarketLine || f.StaleOdds || f.ContextHashMismatch || f.SymmetryViolation || f.RosterUnavailable
}

// Input bundles everything the classifier needs for one (game, market_type).
type Input struct {
	Sport               models.Sport
	MarketType          models.MarketType
	ProbabilityAdjusted float64
	MarketImpliedProb   float64
	AmericanOdds        int
	PushProbability     float64
	CalibrationPublish  bool
	RCLPassed           bool
	VarianceDowngraded  bool
	Integrity           IntegrityFlags

	// Spread/total-specific, nil for moneyline.
	ModelLine  *float64
	MarketLine *float64
}

// Output is the classifier's verdict.
type Output struct {
	Classification models.Classification
	EdgePoints     float64
	EdgeEV         float64
	Reasons        []string
}

// Classify applies the tier threshold ladder using sport-parameterized
// thresholds from cfg. Key-number protection downgrades EDGE to LEAN for
// NFL/NCAAF/NCAAB spreads that cross a key number without sufficient buffer.
func Classify(cfg sportconfig.Config, in Input) Output {
	out := Output{}

	if in.Integrity.AnyFailed() {
		out.Classification = models.ClassificationBlocked
		out.Reasons = append(out.Reasons, integrityReasons(in.Integrity)...)
		return out
	}

	probEdge := in.ProbabilityAdjusted - in.MarketImpliedProb
	ev, _ := oddsmath.ComputeEVTwoWay(in.ProbabilityAdjusted, in.PushProbability, in.AmericanOdds)
	out.EdgeEV = ev

	if in.ModelLine != nil && in.MarketLine != nil {
		out.EdgePoints = *in.ModelLine - *in.MarketLine
	}

	absProbEdge := math.Abs(probEdge)

	switch {
	case probEdge >= cfg.EdgeMinProbability && ev >= 0 && in.CalibrationPublish && in.RCLPassed && !in.VarianceDowngraded:
		out.Classification = models.ClassificationEdge
		out.Reasons = append(out.Reasons, "EDGE_PROBABILITY_PASS")
	case probEdge >= cfg.LeanMinProbability && ev >= -0.5 && in.CalibrationPublish:
		out.Classification = models.ClassificationLean
		out.Reasons = append(out.Reasons, "LEAN_PROBABILITY_PASS")
	case absProbEdge < cfg.AlignedTolerance:
		out.Classification = models.ClassificationMarketAligned
		out.Reasons = append(out.Reasons, "MARKET_ALIGNED")
	default:
		out.Classification = models.ClassificationNoPlay
		out.Reasons = append(out.Reasons, "NO_PLAY_DEFAULT")
	}

	if out.Classification == models.ClassificationEdge && in.MarketType == models.MarketSpread {
		if downgraded, reason := keyNumberDowngrade(cfg, in); downgraded {
			out.Classification = models.ClassificationLean
			out.Reasons = append(out.Reasons, reason)
		}
	}

	return out
}

// keyNumberDowngrade implements key-number protection. The claimed edge on
// a spread is the cover range between the market number and the model
// number; when a key number sits inside that range padded by the sport's
// buffer, and either line lands within the buffer of the key (the market
// priced just past it, or the model's projection stalled just short of
// it), the edge depends on margins that cluster exactly at the key, so
// EDGE is downgraded to LEAN.
func keyNumberDowngrade(cfg sportconfig.Config, in Input) (bool, string) {
	if len(cfg.KeyNumbers) == 0 || in.ModelLine == nil || in.MarketLine == nil {
		return false, ""
	}
	marketAbs := math.Abs(*in.MarketLine)
	modelAbs := math.Abs(*in.ModelLine)
	lo, hi := marketAbs, modelAbs
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, key := range cfg.KeyNumbers {
		if key <= lo-cfg.KeyNumberBuffer || key >= hi+cfg.KeyNumberBuffer {
			continue
		}
		marketNear := math.Abs(marketAbs-key) < cfg.KeyNumberBuffer
		modelNear := math.Abs(modelAbs-key) < cfg.KeyNumberBuffer
		if marketNear || modelNear {
			return true, "KEY_NUMBER_PROTECTION_DOWNGRADE"
		}
	}
	return false, ""
}

func integrityReasons(f IntegrityFlags) []string {
	var reasons []string
	if f.MissingMarketLine {
		reasons = append(reasons, "MISSING_MARKET_LINE")
	}
	if f.StaleOdds {
		reasons = append(reasons, "STALE_ODDS")
	}
	if f.ContextHashMismatch {
		reasons = append(reasons, "CONTEXT_HASH_MISMATCH")
	}
	if f.SymmetryViolation {
		reasons = append(reasons, "SYMMETRY_VIOLATION")
	}
	if f.RosterUnavailable {
		reasons = append(reasons, "ROSTER_UNAVAILABLE")
	}
	return reasons
}

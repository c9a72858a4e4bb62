// Package sportconfig is the sport config registry: a pure
// lookup of per-sport thresholds, compression factors, key numbers, and
// market-contract rules. All numeric thresholds are data, never code
// branches, so the classifier and calibration engine have exactly one body.
package sportconfig

import (
	"time"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// MarketContract is one legal (market_type, market_settlement) pair for a sport.
type MarketContract struct {
	MarketType       models.MarketType
	MarketSettlement models.MarketSettlement
}

// PostseasonAdjustment folds NCAAF's championship-regime pace handling in
// as data rather than a code branch.
type PostseasonAdjustment struct {
	Enabled                bool
	PaceCompressionPct     float64
	ScoringFloorPoints     float64
	PublicCeilingPercentile float64
}

// Config holds the frozen, sport-scoped thresholds consumed by the
// calibration engine, the classifier, and the reality-check layer.
type Config struct {
	Sport models.Sport

	// Calibration engine thresholds.
	SoftDeviation       float64
	HardDeviation       float64
	CompressionFactor   float64 // 0 < f <= 1
	EliteMinProbability float64
	EliteMaxZVariance   float64
	EliteMinDataQuality float64
	EliteMaxInjuryUncertainty float64
	MaxBiasVsActual     float64
	MaxBiasVsMarket     float64
	MaxOverRate         float64
	CalibrationWindowDays int

	// Classifier thresholds.
	EdgeMinProbability  float64 // sport.edge_min
	LeanMinProbability  float64 // sport.lean_min
	AlignedTolerance    float64 // sport.aligned_tol

	// RCL / variance gating thresholds.
	NormalVarianceZ  float64
	HighVarianceZ    float64
	ExtremeVarianceZ float64

	// League historical baselines for the RCL's total-sanity check and the
	// live pace guardrail. RegulationMinutes of 0 disables the pace check
	// (untimed sports).
	LeagueTotalMean        float64
	LeagueTotalStdDev      float64
	RegulationMinutes      float64
	PaceFeasibilityCeiling float64 // max plausible combined points per minute

	// NormalCIHalfWidth is the sport's baseline simulation CI half-width;
	// z_variance = observed half-width / this baseline.
	NormalCIHalfWidth float64

	// MaxOddsAge is the staleness bound beyond which odds fail integrity.
	MaxOddsAge time.Duration

	// BacklogCeiling bounds the per-sport simulation work queue; ticks
	// beyond it are dropped and recorded as an audit row whose
	// release_status is DROPPED_BY_BACKPRESSURE (no reason code is stored).
	BacklogCeiling int

	// Market contract (legal market_type x settlement combinations).
	SupportedContracts []MarketContract
	PrimaryMarket      models.MarketType

	// Key-number protection, only populated for NFL/NCAAF/NCAAB.
	KeyNumbers       []float64
	KeyNumberBuffer  float64

	// Signal lifecycle confirmation window.
	ConfirmationWindowSize int // N
	ConfirmationWindowOf   int // of M

	Postseason PostseasonAdjustment
}

// IsMarketSupported reports whether (marketType, settlement) is a legal
// combination for this sport.
func (c Config) IsMarketSupported(marketType models.MarketType, settlement models.MarketSettlement) bool {
	for _, mc := range c.SupportedContracts {
		if mc.MarketType == marketType && mc.MarketSettlement == settlement {
			return true
		}
	}
	return false
}

func fullGameOnly(marketTypes ...models.MarketType) []MarketContract {
	out := make([]MarketContract, 0, len(marketTypes))
	for _, mt := range marketTypes {
		out = append(out, MarketContract{MarketType: mt, MarketSettlement: models.SettlementFullGame})
	}
	return out
}

// defaults is the LOCKED set of sport-specific numeric configs. Overrides
// layer on top at startup; nothing mutates these after init.
var defaults = map[models.Sport]Config{
	models.SportNFL: {
		Sport: models.SportNFL,
		SoftDeviation: 2.0, HardDeviation: 4.5,
		CompressionFactor: 0.92,
		EliteMinProbability: 0.62, EliteMaxZVariance: 1.2, EliteMinDataQuality: 0.85, EliteMaxInjuryUncertainty: 0.15,
		MaxBiasVsActual: 0.08, MaxBiasVsMarket: 0.08, MaxOverRate: 0.60, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.05, LeanMinProbability: 0.025, AlignedTolerance: 0.5,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.2, ExtremeVarianceZ: 1.35,
		LeagueTotalMean: 44.5, LeagueTotalStdDev: 9.5, RegulationMinutes: 60, PaceFeasibilityCeiling: 1.5,
		NormalCIHalfWidth: 0.02, MaxOddsAge: 10 * time.Minute, BacklogCeiling: 64,
		SupportedContracts: fullGameOnly(models.MarketSpread, models.MarketTotal, models.MarketMoneylineTwo),
		PrimaryMarket:      models.MarketSpread,
		KeyNumbers:         []float64{3, 7, 10},
		KeyNumberBuffer:    1.0,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
	},
	models.SportNCAAF: {
		Sport: models.SportNCAAF,
		SoftDeviation: 3.0, HardDeviation: 6.0,
		CompressionFactor: 0.90,
		EliteMinProbability: 0.63, EliteMaxZVariance: 1.2, EliteMinDataQuality: 0.85, EliteMaxInjuryUncertainty: 0.15,
		MaxBiasVsActual: 0.09, MaxBiasVsMarket: 0.09, MaxOverRate: 0.60, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.05, LeanMinProbability: 0.025, AlignedTolerance: 0.75,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.25, ExtremeVarianceZ: 1.4,
		LeagueTotalMean: 55.5, LeagueTotalStdDev: 11.0, RegulationMinutes: 60, PaceFeasibilityCeiling: 1.8,
		NormalCIHalfWidth: 0.025, MaxOddsAge: 10 * time.Minute, BacklogCeiling: 128,
		SupportedContracts: fullGameOnly(models.MarketSpread, models.MarketTotal, models.MarketMoneylineTwo),
		PrimaryMarket:      models.MarketSpread,
		KeyNumbers:         []float64{3, 7, 10, 14},
		KeyNumberBuffer:    1.5,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
		Postseason: PostseasonAdjustment{
			Enabled:                true,
			PaceCompressionPct:     0.12,
			ScoringFloorPoints:     5.0,
			PublicCeilingPercentile: 0.60,
		},
	},
	models.SportNBA: {
		Sport: models.SportNBA,
		SoftDeviation: 2.5, HardDeviation: 5.0,
		CompressionFactor: 0.95,
		EliteMinProbability: 0.60, EliteMaxZVariance: 1.25, EliteMinDataQuality: 0.85, EliteMaxInjuryUncertainty: 0.2,
		MaxBiasVsActual: 0.08, MaxBiasVsMarket: 0.08, MaxOverRate: 0.58, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.05, LeanMinProbability: 0.025, AlignedTolerance: 0.5,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.3, ExtremeVarianceZ: 1.45,
		LeagueTotalMean: 224.0, LeagueTotalStdDev: 16.0, RegulationMinutes: 48, PaceFeasibilityCeiling: 6.5,
		NormalCIHalfWidth: 0.02, MaxOddsAge: 5 * time.Minute, BacklogCeiling: 64,
		SupportedContracts: fullGameOnly(models.MarketSpread, models.MarketTotal, models.MarketMoneylineTwo),
		PrimaryMarket:      models.MarketSpread,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
	},
	models.SportNCAAB: {
		Sport: models.SportNCAAB,
		SoftDeviation: 3.5, HardDeviation: 7.0,
		CompressionFactor: 0.88,
		EliteMinProbability: 0.62, EliteMaxZVariance: 1.25, EliteMinDataQuality: 0.8, EliteMaxInjuryUncertainty: 0.2,
		MaxBiasVsActual: 0.10, MaxBiasVsMarket: 0.10, MaxOverRate: 0.60, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.055, LeanMinProbability: 0.03, AlignedTolerance: 0.75,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.3, ExtremeVarianceZ: 1.45,
		LeagueTotalMean: 142.0, LeagueTotalStdDev: 13.0, RegulationMinutes: 40, PaceFeasibilityCeiling: 5.0,
		NormalCIHalfWidth: 0.025, MaxOddsAge: 5 * time.Minute, BacklogCeiling: 128,
		SupportedContracts: fullGameOnly(models.MarketSpread, models.MarketTotal, models.MarketMoneylineTwo),
		PrimaryMarket:      models.MarketSpread,
		KeyNumbers:         []float64{2, 3},
		KeyNumberBuffer:    1.0,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
	},
	models.SportMLB: {
		Sport: models.SportMLB,
		SoftDeviation: 0.035, HardDeviation: 0.08, // moneyline-primary sport, deviation in probability space
		CompressionFactor: 0.85,
		EliteMinProbability: 0.65, EliteMaxZVariance: 1.15, EliteMinDataQuality: 0.85, EliteMaxInjuryUncertainty: 0.15,
		MaxBiasVsActual: 0.06, MaxBiasVsMarket: 0.06, MaxOverRate: 0.55, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.05, LeanMinProbability: 0.025, AlignedTolerance: 0.01,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.2, ExtremeVarianceZ: 1.35,
		LeagueTotalMean: 8.6, LeagueTotalStdDev: 2.2, RegulationMinutes: 0, PaceFeasibilityCeiling: 0,
		NormalCIHalfWidth: 0.015, MaxOddsAge: 15 * time.Minute, BacklogCeiling: 64,
		SupportedContracts: fullGameOnly(models.MarketMoneylineTwo, models.MarketTotal, models.MarketSpread),
		PrimaryMarket:      models.MarketMoneylineTwo,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
	},
	models.SportNHL: {
		Sport: models.SportNHL,
		SoftDeviation: 0.04, HardDeviation: 0.09,
		CompressionFactor: 0.80,
		EliteMinProbability: 0.64, EliteMaxZVariance: 1.1, EliteMinDataQuality: 0.85, EliteMaxInjuryUncertainty: 0.15,
		MaxBiasVsActual: 0.06, MaxBiasVsMarket: 0.06, MaxOverRate: 0.55, CalibrationWindowDays: 28,
		EdgeMinProbability: 0.05, LeanMinProbability: 0.025, AlignedTolerance: 0.01,
		NormalVarianceZ: 1.0, HighVarianceZ: 1.2, ExtremeVarianceZ: 1.35,
		LeagueTotalMean: 6.2, LeagueTotalStdDev: 0.6, RegulationMinutes: 60, PaceFeasibilityCeiling: 0.25,
		NormalCIHalfWidth: 0.015, MaxOddsAge: 15 * time.Minute, BacklogCeiling: 64,
		SupportedContracts: fullGameOnly(models.MarketMoneylineTwo, models.MarketTotal, models.MarketSpread),
		PrimaryMarket:      models.MarketMoneylineTwo,
		ConfirmationWindowSize: 2, ConfirmationWindowOf: 3,
	},
}

// DefaultConfigFor returns the built-in LOCKED config for a sport, falling
// back to the NFL config for unrecognized keys.
func DefaultConfigFor(sport models.Sport) Config {
	if cfg, ok := defaults[sport]; ok {
		return cfg
	}
	return defaults[models.SportNFL]
}

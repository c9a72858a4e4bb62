// Package oddsmath centralizes the odds-conversion, vig-removal, and EV
// arithmetic used across the decision pipeline.
package oddsmath

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to decimal odds.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal < 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be >= 1.0")
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// DecimalToImpliedProbability converts decimal odds to implied probability.
func DecimalToImpliedProbability(decimal float64) (float64, error) {
	if decimal <= 0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 0")
	}
	return 1.0 / decimal, nil
}

// ProbabilityToDecimal converts probability to decimal odds.
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability: must be between 0 and 1")
	}
	return 1.0 / probability, nil
}

// AmericanToImpliedProbability converts American odds directly to implied probability.
func AmericanToImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return DecimalToImpliedProbability(decimal)
}

// ProbabilityToAmerican converts probability directly to American odds.
func ProbabilityToAmerican(probability float64) (int, error) {
	decimal, err := ProbabilityToDecimal(probability)
	if err != nil {
		return 0, err
	}
	return DecimalToAmerican(decimal)
}

// PayoutPer100 returns the payout per $100 staked for the given American
// odds: negative odds pay 10000/|odds|, positive odds pay the odds value
// itself.
func PayoutPer100(americanOdds int) float64 {
	if americanOdds < 0 {
		return 10000.0 / math.Abs(float64(americanOdds))
	}
	return float64(americanOdds)
}

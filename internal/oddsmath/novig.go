package oddsmath

import "fmt"

// TwoWayMarket represents a two-outcome market with implied probabilities.
type TwoWayMarket struct {
	Prob1 float64
	Prob2 float64
}

// RemoveVigMultiplicative removes vig from two-way markets (spreads, totals)
// by normalizing each side's implied probability by the overround.
func RemoveVigMultiplicative(prob1, prob2 float64) (fair1, fair2 float64, err error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be between 0 and 1")
	}
	totalProb := prob1 + prob2
	if totalProb <= 1.0 {
		return 0, 0, fmt.Errorf("no vig detected: probabilities sum to <= 1.0")
	}
	fair1 = prob1 / totalProb
	fair2 = prob2 / totalProb
	return fair1, fair2, nil
}

// RemoveVigAdditive removes vig from three-way markets (moneylines with a
// draw) by subtracting an equal share of the overround from each outcome.
func RemoveVigAdditive(probabilities []float64) ([]float64, error) {
	if len(probabilities) < 2 {
		return nil, fmt.Errorf("need at least 2 outcomes")
	}
	totalProb := 0.0
	for _, prob := range probabilities {
		if prob <= 0 || prob >= 1 {
			return nil, fmt.Errorf("all probabilities must be between 0 and 1")
		}
		totalProb += prob
	}
	if totalProb <= 1.0 {
		return nil, fmt.Errorf("no vig detected: probabilities sum to <= 1.0")
	}
	overround := totalProb - 1.0
	vigPerOutcome := overround / float64(len(probabilities))
	fairProbs := make([]float64, len(probabilities))
	for i, prob := range probabilities {
		fairProbs[i] = prob - vigPerOutcome
	}
	return fairProbs, nil
}

// CalculateEdge returns (fairProbability/impliedProbability) - 1.
func CalculateEdge(fairProbability, impliedProbability float64) (float64, error) {
	if fairProbability <= 0 || fairProbability >= 1 {
		return 0, fmt.Errorf("fair probability must be between 0 and 1")
	}
	if impliedProbability <= 0 || impliedProbability >= 1 {
		return 0, fmt.Errorf("implied probability must be between 0 and 1")
	}
	return (fairProbability / impliedProbability) - 1.0, nil
}

// CalculateSharpConsensus averages no-vig fair probabilities across sharp books.
func CalculateSharpConsensus(sharpOdds []TwoWayMarket) (consensus1, consensus2 float64, err error) {
	if len(sharpOdds) == 0 {
		return 0, 0, fmt.Errorf("no sharp books provided")
	}
	var sumFair1, sumFair2 float64
	for _, market := range sharpOdds {
		fair1, fair2, err := RemoveVigMultiplicative(market.Prob1, market.Prob2)
		if err != nil {
			return 0, 0, fmt.Errorf("error removing vig from sharp book: %w", err)
		}
		sumFair1 += fair1
		sumFair2 += fair2
	}
	n := float64(len(sharpOdds))
	return sumFair1 / n, sumFair2 / n, nil
}

package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Sample is one graded prediction for the per-segment training set: the
// probability the engine published and whether the pick won. Pushes and
// voids are excluded by the caller before training.
type Sample struct {
	Predicted float64
	Won       bool
}

const (
	MethodIsotonic = "isotonic"
	MethodPlatt    = "platt"

	// minTrainingSamples guards against fitting a segment on noise; below
	// it Train refuses and the previous calibration_version stays active.
	minTrainingSamples = 50
)

// Train fits a new CalibrationSegment for one (sport, market, bucket) from
// graded samples. The returned segment is staged, not active: promotion is
// an explicit pointer swap by the caller, recorded in the audit log.
func Train(sport models.Sport, marketType models.MarketType, bucket, method, version string, samples []Sample, now time.Time) (models.CalibrationSegment, error) {
	if len(samples) < minTrainingSamples {
		return models.CalibrationSegment{}, fmt.Errorf("train %s/%s/%s: %d samples below minimum %d",
			sport, marketType, bucket, len(samples), minTrainingSamples)
	}

	seg := models.CalibrationSegment{
		CalibrationVersion: version,
		Sport:              sport,
		MarketType:         marketType,
		Bucket:             bucket,
		Method:             method,
		SampleCount:        len(samples),
		TrainedAt:          now.UTC(),
	}

	switch method {
	case MethodIsotonic:
		seg.Knots = fitIsotonic(samples)
	case MethodPlatt:
		seg.PlattA, seg.PlattB = fitPlatt(samples)
	default:
		return models.CalibrationSegment{}, fmt.Errorf("train: unknown method %q", method)
	}
	return seg, nil
}

// fitIsotonic runs pool-adjacent-violators over samples sorted by predicted
// probability, producing a monotone non-decreasing step function.
func fitIsotonic(samples []Sample) []models.CalibrationKnot {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Predicted < sorted[j].Predicted })

	type block struct {
		sumY   float64
		weight float64
		minX   float64
	}
	blocks := make([]block, 0, len(sorted))
	for _, s := range sorted {
		y := 0.0
		if s.Won {
			y = 1.0
		}
		blocks = append(blocks, block{sumY: y, weight: 1, minX: s.Predicted})
		// Merge backwards while the monotonicity constraint is violated.
		for len(blocks) >= 2 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sumY/prev.weight <= last.sumY/last.weight {
				break
			}
			merged := block{
				sumY:   prev.sumY + last.sumY,
				weight: prev.weight + last.weight,
				minX:   prev.minX,
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, merged)
		}
	}

	knots := make([]models.CalibrationKnot, len(blocks))
	for i, b := range blocks {
		knots[i] = models.CalibrationKnot{X: b.minX, Y: b.sumY / b.weight}
	}
	return knots
}

// fitPlatt fits p' = sigmoid(a*logit(p) + b) by gradient descent on the
// logistic log-loss. a starts at 1 and b at 0, so an uninformative fit
// degrades to the identity map.
func fitPlatt(samples []Sample) (a, b float64) {
	a, b = 1.0, 0.0
	const (
		iterations = 200
		learnRate  = 0.05
	)
	for iter := 0; iter < iterations; iter++ {
		var gradA, gradB float64
		for _, s := range samples {
			x := logit(clampProb(s.Predicted))
			p := sigmoid(a*x + b)
			y := 0.0
			if s.Won {
				y = 1.0
			}
			gradA += (p - y) * x
			gradB += p - y
		}
		n := float64(len(samples))
		a -= learnRate * gradA / n
		b -= learnRate * gradB / n
	}
	return a, b
}

// ApplySegment maps a raw model probability through a fitted segment.
func ApplySegment(seg models.CalibrationSegment, p float64) float64 {
	switch seg.Method {
	case MethodIsotonic:
		return applyIsotonic(seg.Knots, p)
	case MethodPlatt:
		return sigmoid(seg.PlattA*logit(clampProb(p)) + seg.PlattB)
	default:
		return p
	}
}

// applyIsotonic evaluates the step function: the Y of the last knot whose X
// does not exceed p, or the first knot's Y below the fitted range.
func applyIsotonic(knots []models.CalibrationKnot, p float64) float64 {
	if len(knots) == 0 {
		return p
	}
	out := knots[0].Y
	for _, k := range knots {
		if k.X > p {
			break
		}
		out = k.Y
	}
	return out
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1.0 - p)) }

func clampProb(p float64) float64 {
	switch {
	case p < 1e-6:
		return 1e-6
	case p > 1-1e-6:
		return 1 - 1e-6
	default:
		return p
	}
}

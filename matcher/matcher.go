// Package matcher compares face descriptors and turns a distance into a
// verification decision.
package matcher

import (
	"errors"
	"fmt"
	"math"
)

var ErrDimensionMismatch = errors.New("descriptor dimensions differ")

// Distance is the Euclidean distance between a and b, computed in float64.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

type Policy struct {
	Threshold float64 // A match requires distance strictly below it
	Scale     float64 // Similarity points lost per unit of distance
}

func DefaultPolicy() Policy {
	return Policy{Threshold: 0.55, Scale: 100}
}

func (p Policy) Validate() error {
	var errs []error
	if !(p.Threshold > 0) || math.IsInf(p.Threshold, 0) {
		errs = append(errs, fmt.Errorf("threshold must be positive, got %v", p.Threshold))
	}
	if !(p.Scale > 0) || math.IsInf(p.Scale, 0) {
		errs = append(errs, fmt.Errorf("scale must be positive, got %v", p.Scale))
	}
	return errors.Join(errs...)
}

// Decision is the outcome of one comparison. SimilarityPercent is a
// display value, not a calibrated probability.
type Decision struct {
	Distance          float64
	Match             bool
	SimilarityPercent float64
}

func (p Policy) Decide(distance float64) Decision {
	similarity := 100 - distance*p.Scale
	similarity = math.Max(0, math.Min(100, similarity))
	return Decision{
		Distance:          distance,
		Match:             distance < p.Threshold,
		SimilarityPercent: similarity,
	}
}

// Compare is Distance followed by Decide.
func (p Policy) Compare(stored, fresh []float32) (Decision, error) {
	d, err := Distance(stored, fresh)
	if err != nil {
		return Decision{}, err
	}
	return p.Decide(d), nil
}

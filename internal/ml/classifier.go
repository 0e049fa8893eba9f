package ml

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// probabilityTolerance absorbs float32 round-off from remote models.
const probabilityTolerance = 1e-3

// Classifier maps a feature vector to a distribution over winner team ids.
// Implementations are deterministic for a fixed vector and read-only after
// construction.
type Classifier interface {
	PredictProbabilities(ctx context.Context, vec features.Vector) (Distribution, error)
	// KnownClasses is the set of winner ids seen in training. It may be a
	// strict subset of the registry.
	KnownClasses() []team.ID
	NumFeatures() int
}

// Distribution maps each known class to its probability.
type Distribution struct {
	probs map[team.ID]float64
}

// NewDistribution pairs the classifier's parallel class and probability arrays.
func NewDistribution(classes []team.ID, probs []float64) (Distribution, error) {
	if len(classes) == 0 {
		return Distribution{}, fmt.Errorf("%w: no classes", ErrInvalidDistribution)
	}
	if len(classes) != len(probs) {
		return Distribution{}, fmt.Errorf("%w: %d classes but %d probabilities", ErrInvalidDistribution, len(classes), len(probs))
	}

	m := make(map[team.ID]float64, len(classes))
	var sum float64
	for i, id := range classes {
		p := probs[i]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Distribution{}, fmt.Errorf("%w: probability %v for class %d", ErrInvalidDistribution, p, id)
		}
		if _, dup := m[id]; dup {
			return Distribution{}, fmt.Errorf("%w: duplicate class %d", ErrInvalidDistribution, id)
		}
		m[id] = p
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return Distribution{}, fmt.Errorf("%w: probabilities sum to %.6f", ErrInvalidDistribution, sum)
	}

	return Distribution{probs: m}, nil
}

// Probability returns the probability for a class and whether the class is known.
func (d Distribution) Probability(id team.ID) (float64, bool) {
	p, ok := d.probs[id]
	return p, ok
}

// Knows reports whether id is one of the classifier's classes.
func (d Distribution) Knows(id team.ID) bool {
	_, ok := d.probs[id]
	return ok
}

// KnownClasses returns the distribution's domain in ascending order.
func (d Distribution) KnownClasses() []team.ID {
	out := make([]team.ID, 0, len(d.probs))
	for id := range d.probs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of known classes.
func (d Distribution) Len() int {
	return len(d.probs)
}

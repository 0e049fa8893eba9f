package ml

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// BackendNative labels metrics for the in-process ensemble.
const BackendNative = "native"

// TreeNode is one node of a regression tree. Split nodes send a sample left
// when x[Feature] < Threshold; leaf nodes carry Leaf.
type TreeNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      int      `json:"left"`
	Right     int      `json:"right"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

// Tree is a regression tree that contributes to one class's margin.
type Tree struct {
	// Class indexes EnsembleModel.Classes.
	Class int        `json:"class"`
	Nodes []TreeNode `json:"nodes"`
}

// EnsembleModel is a softmax multi-class gradient-boosted tree ensemble, the
// shape produced by exporting an XGBoost multi:softprob booster.
type EnsembleModel struct {
	Version     string    `json:"version"`
	NumFeatures int       `json:"num_features"`
	Classes     []team.ID `json:"classes"`
	BaseScore   float64   `json:"base_score"`
	Trees       []Tree    `json:"trees"`
}

// Validate checks the ensemble's structure so evaluation cannot index out of
// range or loop.
func (m *EnsembleModel) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("%w: num_features must be positive", ErrInvalidModel)
	}
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}

	seen := make(map[team.ID]bool, len(m.Classes))
	for _, id := range m.Classes {
		if seen[id] {
			return fmt.Errorf("%w: duplicate class %d", ErrInvalidModel, id)
		}
		seen[id] = true
	}

	for ti, tree := range m.Trees {
		if tree.Class < 0 || tree.Class >= len(m.Classes) {
			return fmt.Errorf("%w: tree %d targets class index %d", ErrInvalidModel, ti, tree.Class)
		}
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d has no nodes", ErrInvalidModel, ti)
		}
		for ni, node := range tree.Nodes {
			if node.Leaf != nil {
				if math.IsNaN(*node.Leaf) || math.IsInf(*node.Leaf, 0) {
					return fmt.Errorf("%w: tree %d node %d has non-finite leaf", ErrInvalidModel, ti, ni)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= m.NumFeatures {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d", ErrInvalidModel, ti, ni, node.Feature)
			}
			// Children must come after their parent, which rules out cycles.
			for _, child := range []int{node.Left, node.Right} {
				if child <= ni || child >= len(tree.Nodes) {
					return fmt.Errorf("%w: tree %d node %d has child %d", ErrInvalidModel, ti, ni, child)
				}
			}
		}
	}
	return nil
}

// leafValue walks a validated tree for one sample.
func (t *Tree) leafValue(x features.Vector) float64 {
	i := 0
	for {
		node := &t.Nodes[i]
		if node.Leaf != nil {
			return *node.Leaf
		}
		if x[node.Feature] < node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// EnsembleClassifier evaluates an EnsembleModel in process.
type EnsembleClassifier struct {
	model *EnsembleModel
}

// NewEnsembleClassifier validates the model and wraps it as a Classifier.
func NewEnsembleClassifier(model *EnsembleModel) (*EnsembleClassifier, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &EnsembleClassifier{model: model}, nil
}

// PredictProbabilities sums each class's tree outputs onto the base score and
// applies softmax.
func (c *EnsembleClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (Distribution, error) {
	start := time.Now()
	defer func() {
		MLPredictionLatency.WithLabelValues(BackendNative).Observe(time.Since(start).Seconds())
	}()

	if err := features.CheckArity(vec, c.model.NumFeatures); err != nil {
		return Distribution{}, err
	}

	margins := make([]float64, len(c.model.Classes))
	for i := range margins {
		margins[i] = c.model.BaseScore
	}
	for i := range c.model.Trees {
		tree := &c.model.Trees[i]
		margins[tree.Class] += tree.leafValue(vec)
	}

	MLPredictionsTotal.WithLabelValues(BackendNative, "false").Inc()
	return NewDistribution(c.model.Classes, softmax(margins))
}

// KnownClasses returns the model's winner classes.
func (c *EnsembleClassifier) KnownClasses() []team.ID {
	out := make([]team.ID, len(c.model.Classes))
	copy(out, c.model.Classes)
	return out
}

// NumFeatures returns the trained arity.
func (c *EnsembleClassifier) NumFeatures() int {
	return c.model.NumFeatures
}

// Version returns the model version recorded in the artifact.
func (c *EnsembleClassifier) Version() string {
	return c.model.Version
}

func softmax(margins []float64) []float64 {
	maxMargin := math.Inf(-1)
	for _, m := range margins {
		if m > maxMargin {
			maxMargin = m
		}
	}

	out := make([]float64, len(margins))
	var sum float64
	for i, m := range margins {
		out[i] = math.Exp(m - maxMargin)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

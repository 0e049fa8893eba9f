// Package service wires the registry, feature builder, classifier and
// resolution policy into the operations every surface calls.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/logger"
	"github.com/yourusername/mlb-predictor/internal/metrics"
	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/models"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/repository"
	"github.com/yourusername/mlb-predictor/internal/resolution"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// Status labels recorded for predictions that never reach resolution.
const (
	StatusUnknownTeam = "UNKNOWN_TEAM"
	StatusError       = "ERROR"
)

// Request is a single matchup to predict.
type Request struct {
	Home  string
	Away  string
	Stats *features.AuxStats
	// Surface is the models.Surface* value recorded in metrics and history.
	Surface string
	// Record writes the prediction to history when a store is configured.
	Record bool
}

// Prediction is the resolved outcome of a Request.
type Prediction struct {
	Home         string
	Away         string
	HomeID       team.ID
	AwayID       team.ID
	Vector       features.Vector
	Distribution ml.Distribution
	Resolution   resolution.Resolution
	View         presentation.View
	ModelVersion string
	PredictedAt  time.Time
}

// Probability returns the classifier's probability for a matchup slot, or 0
// when the class is unknown.
func (p *Prediction) Probability(id team.ID) float64 {
	prob, _ := p.Distribution.Probability(id)
	return prob
}

// Predictor runs the prediction pipeline over an immutable registry and
// classifier.
type Predictor struct {
	registry     *team.Registry
	classifier   ml.Classifier
	modelVersion string
	store        repository.PredictionRepository
	logger       *logger.PredictionLogger
	now          func() time.Time
}

// NewPredictor creates a predictor. store may be nil.
func NewPredictor(reg *team.Registry, classifier ml.Classifier, modelVersion string, store repository.PredictionRepository, log *logrus.Logger) (*Predictor, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, team.ErrEmptyRegistry
	}
	if classifier == nil {
		return nil, ErrNoClassifier
	}
	if n := classifier.NumFeatures(); n != features.MinimalArity && n != features.ExtendedArity {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedArity, n)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Predictor{
		registry:     reg,
		classifier:   classifier,
		modelVersion: modelVersion,
		store:        store,
		logger:       logger.NewPredictionLogger(log),
		now:          time.Now,
	}, nil
}

// Registry returns the team registry the predictor was built with.
func (p *Predictor) Registry() *team.Registry {
	return p.registry
}

// Arity is the feature count the classifier expects.
func (p *Predictor) Arity() int {
	return p.classifier.NumFeatures()
}

// ModelVersion identifies the loaded model.
func (p *Predictor) ModelVersion() string {
	return p.modelVersion
}

// WantsStats reports whether the classifier uses the extended schema.
func (p *Predictor) WantsStats() bool {
	return p.Arity() == features.ExtendedArity
}

// DefaultStats returns the stats a caller should use when none were given:
// league-typical values for the extended schema, nil for the minimal one.
func (p *Predictor) DefaultStats() *features.AuxStats {
	if p.WantsStats() {
		return features.TypicalStats()
	}
	return nil
}

// Predict resolves one matchup. Unknown abbreviations fail with
// team.ErrUnknownTeam and a vector the classifier cannot take fails with
// features.ErrArityMismatch, both before the classifier is called. Partial
// class coverage is reported through the resolution status.
func (p *Predictor) Predict(ctx context.Context, req Request) (*Prediction, error) {
	start := time.Now()
	home := team.Normalize(req.Home)
	away := team.Normalize(req.Away)

	vec, err := features.Build(home, away, p.registry, req.Stats)
	if err != nil {
		p.fail(home, away, req.Surface, start, err)
		return nil, err
	}
	if err := features.CheckArity(vec, p.Arity()); err != nil {
		p.fail(home, away, req.Surface, start, err)
		return nil, err
	}

	dist, err := p.classifier.PredictProbabilities(ctx, vec)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrClassifierFailed, err)
		p.fail(home, away, req.Surface, start, err)
		return nil, err
	}

	homeID, _ := p.registry.ID(home)
	awayID, _ := p.registry.ID(away)
	res := resolution.Resolve(homeID, awayID, dist)

	pred := &Prediction{
		Home:         home,
		Away:         away,
		HomeID:       homeID,
		AwayID:       awayID,
		Vector:       vec,
		Distribution: dist,
		Resolution:   res,
		View:         presentation.Render(res, p.registry),
		ModelVersion: p.modelVersion,
		PredictedAt:  p.now().UTC(),
	}

	elapsed := time.Since(start)
	metrics.RecordPrediction(res.Status.String(), req.Surface, elapsed.Seconds())
	p.logger.LogPrediction(home, away, res.Status.String(), pred.View.Winner, res.Margin, vec.Arity(), elapsed)

	if req.Record && p.store != nil {
		if err := p.store.Create(ctx, p.Record(pred, req.Surface)); err != nil {
			p.logger.WithError(err).Warn("Failed to record prediction")
		}
	}

	return pred, nil
}

// Record converts a prediction into a history record.
func (p *Predictor) Record(pred *Prediction, surface string) *models.Prediction {
	rec := &models.Prediction{
		ID:           uuid.New(),
		Home:         pred.Home,
		Away:         pred.Away,
		Margin:       pred.Resolution.Margin,
		Status:       pred.Resolution.Status.String(),
		Surface:      surface,
		ModelVersion: pred.ModelVersion,
		PredictedAt:  pred.PredictedAt,
	}
	if pred.View.Winner != "" {
		winner := pred.View.Winner
		rec.Winner = &winner
	}
	if raw, err := json.Marshal([]float64(pred.Vector)); err == nil {
		rec.Features = raw
	}
	return rec
}

func (p *Predictor) fail(home, away, surface string, start time.Time, err error) {
	status := StatusError
	if errors.Is(err, team.ErrUnknownTeam) {
		status = StatusUnknownTeam
		p.logger.LogUnknownTeam(home, away, err)
	} else {
		p.logger.LogClassifierError(home, away, err)
	}
	metrics.RecordPrediction(status, surface, time.Since(start).Seconds())
}

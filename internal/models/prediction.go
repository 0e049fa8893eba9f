package models

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Surfaces a prediction can be made from.
const (
	SurfaceAPI   = "api"
	SurfaceCLI   = "cli"
	SurfaceSlate = "slate"
)

var validate = validator.New()

// Prediction is one persisted matchup prediction
type Prediction struct {
	ID           uuid.UUID       `db:"id" json:"id" validate:"required"`
	SlateID      *uuid.UUID      `db:"slate_id" json:"slate_id,omitempty"`
	GamePk       *int            `db:"game_pk" json:"game_pk,omitempty"`
	GameDate     *time.Time      `db:"game_date" json:"game_date,omitempty"`
	Home         string          `db:"home" json:"home" validate:"required"`
	Away         string          `db:"away" json:"away" validate:"required"`
	Winner       *string         `db:"winner" json:"winner,omitempty"`
	Margin       *float64        `db:"margin" json:"margin,omitempty" validate:"omitempty,gte=0,lte=1"`
	Status       string          `db:"status" json:"status" validate:"required,oneof=BOTH_KNOWN ONLY_ONE_KNOWN NEITHER_KNOWN"`
	Surface      string          `db:"surface" json:"surface" validate:"required,oneof=api cli slate"`
	ModelVersion string          `db:"model_version" json:"model_version" validate:"required"`
	Features     json.RawMessage `db:"features" json:"features,omitempty"`
	PredictedAt  time.Time       `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// Validate checks the record before it is written
func (p *Prediction) Validate() error {
	return validate.Struct(p)
}

// FeatureValues decodes the stored feature vector
func (p *Prediction) FeatureValues() ([]float64, error) {
	if p.Features == nil {
		return nil, nil
	}

	var values []float64
	if err := json.Unmarshal(p.Features, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// HasWinner reports whether a winner was resolved
func (p *Prediction) HasWinner() bool {
	return p.Winner != nil
}

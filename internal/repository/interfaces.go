package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/mlb-predictor/internal/models"
)

// PredictionRepository defines the interface for prediction history access
type PredictionRepository interface {
	Create(ctx context.Context, p *models.Prediction) error
	CreateBatch(ctx context.Context, ps []*models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error)
	GetBySlate(ctx context.Context, slateID uuid.UUID) ([]*models.Prediction, error)
	GetByGameDate(ctx context.Context, date time.Time) ([]*models.Prediction, error)
}

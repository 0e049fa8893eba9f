package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/mlb-predictor/internal/database"
	"github.com/yourusername/mlb-predictor/internal/models"
)

const uniqueViolation = "23505"

const predictionColumns = `id, slate_id, game_pk, game_date, home, away, winner, margin, status, surface, model_version, features, predicted_at`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

const insertPrediction = `
	INSERT INTO predictions (` + predictionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

func insertArgs(p *models.Prediction) []interface{} {
	return []interface{}{
		p.ID, p.SlateID, p.GamePk, p.GameDate, p.Home, p.Away, p.Winner, p.Margin,
		p.Status, p.Surface, p.ModelVersion, p.Features, p.PredictedAt,
	}
}

// Create inserts a new prediction
func (r *PostgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid prediction: %w", err)
	}

	if _, err := r.db.Exec(ctx, insertPrediction, insertArgs(p)...); err != nil {
		return mapWriteError("failed to create prediction", err)
	}
	return nil
}

// CreateBatch inserts predictions in one transaction
func (r *PostgresPredictionRepository) CreateBatch(ctx context.Context, ps []*models.Prediction) error {
	if len(ps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid prediction %s: %w", p.ID, err)
		}
		batch.Queue(insertPrediction, insertArgs(p)...)
	}

	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		results := r.db.SendBatch(txCtx, batch)
		for range ps {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return mapWriteError("failed to insert prediction batch", err)
			}
		}
		return results.Close()
	})
}

// GetByID retrieves a prediction by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	p, err := scanPrediction(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetRecent retrieves the newest predictions first
func (r *PostgresPredictionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions ORDER BY predicted_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

// GetBySlate retrieves every prediction written by one slate refresh
func (r *PostgresPredictionRepository) GetBySlate(ctx context.Context, slateID uuid.UUID) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE slate_id = $1 ORDER BY game_pk ASC`
	return r.list(ctx, query, slateID)
}

// GetByGameDate retrieves predictions for games on a calendar date
func (r *PostgresPredictionRepository) GetByGameDate(ctx context.Context, date time.Time) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE game_date = $1 ORDER BY predicted_at DESC`
	return r.list(ctx, query, date.Format("2006-01-02"))
}

func (r *PostgresPredictionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}

func scanPrediction(row pgx.Row) (*models.Prediction, error) {
	p := &models.Prediction{}
	err := row.Scan(
		&p.ID, &p.SlateID, &p.GamePk, &p.GameDate, &p.Home, &p.Away, &p.Winner, &p.Margin,
		&p.Status, &p.Surface, &p.ModelVersion, &p.Features, &p.PredictedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func mapWriteError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", msg, models.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

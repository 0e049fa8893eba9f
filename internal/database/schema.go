package database

import (
	"context"
	"fmt"

	"github.com/yourusername/mlb-predictor/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id            UUID PRIMARY KEY,
	slate_id      UUID,
	game_pk       INTEGER,
	game_date     DATE,
	home          TEXT NOT NULL,
	away          TEXT NOT NULL,
	winner        TEXT,
	margin        DOUBLE PRECISION,
	status        TEXT NOT NULL,
	surface       TEXT NOT NULL,
	model_version TEXT NOT NULL,
	features      JSONB,
	predicted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS predictions_predicted_at_idx ON predictions (predicted_at DESC);
CREATE INDEX IF NOT EXISTS predictions_game_date_idx ON predictions (game_date);
`

// Initialize connects using cfg and makes sure the prediction history table exists
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the prediction history table and indexes if missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

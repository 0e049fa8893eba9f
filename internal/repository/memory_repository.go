package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/mlb-predictor/internal/models"
)

// MemoryPredictionRepository keeps the newest predictions in a ring buffer
type MemoryPredictionRepository struct {
	mu       sync.RWMutex
	capacity int
	records  []*models.Prediction
	byID     map[uuid.UUID]*models.Prediction
}

// NewMemoryPredictionRepository creates an in-process repository holding at
// most capacity records
func NewMemoryPredictionRepository(capacity int) *MemoryPredictionRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryPredictionRepository{
		capacity: capacity,
		byID:     make(map[uuid.UUID]*models.Prediction),
	}
}

// Create stores a prediction, evicting the oldest when full
func (r *MemoryPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid prediction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(p)
}

// CreateBatch stores every prediction or none of them
func (r *MemoryPredictionRepository) CreateBatch(ctx context.Context, ps []*models.Prediction) error {
	seen := make(map[uuid.UUID]bool, len(ps))
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid prediction %s: %w", p.ID, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("failed to insert prediction batch: %w", models.ErrDuplicateKey)
		}
		seen[p.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		if _, ok := r.byID[p.ID]; ok {
			return fmt.Errorf("failed to insert prediction batch: %w", models.ErrDuplicateKey)
		}
	}
	for _, p := range ps {
		_ = r.insert(p)
	}
	return nil
}

func (r *MemoryPredictionRepository) insert(p *models.Prediction) error {
	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("failed to create prediction: %w", models.ErrDuplicateKey)
	}
	if len(r.records) >= r.capacity {
		oldest := r.records[0]
		delete(r.byID, oldest.ID)
		r.records = r.records[1:]
	}
	cp := *p
	r.records = append(r.records, &cp)
	r.byID[p.ID] = &cp
	return nil
}

// GetByID retrieves a prediction by ID
func (r *MemoryPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetRecent retrieves the newest predictions first
func (r *MemoryPredictionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	return r.filter(limit, func(*models.Prediction) bool { return true }), nil
}

// GetBySlate retrieves every prediction written by one slate refresh
func (r *MemoryPredictionRepository) GetBySlate(ctx context.Context, slateID uuid.UUID) ([]*models.Prediction, error) {
	out := r.filter(0, func(p *models.Prediction) bool {
		return p.SlateID != nil && *p.SlateID == slateID
	})
	sort.SliceStable(out, func(i, j int) bool {
		return intOrZero(out[i].GamePk) < intOrZero(out[j].GamePk)
	})
	return out, nil
}

// GetByGameDate retrieves predictions for games on a calendar date
func (r *MemoryPredictionRepository) GetByGameDate(ctx context.Context, date time.Time) ([]*models.Prediction, error) {
	day := date.Format("2006-01-02")
	return r.filter(0, func(p *models.Prediction) bool {
		return p.GameDate != nil && p.GameDate.Format("2006-01-02") == day
	}), nil
}

// filter walks newest first; limit <= 0 means no limit
func (r *MemoryPredictionRepository) filter(limit int, keep func(*models.Prediction) bool) []*models.Prediction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Prediction
	for i := len(r.records) - 1; i >= 0; i-- {
		if !keep(r.records[i]) {
			continue
		}
		cp := *r.records[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/team"
)

type fakeClassifier struct {
	mu          sync.Mutex
	classes     []team.ID
	probs       []float64
	numFeatures int
	err         error
	calls       int
	lastVector  features.Vector
}

func (f *fakeClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (ml.Distribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastVector = vec
	if f.err != nil {
		return ml.Distribution{}, f.err
	}
	return ml.NewDistribution(f.classes, f.probs)
}

func (f *fakeClassifier) KnownClasses() []team.ID {
	return f.classes
}

func (f *fakeClassifier) NumFeatures() int {
	return f.numFeatures
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSchedule struct {
	games []datasource.ScheduledGame
	err   error
	dates []time.Time
}

func (f *fakeSchedule) Schedule(ctx context.Context, date time.Time) ([]datasource.ScheduledGame, error) {
	f.dates = append(f.dates, date)
	return f.games, f.err
}

type fakeStats struct {
	failing map[int]bool
}

func (f *fakeStats) RecentGameStats(ctx context.Context, mlbID int) (datasource.RecentStats, error) {
	if f.failing[mlbID] {
		return datasource.RecentStats{}, datasource.NewDataSourceError("mlb-stats-api", datasource.ErrCodeServerError, "boom", errors.New("500"))
	}
	return datasource.RecentStats{Games: 10, TotalBases: 13.4, WalksIssued: 2.9, StrikeoutsThrown: 9.2}, nil
}

func (f *fakeStats) TeamWinPct(ctx context.Context, mlbID int) (float64, error) {
	return 0.6, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRegistry(t *testing.T, abbrs ...string) *team.Registry {
	t.Helper()
	reg, err := team.Register(abbrs)
	require.NoError(t, err)
	return reg
}

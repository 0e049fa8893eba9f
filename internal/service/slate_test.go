package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/repository"
	"github.com/yourusername/mlb-predictor/internal/team"
)

var slateDay = time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)

func slateGames() []datasource.ScheduledGame {
	return []datasource.ScheduledGame{
		{GamePk: 1, HomeID: 147, HomeName: "New York Yankees", AwayID: 111, AwayName: "Boston Red Sox"},
		{GamePk: 2, HomeID: 145, HomeName: "Chicago White Sox", AwayID: 147, AwayName: "New York Yankees"},
		{GamePk: 3, HomeID: 136, HomeName: "Seattle Mariners", AwayID: 111, AwayName: "Boston Red Sox"},
		{GamePk: 4, HomeID: 999, HomeName: "Exhibition Club", AwayID: 111, AwayName: "Boston Red Sox"},
	}
}

func newSlateService(t *testing.T, schedule ScheduleProvider, store repository.PredictionRepository) (*SlateService, *fakeClassifier) {
	t.Helper()
	return newSlateServiceFor(t, schedule, store, "NYY", "BOS", "CWS")
}

// newSlateServiceFor registers abbrs in order; only the first three are
// classifier classes.
func newSlateServiceFor(t *testing.T, schedule ScheduleProvider, store repository.PredictionRepository, abbrs ...string) (*SlateService, *fakeClassifier) {
	t.Helper()
	reg := testRegistry(t, abbrs...)
	clf := &fakeClassifier{
		classes:     []team.ID{0, 1, 2},
		probs:       []float64{0.5, 0.3, 0.2},
		numFeatures: features.ExtendedArity,
	}
	p, err := NewPredictor(reg, clf, "v1", nil, quietLogger())
	require.NoError(t, err)

	dir := datasource.NewDirectory()
	stats := NewTeamStats(&fakeStats{failing: map[int]bool{111: true}}, dir)
	svc := NewSlateService(p, schedule, stats, dir, store, SlateConfig{Concurrency: 2}, quietLogger())
	svc.SetClock(func() time.Time { return slateDay })
	return svc, clf
}

func TestSlateBuild(t *testing.T) {
	schedule := &fakeSchedule{games: slateGames()}
	svc, clf := newSlateService(t, schedule, nil)

	slate, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, slate.Rows, 4)
	assert.Equal(t, "2025-06-01", slate.Date)
	assert.Equal(t, "v1", slate.ModelVersion)
	assert.Equal(t, 1, slate.Fallbacks)
	assert.Equal(t, 2, clf.callCount())

	nyyBos := slate.Rows[0]
	assert.Equal(t, "NYY", nyyBos.Home)
	assert.Equal(t, "BOS", nyyBos.Away)
	assert.Equal(t, "NYY", nyyBos.Winner)
	assert.Equal(t, 0.2, nyyBos.Confidence)
	assert.Equal(t, 50.0, nyyBos.HomeWinPct)
	assert.Equal(t, 30.0, nyyBos.AwayWinPct)
	assert.Equal(t, "BOTH_KNOWN", nyyBos.Status)
	assert.True(t, nyyBos.StatsFallback, "BOS stats fail so both sides are neutral")

	chwNyy := slate.Rows[1]
	assert.Equal(t, "CWS", chwNyy.Home, "registry spelling wins over the canonical one")
	assert.Equal(t, "NYY", chwNyy.Winner)
	assert.Equal(t, 0.3, chwNyy.Confidence)
	assert.False(t, chwNyy.StatsFallback)
	assert.NotEmpty(t, chwNyy.HomeLogo)

	for _, row := range slate.Rows[2:] {
		assert.Equal(t, StatusUnknownTeam, row.Status)
		assert.Equal(t, presentation.Unavailable, row.Winner)
		assert.Equal(t, presentation.UnknownTeamMessage, row.Message)
		assert.Zero(t, row.Confidence)
	}
	assert.Equal(t, "Exhibition Club", slate.Rows[3].Home)
}

func TestSlatePartialClassCoverage(t *testing.T) {
	schedule := &fakeSchedule{games: []datasource.ScheduledGame{
		{GamePk: 10, HomeID: 136, HomeName: "Seattle Mariners", AwayID: 147, AwayName: "New York Yankees"},
		{GamePk: 11, HomeID: 147, HomeName: "New York Yankees", AwayID: 117, AwayName: "Houston Astros"},
		{GamePk: 12, HomeID: 117, HomeName: "Houston Astros", AwayID: 136, AwayName: "Seattle Mariners"},
	}}
	svc, clf := newSlateServiceFor(t, schedule, nil, "NYY", "BOS", "CWS", "SEA", "HOU")

	slate, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, slate.Rows, 3)
	assert.Equal(t, 3, clf.callCount(), "registered teams reach the classifier even without a class")

	tests := []struct {
		name       string
		row        MatchupRow
		home, away string
		status     string
		winner     string
		homeWinPct float64
		awayWinPct float64
	}{
		{"away known", slate.Rows[0], "SEA", "NYY", "ONLY_ONE_KNOWN", "NYY", 0, 50},
		{"home known", slate.Rows[1], "NYY", "HOU", "ONLY_ONE_KNOWN", "NYY", 50, 0},
		{"neither known", slate.Rows[2], "HOU", "SEA", "NEITHER_KNOWN", presentation.Unavailable, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.home, tt.row.Home)
			assert.Equal(t, tt.away, tt.row.Away)
			assert.Equal(t, tt.status, tt.row.Status)
			assert.Equal(t, tt.winner, tt.row.Winner)
			assert.Zero(t, tt.row.Confidence)
			assert.Equal(t, tt.homeWinPct, tt.row.HomeWinPct)
			assert.Equal(t, tt.awayWinPct, tt.row.AwayWinPct)
		})
	}

	assert.Contains(t, slate.Rows[0].Message, "Default winner: NYY")
	assert.Equal(t, "Neither team is in training data.", slate.Rows[2].Message)
	assert.Len(t, slate.predictions, 3, "partial coverage rows are still recorded")
}

func TestSlateUsesNeutralStatsOnFallback(t *testing.T) {
	schedule := &fakeSchedule{games: slateGames()[:1]}
	svc, clf := newSlateService(t, schedule, nil)

	_, err := svc.Today(context.Background())
	require.NoError(t, err)

	want := features.NeutralStats()
	assert.Equal(t, features.Vector{0, 1,
		want.Home.WinPct, want.Away.WinPct,
		want.Home.WalksIssued, want.Away.WalksIssued,
		want.Home.StrikeoutsThrown, want.Away.StrikeoutsThrown,
		want.Home.TotalBases, want.Away.TotalBases,
	}, clf.lastVector)
}

func TestSlateClassifierErrorBecomesRowStatus(t *testing.T) {
	schedule := &fakeSchedule{games: slateGames()[:1]}
	svc, clf := newSlateService(t, schedule, nil)
	clf.err = errors.New("model offline")

	slate, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusError, slate.Rows[0].Status)
	assert.Equal(t, presentation.Unavailable, slate.Rows[0].Winner)
	assert.Contains(t, slate.Rows[0].Message, "model offline")
}

func TestSlateScheduleError(t *testing.T) {
	svc, _ := newSlateService(t, &fakeSchedule{err: errors.New("stats api down")}, nil)

	_, err := svc.Refresh(context.Background())
	assert.Error(t, err)
	assert.Nil(t, svc.Latest())
}

func TestSlateRefresh(t *testing.T) {
	store := repository.NewMemoryPredictionRepository(50)
	schedule := &fakeSchedule{games: slateGames()}
	svc, _ := newSlateService(t, schedule, store)

	var published []*Slate
	svc.OnRefresh(func(s *Slate) { published = append(published, s) })

	slate, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, slate, svc.Latest())
	require.Len(t, published, 1)
	assert.Same(t, slate, published[0])

	records, err := store.GetBySlate(context.Background(), slate.ID)
	require.NoError(t, err)
	require.Len(t, records, 2, "only resolved games are recorded")
	assert.Equal(t, 1, *records[0].GamePk)
	assert.Equal(t, "2025-06-01", records[0].GameDate.Format("2006-01-02"))

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, slate, current)
	assert.Len(t, schedule.dates, 1)
}

func TestSlateCurrentRefreshesOnNewDay(t *testing.T) {
	schedule := &fakeSchedule{games: slateGames()[:1]}
	svc, _ := newSlateService(t, schedule, nil)

	first, err := svc.Current(context.Background())
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return slateDay.AddDate(0, 0, 1) })
	second, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "2025-06-02", second.Date)
}

func TestTeamStatsMatchup(t *testing.T) {
	stats := NewTeamStats(&fakeStats{}, datasource.NewDirectory())

	bundle, err := stats.Matchup(context.Background(), "NYY", "CWS")
	require.NoError(t, err)
	assert.Equal(t, features.SideStats{WinPct: 0.6, WalksIssued: 2.9, StrikeoutsThrown: 9.2, TotalBases: 13.4}, bundle.Home)
	assert.Equal(t, bundle.Home, bundle.Away)

	_, err = stats.Matchup(context.Background(), "NYY", "XXX")
	assert.ErrorIs(t, err, datasource.ErrTeamNotInDirectory)
}

func TestSlateMetrics(t *testing.T) {
	m := NewSlateMetrics()
	m.RecordGame()
	m.RecordGame()
	m.RecordPredicted()
	m.RecordStatsFallback()
	m.Finish()

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.TotalGames)
	assert.Equal(t, 1, snap.Predicted)
	assert.Contains(t, m.String(), "Predicted=1 (50.0%)")
}

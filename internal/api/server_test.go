package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/news"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/repository"
	"github.com/yourusername/mlb-predictor/internal/service"
	"github.com/yourusername/mlb-predictor/internal/team"
)

type stubClassifier struct {
	classes     []team.ID
	probs       []float64
	numFeatures int
	err         error
}

func (s *stubClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (ml.Distribution, error) {
	if s.err != nil {
		return ml.Distribution{}, s.err
	}
	return ml.NewDistribution(s.classes, s.probs)
}

func (s *stubClassifier) KnownClasses() []team.ID { return s.classes }
func (s *stubClassifier) NumFeatures() int        { return s.numFeatures }

type stubStats struct {
	err       error
	scheduled []datasource.ScheduledGame
	days      int
}

func (s *stubStats) RecentGameStats(ctx context.Context, mlbID int) (datasource.RecentStats, error) {
	if s.err != nil {
		return datasource.RecentStats{}, s.err
	}
	return datasource.RecentStats{Games: 10, TotalBases: 13.1, WalksIssued: 3.2, StrikeoutsThrown: 8.7}, nil
}

func (s *stubStats) TeamWinPct(ctx context.Context, mlbID int) (float64, error) {
	return 0.58, nil
}

func (s *stubStats) UpcomingGames(ctx context.Context, mlbID int, from time.Time, days int) ([]datasource.ScheduledGame, error) {
	s.days = days
	return s.scheduled, nil
}

type stubNews struct {
	redditErr error
}

func (s *stubNews) TeamNews(ctx context.Context, abbr string) ([]news.Item, error) {
	return []news.Item{{Title: abbr + " win again", Link: "https://example.org/1"}}, nil
}

func (s *stubNews) TopRedditPost(ctx context.Context, abbr string) (*news.Item, error) {
	if s.redditErr != nil {
		return nil, s.redditErr
	}
	return &news.Item{Title: "Game Thread: " + abbr}, nil
}

type fixture struct {
	server     *Server
	classifier *stubClassifier
	stats      *stubStats
	history    *repository.MemoryPredictionRepository
}

// newFixture registers NYY and BOS, with only NYY known to the classifier
// unless probabilities are overridden.
func newFixture(t *testing.T, mutate func(*Dependencies)) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	reg, err := team.Register([]string{"NYY", "BOS", "SEA"})
	require.NoError(t, err)

	classifier := &stubClassifier{classes: []team.ID{0, 1}, probs: []float64{0.7, 0.3}, numFeatures: 2}
	history := repository.NewMemoryPredictionRepository(10)
	predictor, err := service.NewPredictor(reg, classifier, "v-test", history, log)
	require.NoError(t, err)

	stats := &stubStats{}
	deps := Dependencies{
		Predictor: predictor,
		Stats:     stats,
		News:      &stubNews{},
		Directory: datasource.NewDirectory(),
		History:   history,
		Logger:    log,
	}
	if mutate != nil {
		mutate(&deps)
	}

	return &fixture{
		server:     NewServer(Config{Addr: ":0"}, deps),
		classifier: classifier,
		stats:      stats,
		history:    history,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}

func TestHandleTeams(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/v1/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[TeamsResponse](t, rec)
	assert.Equal(t, "v-test", resp.ModelVersion)
	assert.Equal(t, 2, resp.NumFeatures)
	require.Len(t, resp.Teams, 3)
	assert.Equal(t, "BOS", resp.Teams[0].Abbr)
	assert.Equal(t, team.ID(1), resp.Teams[0].ID)
	assert.Equal(t, 111, resp.Teams[0].MLBID)
	assert.Contains(t, resp.Teams[0].LogoURL, "bos")
}

func TestHandlePredict(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		classErr   error
		wantCode   int
		wantStatus string
		wantWinner string
		wantLabel  string
	}{
		{name: "both known", body: `{"home":"nyy","away":"BOS"}`, wantCode: http.StatusOK, wantStatus: "BOTH_KNOWN", wantWinner: "NYY"},
		{name: "one known", body: `{"home":"SEA","away":"BOS"}`, wantCode: http.StatusOK, wantStatus: "ONLY_ONE_KNOWN", wantWinner: "BOS"},
		{name: "unknown team", body: `{"home":"XXX","away":"BOS"}`, wantCode: http.StatusBadRequest, wantLabel: "unknown_team"},
		{name: "missing away", body: `{"home":"NYY"}`, wantCode: http.StatusBadRequest, wantLabel: "bad_request"},
		{name: "malformed", body: `{"home":`, wantCode: http.StatusBadRequest, wantLabel: "bad_request"},
		{name: "unknown field", body: `{"home":"NYY","away":"BOS","venue":"x"}`, wantCode: http.StatusBadRequest, wantLabel: "bad_request"},
		{
			name:      "stats for a team-only model",
			body:      `{"home":"NYY","away":"BOS","stats":{"home":{"win_pct":0.5},"away":{"win_pct":0.5}}}`,
			wantCode:  http.StatusBadRequest,
			wantLabel: "arity_mismatch",
		},
		{name: "model server down", body: `{"home":"NYY","away":"BOS"}`, classErr: ml.ErrMLServiceUnavailable, wantCode: http.StatusServiceUnavailable, wantLabel: "unavailable"},
		{name: "classifier failure", body: `{"home":"NYY","away":"BOS"}`, classErr: errors.New("boom"), wantCode: http.StatusBadGateway, wantLabel: "upstream_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.classifier.err = tt.classErr

			rec := f.do(t, http.MethodPost, "/v1/predict", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusOK {
				resp := decode[ErrorResponse](t, rec)
				assert.Equal(t, tt.wantLabel, resp.Code)
				return
			}
			resp := decode[PredictResponse](t, rec)
			assert.Equal(t, tt.wantStatus, resp.View.Status)
			assert.Equal(t, tt.wantWinner, resp.View.Winner)
			assert.False(t, resp.StatsDefaulted)
		})
	}
}

func TestHandlePredictUnknownTeamView(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/predict", `{"home":"NYY","away":"ZZZ"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	require.NotNil(t, resp.View)
	assert.Equal(t, presentation.UnknownTeamMessage, resp.View.Message)
	assert.Equal(t, presentation.LevelError, resp.View.Level)
}

func TestHandlePredictProbabilities(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/predict", `{"home":"SEA","away":"NYY"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PredictResponse](t, rec)
	assert.Nil(t, resp.HomeProbability, "SEA is not a known class")
	require.NotNil(t, resp.AwayProbability)
	assert.InDelta(t, 0.7, *resp.AwayProbability, 1e-9)
}

func TestHandlePredictDefaultsStats(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, err := team.Register([]string{"NYY", "BOS"})
	require.NoError(t, err)
	extended := &stubClassifier{classes: []team.ID{0, 1}, probs: []float64{0.4, 0.6}, numFeatures: 10}
	predictor, err := service.NewPredictor(reg, extended, "v-ext", nil, log)
	require.NoError(t, err)

	f := newFixture(t, func(d *Dependencies) { d.Predictor = predictor })

	rec := f.do(t, http.MethodPost, "/v1/predict", `{"home":"NYY","away":"BOS"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[PredictResponse](t, rec)
	assert.True(t, resp.StatsDefaulted)
	assert.Equal(t, "BOS", resp.View.Winner)
}

func TestHandlePredictRecordsHistory(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodPost, "/v1/predict", `{"home":"NYY","away":"BOS"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/predictions/recent?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Predictions []map[string]interface{} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Predictions, 2)
	assert.Equal(t, "api", body.Predictions[0]["surface"])
}

func TestHandleRecentPredictionsBadLimit(t *testing.T) {
	f := newFixture(t, nil)

	for _, limit := range []string{"0", "-3", "abc"} {
		rec := f.do(t, http.MethodGet, "/v1/predictions/recent?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestDisabledRoutes(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) {
		d.Stats = nil
		d.News = nil
		d.History = nil
	})

	for _, path := range []string{
		"/v1/matchups/today",
		"/v1/teams/NYY/stats",
		"/v1/teams/NYY/news",
		"/v1/teams/NYY/schedule",
		"/v1/predictions/recent",
	} {
		rec := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code, path)
	}

	rec := f.do(t, http.MethodGet, "/v1/matchups/stream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTeamStats(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/v1/teams/cws/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[TeamStatsResponse](t, rec)
	assert.Equal(t, "CHW", resp.Abbr)
	assert.InDelta(t, 0.58, resp.Stats.WinPct, 1e-9)
	assert.InDelta(t, 13.1, resp.Stats.TotalBases, 1e-9)
	assert.Equal(t, 10, resp.Recent.Games)

	rec = f.do(t, http.MethodGet, "/v1/teams/XYZ/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.stats.err = datasource.NewDataSourceError("mlb-stats-api", datasource.ErrCodeServerError, "down", fmt.Errorf("status 500"))
	rec = f.do(t, http.MethodGet, "/v1/teams/NYY/stats", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleTeamSchedule(t *testing.T) {
	f := newFixture(t, nil)
	f.stats.scheduled = []datasource.ScheduledGame{{GamePk: 7, HomeID: 147, AwayID: 111}}

	rec := f.do(t, http.MethodGet, "/v1/teams/NYY/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultScheduleDays, f.stats.days)
	assert.Contains(t, rec.Body.String(), `"game_pk":7`)

	rec = f.do(t, http.MethodGet, "/v1/teams/NYY/schedule?days=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxScheduleDays, f.stats.days)
}

func TestHandleTeamNews(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/v1/teams/BOS/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TeamNewsResponse](t, rec)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.RedditPost)
	assert.Equal(t, "Game Thread: BOS", resp.RedditPost.Title)

	f = newFixture(t, func(d *Dependencies) { d.News = &stubNews{redditErr: news.ErrNoEntries} })
	rec = f.do(t, http.MethodGet, "/v1/teams/BOS/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[TeamNewsResponse](t, rec)
	assert.Nil(t, resp.RedditPost)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&team.UnknownTeamError{Abbr: "XXX"}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", features.ErrArityMismatch), http.StatusBadRequest},
		{datasource.ErrCircuitOpen, http.StatusServiceUnavailable},
		{news.ErrNoSubreddit, http.StatusNotFound},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, _ := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

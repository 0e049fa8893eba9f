package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/logger"
	"github.com/yourusername/mlb-predictor/internal/metrics"
	"github.com/yourusername/mlb-predictor/internal/models"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/repository"
)

const dateLayout = "2006-01-02"

// ScheduleProvider lists the games on a calendar date.
type ScheduleProvider interface {
	Schedule(ctx context.Context, date time.Time) ([]datasource.ScheduledGame, error)
}

// MatchupRow is one game in the daily slate.
type MatchupRow struct {
	GamePk        int       `json:"game_pk"`
	GameTime      time.Time `json:"game_time"`
	Home          string    `json:"home"`
	Away          string    `json:"away"`
	HomeLogo      string    `json:"home_logo,omitempty"`
	AwayLogo      string    `json:"away_logo,omitempty"`
	Winner        string    `json:"winner"`
	Confidence    float64   `json:"confidence"`
	HomeWinPct    float64   `json:"home_win_pct"`
	AwayWinPct    float64   `json:"away_win_pct"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	StatsFallback bool      `json:"stats_fallback,omitempty"`
}

// Slate is every prediction for one day's schedule.
type Slate struct {
	ID           uuid.UUID    `json:"id"`
	Date         string       `json:"date"`
	GeneratedAt  time.Time    `json:"generated_at"`
	ModelVersion string       `json:"model_version"`
	Rows         []MatchupRow `json:"rows"`
	Fallbacks    int          `json:"fallbacks"`

	predictions []slatePrediction
}

type slatePrediction struct {
	row  int
	pred *Prediction
}

// SlateConfig configures a SlateService.
type SlateConfig struct {
	Location    *time.Location
	Concurrency int
	// CacheStats reports stats cache hits and misses after each refresh.
	CacheStats func() (hits, misses uint64)
}

// SlateService builds, caches and publishes the daily matchup slate.
type SlateService struct {
	predictor *Predictor
	schedule  ScheduleProvider
	stats     *TeamStats
	directory *datasource.Directory
	store     repository.PredictionRepository
	cfg       SlateConfig
	logger    *logger.PredictionLogger
	now       func() time.Time

	mu        sync.RWMutex
	latest    *Slate
	listeners []func(*Slate)
}

// NewSlateService creates a slate service. stats and store may be nil; without
// stats the extended schema is fed neutral values.
func NewSlateService(predictor *Predictor, schedule ScheduleProvider, stats *TeamStats, directory *datasource.Directory, store repository.PredictionRepository, cfg SlateConfig, log *logrus.Logger) *SlateService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SlateService{
		predictor: predictor,
		schedule:  schedule,
		stats:     stats,
		directory: directory,
		store:     store,
		cfg:       cfg,
		logger:    logger.NewPredictionLogger(log),
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *SlateService) SetClock(now func() time.Time) {
	s.now = now
}

// Today builds the slate for the current date in the configured location.
func (s *SlateService) Today(ctx context.Context) (*Slate, error) {
	return s.Build(ctx, s.now().In(s.cfg.Location))
}

// Build predicts every game scheduled on date. Per-game problems become row
// statuses; only a schedule failure fails the build.
func (s *SlateService) Build(ctx context.Context, date time.Time) (*Slate, error) {
	tracker := NewSlateMetrics()

	games, err := s.schedule.Schedule(ctx, date)
	if err != nil {
		return nil, err
	}

	slate := &Slate{
		ID:           uuid.New(),
		Date:         date.Format(dateLayout),
		ModelVersion: s.predictor.ModelVersion(),
		Rows:         make([]MatchupRow, len(games)),
	}
	preds := make([]*Prediction, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, game := range games {
		i, game := i, game
		g.Go(func() error {
			tracker.RecordGame()
			slate.Rows[i], preds[i] = s.buildRow(gctx, game, tracker)
			return nil
		})
	}
	_ = g.Wait()

	for i, pred := range preds {
		if pred != nil {
			slate.predictions = append(slate.predictions, slatePrediction{row: i, pred: pred})
		}
	}

	tracker.Finish()
	snap := tracker.Snapshot()
	slate.Fallbacks = snap.StatsFallbacks
	slate.GeneratedAt = s.now().UTC()
	s.logger.WithField("summary", tracker.String()).Debug("Slate built")

	return slate, nil
}

func (s *SlateService) buildRow(ctx context.Context, game datasource.ScheduledGame, tracker *SlateMetrics) (MatchupRow, *Prediction) {
	row := MatchupRow{
		GamePk:   game.GamePk,
		GameTime: game.GameDate,
		Home:     game.HomeName,
		Away:     game.AwayName,
		Winner:   presentation.Unavailable,
	}

	reg := s.predictor.Registry()
	homeFr, homeErr := s.directory.ByMLBID(game.HomeID)
	awayFr, awayErr := s.directory.ByMLBID(game.AwayID)
	homeKnown, awayKnown := false, false
	if homeErr == nil {
		row.Home, homeKnown = s.registered(homeFr)
		row.HomeLogo = homeFr.LogoURL
	}
	if awayErr == nil {
		row.Away, awayKnown = s.registered(awayFr)
		row.AwayLogo = awayFr.LogoURL
	}

	if !homeKnown || !awayKnown {
		tracker.RecordUnknownTeam()
		row.Status = StatusUnknownTeam
		row.Message = presentation.UnknownTeamMessage
		return row, nil
	}

	var stats *features.AuxStats
	if s.predictor.WantsStats() {
		stats = s.matchupStats(ctx, row.Home, row.Away)
		if stats == nil {
			tracker.RecordStatsFallback()
			row.StatsFallback = true
			stats = features.NeutralStats()
		}
	}

	pred, err := s.predictor.Predict(ctx, Request{
		Home:    row.Home,
		Away:    row.Away,
		Stats:   stats,
		Surface: models.SurfaceSlate,
	})
	if err != nil {
		tracker.RecordError()
		row.Status = StatusError
		row.Message = err.Error()
		return row, nil
	}

	tracker.RecordPredicted()
	row.Winner = presentation.WinnerOrUnavailable(pred.Resolution, reg)
	row.Status = pred.View.Status
	row.Message = pred.View.Message
	if pred.Resolution.Margin != nil {
		row.Confidence = round(*pred.Resolution.Margin, 3)
	}
	row.HomeWinPct = round(pred.Probability(pred.HomeID)*100, 1)
	row.AwayWinPct = round(pred.Probability(pred.AwayID)*100, 1)
	return row, pred
}

// registered returns the spelling of f the registry knows, falling back to
// the canonical abbreviation.
func (s *SlateService) registered(f datasource.Franchise) (string, bool) {
	reg := s.predictor.Registry()
	for _, abbr := range s.directory.Spellings(f) {
		if reg.Contains(abbr) {
			return abbr, true
		}
	}
	return f.Abbr, false
}

// matchupStats returns nil when live stats are unavailable for either side.
func (s *SlateService) matchupStats(ctx context.Context, home, away string) *features.AuxStats {
	if s.stats == nil {
		return nil
	}
	stats, err := s.stats.Matchup(ctx, home, away)
	if err != nil {
		metrics.RecordStatsFetchError(errorKind(err))
		s.logger.WithError(err).WithFields(logrus.Fields{"home": home, "away": away}).Warn("Using neutral stats")
		return nil
	}
	if err := stats.Validate(); err != nil {
		metrics.RecordStatsFetchError("invalid")
		return nil
	}
	return stats
}

// Refresh rebuilds today's slate, records it and notifies listeners.
func (s *SlateService) Refresh(ctx context.Context) (*Slate, error) {
	start := time.Now()
	slate, err := s.Today(ctx)
	if err != nil {
		metrics.RecordSlateRefresh(metrics.OutcomeFailure, 0, time.Since(start).Seconds())
		s.logger.WithError(err).Error("Slate refresh failed")
		return nil, err
	}

	metrics.RecordSlateRefresh(metrics.OutcomeSuccess, len(slate.Rows), time.Since(start).Seconds())
	if s.cfg.CacheStats != nil {
		metrics.UpdateStatsCacheHitRatio(s.cfg.CacheStats())
	}
	s.logger.LogSlateRefresh(slate.Date, len(slate.Rows), slate.Fallbacks, time.Since(start))

	if s.store != nil {
		if err := s.store.CreateBatch(ctx, s.records(slate)); err != nil {
			s.logger.WithError(err).Warn("Failed to record slate predictions")
		}
	}

	s.mu.Lock()
	s.latest = slate
	listeners := append([]func(*Slate){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(slate)
	}
	return slate, nil
}

// Latest returns the last refreshed slate, or nil before the first refresh.
func (s *SlateService) Latest() *Slate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Current returns the latest slate if it is for today, refreshing otherwise.
func (s *SlateService) Current(ctx context.Context) (*Slate, error) {
	if latest := s.Latest(); latest != nil && latest.Date == s.now().In(s.cfg.Location).Format(dateLayout) {
		return latest, nil
	}
	return s.Refresh(ctx)
}

// OnRefresh registers fn to receive every refreshed slate.
func (s *SlateService) OnRefresh(fn func(*Slate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SlateService) records(slate *Slate) []*models.Prediction {
	day, _ := time.Parse(dateLayout, slate.Date)
	records := make([]*models.Prediction, 0, len(slate.predictions))
	for _, sp := range slate.predictions {
		rec := s.predictor.Record(sp.pred, models.SurfaceSlate)
		slateID := slate.ID
		gamePk := slate.Rows[sp.row].GamePk
		rec.SlateID = &slateID
		rec.GamePk = &gamePk
		rec.GameDate = &day
		records = append(records, rec)
	}
	return records
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func errorKind(err error) string {
	var dsErr datasource.DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "other"
}

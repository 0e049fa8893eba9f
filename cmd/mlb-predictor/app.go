package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/artifact"
	"github.com/yourusername/mlb-predictor/internal/config"
	"github.com/yourusername/mlb-predictor/internal/database"
	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/logger"
	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/news"
	"github.com/yourusername/mlb-predictor/internal/repository"
	"github.com/yourusername/mlb-predictor/internal/service"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// app holds the components shared by subcommands.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	factory   *datasource.Factory
	directory *datasource.Directory

	bundle    *artifact.Bundle
	registry  *team.Registry
	predictor *service.Predictor

	db    *database.DB
	repos *repository.Repositories

	closers []func() error
}

func newApp() *app {
	return &app{
		cfg:       cfg,
		log:       appLog,
		factory:   datasource.NewFactory(cfg, appLog),
		directory: datasource.NewDirectory(),
	}
}

// loadModel reads the artifact and builds the predictor. History is attached
// when openHistory has run first.
func (a *app) loadModel(ctx context.Context) error {
	bundle, err := artifact.Load(a.cfg.Model.ArtifactPath)
	if err != nil {
		return fmt.Errorf("failed to load model artifact: %w", err)
	}
	reg, err := bundle.Registry()
	if err != nil {
		return err
	}

	classifier, version, err := a.classifier(ctx, bundle)
	if err != nil {
		return err
	}

	var store repository.PredictionRepository
	if a.repos != nil {
		store = a.repos.Prediction
	}

	predictor, err := service.NewPredictor(reg, classifier, version, store, a.log)
	if err != nil {
		return err
	}

	logger.NewMLLogger(a.log).LogModelLoaded(a.cfg.Model.Backend, version, len(classifier.KnownClasses()), classifier.NumFeatures())
	a.bundle = bundle
	a.registry = reg
	a.predictor = predictor
	return nil
}

func (a *app) classifier(ctx context.Context, bundle *artifact.Bundle) (ml.Classifier, string, error) {
	var (
		inner   ml.Classifier
		version string
	)

	switch a.cfg.Model.Backend {
	case config.BackendRemote:
		remote, err := ml.NewHTTPClassifier(ctx, a.factory.MLServiceHTTPClient(), a.cfg.MLService.URL, a.cfg.MLService.APIKey, a.log)
		if err != nil {
			return nil, "", err
		}
		inner, version = remote, remote.Version()
	case config.BackendGRPC:
		remote, err := ml.NewGRPCClassifier(ctx, a.cfg.MLService.GRPCAddress, a.cfg.MLService.APIKey, a.log)
		if err != nil {
			return nil, "", err
		}
		a.closers = append(a.closers, remote.Close)
		inner, version = remote, remote.Version()
	default:
		if bundle.Model == nil {
			return nil, "", fmt.Errorf("artifact %s has no model for the native backend", a.cfg.Model.ArtifactPath)
		}
		native, err := ml.NewEnsembleClassifier(bundle.Model)
		if err != nil {
			return nil, "", err
		}
		inner, version = native, native.Version()
	}

	if version == "" {
		version = bundle.Version
	}
	if !a.cfg.Model.CacheEnabled {
		return inner, version, nil
	}

	ttl := time.Duration(a.cfg.MLService.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return ml.NewCachedClassifier(inner, version, ttl, a.cfg.MLService.CacheMaxSize, a.log), version, nil
}

// openHistory connects to Postgres when enabled and falls back to an
// in-memory ring otherwise.
func (a *app) openHistory(ctx context.Context) error {
	if !a.cfg.Database.Enabled {
		a.repos = repository.NewInMemoryRepositories(0)
		a.log.Info("Database disabled; keeping prediction history in memory")
		return nil
	}

	db, err := database.Initialize(ctx, &a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return err
	}
	a.db = db
	a.repos = repos
	a.log.Info("Database connection established")
	return nil
}

func (a *app) slates(stats bool) *service.SlateService {
	// Validate has already rejected an unknown timezone.
	loc, _ := a.cfg.Location()

	statsAPI := a.factory.StatsAPI()
	var teamStats *service.TeamStats
	if stats {
		teamStats = service.NewTeamStats(statsAPI, a.directory)
	}

	var store repository.PredictionRepository
	if a.repos != nil {
		store = a.repos.Prediction
	}

	cache := a.factory.Cache()
	return service.NewSlateService(a.predictor, statsAPI, teamStats, a.directory, store, service.SlateConfig{
		Location:   loc,
		CacheStats: cache.Stats,
	}, a.log)
}

func (a *app) news() *news.Client {
	return news.NewClient(a.factory.FeedHTTPClient(), a.directory, a.factory.Cache(), news.Config{
		TeamNewsURL:   a.cfg.Feeds.TeamNewsURL,
		LeagueNewsURL: a.cfg.Feeds.LeagueNewsURL,
		RedditURL:     a.cfg.Feeds.RedditURL,
		MaxEntries:    a.cfg.Feeds.MaxEntries,
	}, a.log)
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.WithError(err).Debug("Failed to close classifier connection")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if err := a.factory.Close(); err != nil {
		a.log.WithError(err).Debug("Failed to close HTTP clients")
	}
}

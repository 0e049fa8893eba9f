package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mlb-predictor/internal/api"
	"github.com/yourusername/mlb-predictor/internal/health"
	"github.com/yourusername/mlb-predictor/internal/scheduler"
	"github.com/yourusername/mlb-predictor/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the slate refresh schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a := newApp()
	defer a.close()

	if err := a.openHistory(ctx); err != nil {
		return err
	}
	if err := a.loadModel(ctx); err != nil {
		return err
	}

	slates := a.slates(true)
	healthCfg := health.Config{
		ServiceName:  a.cfg.App.Name,
		Version:      Version,
		ModelVersion: a.predictor.ModelVersion(),
		Logger:       a.log,
	}
	if a.db != nil {
		healthCfg.DB = a.db
	}
	checker := health.NewChecker(healthCfg)

	server := api.NewServer(api.Config{
		Addr:           a.cfg.ServerAddress(),
		ReadTimeout:    time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
		StreamEnabled:  a.cfg.Server.StreamEnabled,
		MetricsEnabled: a.cfg.Metrics.Enabled,
		MetricsPath:    a.cfg.Metrics.Path,
		Location:       slatesLocation(a),
	}, api.Dependencies{
		Predictor: a.predictor,
		Slates:    slates,
		Stats:     a.factory.StatsAPI(),
		News:      a.news(),
		Directory: a.directory,
		History:   a.repos.Prediction,
		Health:    checker,
		Logger:    a.log,
	})

	var sched *scheduler.Scheduler
	if a.cfg.Schedule.Enabled {
		sched = scheduler.NewScheduler(slatesLocation(a), a.log)
		if _, err := sched.ScheduleSlateRefresh(a.cfg.Schedule.SlateRefreshCron, slates); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})

	g.Go(func() error {
		warmSlate(gctx, a, slates)
		checker.SetReady(true)
		return nil
	})

	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(); err != nil {
				return err
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	}

	a.log.WithField("addr", a.cfg.ServerAddress()).Info("mlb-predictor serving")
	return g.Wait()
}

// warmSlate builds today's slate once so the first request is not slow. A
// failure is logged and the scheduler or the next request retries.
func warmSlate(ctx context.Context, a *app, slates *service.SlateService) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := slates.Refresh(ctx); err != nil {
		a.log.WithError(err).Warn("Initial slate refresh failed")
	}
}

func slatesLocation(a *app) *time.Location {
	loc, err := a.cfg.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
)

// StatsProvider is the subset of the MLB Stats API client team stats need.
type StatsProvider interface {
	RecentGameStats(ctx context.Context, mlbID int) (datasource.RecentStats, error)
	TeamWinPct(ctx context.Context, mlbID int) (float64, error)
}

// TeamStats turns live MLB data into feature stats for registered teams.
type TeamStats struct {
	provider  StatsProvider
	directory *datasource.Directory
}

// NewTeamStats creates a stats adapter.
func NewTeamStats(provider StatsProvider, directory *datasource.Directory) *TeamStats {
	return &TeamStats{provider: provider, directory: directory}
}

// Side returns one team's rolling stats and season win percentage.
func (t *TeamStats) Side(ctx context.Context, abbr string) (features.SideStats, error) {
	franchise, err := t.directory.ByAbbr(abbr)
	if err != nil {
		return features.SideStats{}, err
	}

	recent, err := t.provider.RecentGameStats(ctx, franchise.MLBID)
	if err != nil {
		return features.SideStats{}, fmt.Errorf("recent stats for %s: %w", franchise.Abbr, err)
	}
	winPct, err := t.provider.TeamWinPct(ctx, franchise.MLBID)
	if err != nil {
		return features.SideStats{}, fmt.Errorf("win pct for %s: %w", franchise.Abbr, err)
	}

	return features.SideStats{
		WinPct:           winPct,
		WalksIssued:      recent.WalksIssued,
		StrikeoutsThrown: recent.StrikeoutsThrown,
		TotalBases:       recent.TotalBases,
	}, nil
}

// Matchup fetches both sides concurrently. Any failure fails the whole
// bundle; callers fall back to features.NeutralStats.
func (t *TeamStats) Matchup(ctx context.Context, home, away string) (*features.AuxStats, error) {
	var stats features.AuxStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		side, err := t.Side(gctx, home)
		stats.Home = side
		return err
	})
	g.Go(func() error {
		side, err := t.Side(gctx, away)
		stats.Away = side
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

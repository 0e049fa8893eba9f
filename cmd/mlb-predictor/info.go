package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/team"
)

func isUnknownTeam(err error) bool {
	return errors.Is(err, team.ErrUnknownTeam)
}

func newTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List the teams the model was trained on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			if err := a.loadModel(cmd.Context()); err != nil {
				return err
			}

			headerColor.Printf("%d teams (model %s, %d features)\n",
				a.registry.Len(), a.predictor.ModelVersion(), a.predictor.Arity())
			for _, abbr := range a.registry.SortedAbbreviations() {
				id, _ := a.registry.ID(abbr)
				line := fmt.Sprintf("  %-4s id=%-3d", abbr, id)
				if f, err := a.directory.ByAbbr(abbr); err == nil {
					line += fmt.Sprintf(" mlb=%d", f.MLBID)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newSlateCmd() *cobra.Command {
	var (
		date    string
		noStats bool
	)

	cmd := &cobra.Command{
		Use:   "slate",
		Short: "Predict every game scheduled today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp()
			defer a.close()
			if err := a.loadModel(ctx); err != nil {
				return err
			}

			slates := a.slates(!noStats)
			when := time.Now()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				when = parsed
			}

			slate, err := slates.Build(ctx, when)
			if err != nil {
				return err
			}

			headerColor.Printf("Games for %s (model %s)\n", slate.Date, slate.ModelVersion)
			if len(slate.Rows) == 0 {
				dimColor.Println("No games scheduled")
				return nil
			}
			fmt.Printf("%-4s %-4s %-12s %6s %6s %6s\n", "HOME", "AWAY", "WINNER", "CONF", "HOME%", "AWAY%")
			for _, row := range slate.Rows {
				line := fmt.Sprintf("%-4s %-4s %-12s %6.3f %6.1f %6.1f", row.Home, row.Away, row.Winner, row.Confidence, row.HomeWinPct, row.AwayWinPct)
				switch {
				case row.Winner == presentation.Unavailable:
					errorColor.Println(line)
				case row.StatsFallback:
					warnColor.Println(line + "  (neutral stats)")
				default:
					fmt.Println(line)
				}
			}
			if slate.Fallbacks > 0 {
				dimColor.Printf("%d game(s) used neutral stats\n", slate.Fallbacks)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Slate date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&noStats, "no-stats", false, "Skip live stats and use neutral values")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats TEAM",
		Short: "Show a team's recent per-game averages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp()
			defer a.close()

			f, err := a.directory.ByAbbr(args[0])
			if err != nil {
				return err
			}
			statsAPI := a.factory.StatsAPI()
			recent, err := statsAPI.RecentGameStats(ctx, f.MLBID)
			if err != nil {
				return err
			}
			winPct, err := statsAPI.TeamWinPct(ctx, f.MLBID)
			if err != nil {
				return err
			}

			side := features.SideStats{
				WinPct:           winPct,
				WalksIssued:      recent.WalksIssued,
				StrikeoutsThrown: recent.StrikeoutsThrown,
				TotalBases:       recent.TotalBases,
			}
			headerColor.Printf("%s over the last %d games\n", f.Abbr, recent.Games)
			fmt.Printf("  Win %%:             %.3f\n", side.WinPct)
			fmt.Printf("  Walks issued:      %.2f\n", side.WalksIssued)
			fmt.Printf("  Strikeouts thrown: %.2f\n", side.StrikeoutsThrown)
			fmt.Printf("  Total bases:       %.2f\n", side.TotalBases)
			return nil
		},
	}
}

func newNewsCmd() *cobra.Command {
	var reddit bool

	cmd := &cobra.Command{
		Use:   "news [TEAM]",
		Short: "Show team headlines, or league headlines without a team",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp()
			defer a.close()
			client := a.news()

			if len(args) == 0 {
				items, err := client.LeagueNews(ctx)
				if err != nil {
					return err
				}
				headerColor.Println("MLB headlines")
				for _, item := range items {
					fmt.Printf("  %s\n", item.Title)
					dimColor.Printf("    %s\n", item.Link)
				}
				return nil
			}

			abbr := team.Normalize(args[0])
			items, err := client.TeamNews(ctx, abbr)
			if err != nil {
				return err
			}
			headerColor.Printf("%s headlines\n", abbr)
			for _, item := range items {
				fmt.Printf("  %s\n", item.Title)
				dimColor.Printf("    %s\n", item.Link)
			}

			if reddit {
				post, err := client.TopRedditPost(ctx, abbr)
				if err != nil {
					warnColor.Printf("No reddit post: %v\n", err)
					return nil
				}
				headerColor.Println("Top reddit post")
				fmt.Printf("  %s\n", post.Title)
				dimColor.Printf("    %s\n", post.Link)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reddit, "reddit", true, "Include the subreddit's top post")
	return cmd
}

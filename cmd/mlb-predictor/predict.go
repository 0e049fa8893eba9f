package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/models"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/service"
	"github.com/yourusername/mlb-predictor/internal/team"
)

type statsFlags struct {
	live bool
	home features.SideStats
	away features.SideStats
	set  bool
}

func newPredictCmd() *cobra.Command {
	var sf statsFlags

	cmd := &cobra.Command{
		Use:   "predict HOME AWAY",
		Short: "Predict the winner of one matchup",
		Example: `  mlb-predictor predict NYY BOS
  mlb-predictor predict LAD SF --home-win-pct 0.61 --away-win-pct 0.47
  mlb-predictor predict HOU SEA --live`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf.set = cmd.Flags().Changed("home-win-pct") || cmd.Flags().Changed("away-win-pct") ||
				cmd.Flags().Changed("home-walks") || cmd.Flags().Changed("away-walks") ||
				cmd.Flags().Changed("home-strikeouts") || cmd.Flags().Changed("away-strikeouts") ||
				cmd.Flags().Changed("home-total-bases") || cmd.Flags().Changed("away-total-bases")
			return runPredict(cmd, args[0], args[1], sf)
		},
	}

	typical := features.TypicalStats()
	f := cmd.Flags()
	f.BoolVar(&sf.live, "live", false, "Fetch 10-game stats from the MLB Stats API")
	f.Float64Var(&sf.home.WinPct, "home-win-pct", typical.Home.WinPct, "Home win percentage (0-1)")
	f.Float64Var(&sf.away.WinPct, "away-win-pct", typical.Away.WinPct, "Away win percentage (0-1)")
	f.Float64Var(&sf.home.WalksIssued, "home-walks", typical.Home.WalksIssued, "Home walks issued per game")
	f.Float64Var(&sf.away.WalksIssued, "away-walks", typical.Away.WalksIssued, "Away walks issued per game")
	f.Float64Var(&sf.home.StrikeoutsThrown, "home-strikeouts", typical.Home.StrikeoutsThrown, "Home strikeouts thrown per game")
	f.Float64Var(&sf.away.StrikeoutsThrown, "away-strikeouts", typical.Away.StrikeoutsThrown, "Away strikeouts thrown per game")
	f.Float64Var(&sf.home.TotalBases, "home-total-bases", typical.Home.TotalBases, "Home total bases per game")
	f.Float64Var(&sf.away.TotalBases, "away-total-bases", typical.Away.TotalBases, "Away total bases per game")
	return cmd
}

func runPredict(cmd *cobra.Command, home, away string, sf statsFlags) error {
	ctx := cmd.Context()
	a := newApp()
	defer a.close()

	if err := a.loadModel(ctx); err != nil {
		return err
	}

	var stats *features.AuxStats
	if a.predictor.WantsStats() {
		switch {
		case sf.live:
			live, err := service.NewTeamStats(a.factory.StatsAPI(), a.directory).
				Matchup(ctx, team.Normalize(home), team.Normalize(away))
			if err != nil {
				warnColor.Printf("Live stats unavailable (%v); using neutral values\n", err)
				live = features.NeutralStats()
			}
			stats = live
		default:
			stats = &features.AuxStats{Home: sf.home, Away: sf.away}
		}
	} else if sf.set || sf.live {
		warnColor.Println("This model uses team identity only; stats flags are ignored")
	}

	pred, err := a.predictor.Predict(ctx, service.Request{
		Home:    home,
		Away:    away,
		Stats:   stats,
		Surface: models.SurfaceCLI,
	})
	if err != nil {
		if view, ok := unknownTeamView(err); ok {
			printView(view)
			return nil
		}
		return err
	}

	headerColor.Printf("%s (home) vs %s (away)\n", pred.Home, pred.Away)
	printView(pred.View)
	printProbability(pred, pred.Home, pred.HomeID)
	printProbability(pred, pred.Away, pred.AwayID)
	dimColor.Printf("model %s\n", pred.ModelVersion)
	return nil
}

func unknownTeamView(err error) (presentation.View, bool) {
	if !isUnknownTeam(err) {
		return presentation.View{}, false
	}
	return presentation.RenderUnknownTeam(err), true
}

func printView(v presentation.View) {
	switch v.Level {
	case presentation.LevelSuccess:
		successColor.Println(v.Message)
	case presentation.LevelWarning:
		warnColor.Println(v.Message)
	default:
		errorColor.Println(v.Message)
	}
	if v.Detail != "" {
		fmt.Println(v.Detail)
	}
}

func printProbability(pred *service.Prediction, abbr string, id team.ID) {
	if p, ok := pred.Distribution.Probability(id); ok {
		fmt.Printf("  %-4s %5.1f%%\n", abbr, p*100)
		return
	}
	dimColor.Printf("  %-4s %s\n", abbr, strings.ToLower(presentation.Unavailable))
}

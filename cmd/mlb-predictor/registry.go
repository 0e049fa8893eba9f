package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/mlb-predictor/internal/artifact"
	"github.com/yourusername/mlb-predictor/internal/dataset"
	"github.com/yourusername/mlb-predictor/internal/team"
)

func loadGames(path string) ([]dataset.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	games, err := dataset.LoadGames(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return games, nil
}

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the team mapping tables",
	}

	var (
		gamesPath string
		outPath   string
		version   string
	)
	build := &cobra.Command{
		Use:   "build",
		Short: "Build team mapping tables from a games CSV",
		Long: `Assigns team ids in first-seen order over non-tie games and writes a
tables-only artifact. Attach a trained model to the artifact before serving
with the native backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := loadGames(gamesPath)
			if err != nil {
				return err
			}
			reg, err := team.Register(dataset.TeamOrder(games))
			if err != nil {
				return err
			}

			if err := artifact.Save(outPath, artifact.NewBundle(version, reg, nil)); err != nil {
				return err
			}

			labeled := dataset.Labeled(games)
			successColor.Printf("Wrote %d teams to %s\n", reg.Len(), outPath)
			fmt.Printf("  %d games read, %d ties skipped\n", len(games), len(games)-len(labeled))

			counts := dataset.WinnerCounts(games)
			var neverWon []string
			for _, abbr := range reg.SortedAbbreviations() {
				if counts[abbr] == 0 {
					neverWon = append(neverWon, abbr)
				}
			}
			if len(neverWon) > 0 {
				warnColor.Printf("  never won (not a model class): %v\n", neverWon)
			}
			return nil
		},
	}
	build.Flags().StringVar(&gamesPath, "games", "data/games.csv", "Historical games CSV")
	build.Flags().StringVarP(&outPath, "out", "o", "models/tables.json", "Artifact path (.json or .msgpack)")
	build.Flags().StringVar(&version, "version", "tables", "Version recorded in the artifact")

	cmd.AddCommand(build)
	return cmd
}

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Prepare training data",
	}

	var (
		gamesPath string
		outPath   string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write winner-labelled training samples as CSV",
		Long:  `Encodes non-tie games with the served artifact's team ids and writes home_id,away_id,winner_id rows.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := loadGames(gamesPath)
			if err != nil {
				return err
			}

			bundle, err := artifact.Load(cfg.Model.ArtifactPath)
			if err != nil {
				return err
			}
			reg, err := bundle.Registry()
			if err != nil {
				return err
			}

			samples, err := dataset.BuildSamples(games, reg)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := dataset.WriteSamples(out, samples); err != nil {
				return err
			}
			if out != os.Stdout {
				successColor.Printf("Wrote %d samples to %s\n", len(samples), outPath)
			}
			return nil
		},
	}
	export.Flags().StringVar(&gamesPath, "games", "data/games.csv", "Historical games CSV")
	export.Flags().StringVarP(&outPath, "out", "o", "-", "Output CSV path, - for stdout")

	cmd.AddCommand(export)
	return cmd
}

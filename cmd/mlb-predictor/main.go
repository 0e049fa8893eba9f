// Package main provides the mlb-predictor command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/mlb-predictor/internal/config"
	"github.com/yourusername/mlb-predictor/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:     "mlb-predictor",
	Short:   "Predict MLB game winners",
	Long:    `Predicts the winner of MLB matchups from a trained model and serves daily slates, team stats and news.`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(
		newPredictCmd(),
		newTeamsCmd(),
		newServeCmd(),
		newSlateCmd(),
		newRegistryCmd(),
		newDatasetCmd(),
		newStatsCmd(),
		newNewsCmd(),
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration, overlays AWS secrets when enabled and sets
// up logging.
func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	appLog = logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"backend":     cfg.Model.Backend,
	}).Debug("Configuration loaded")
	return nil
}

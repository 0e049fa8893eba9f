package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PredictionLogger logs matchup predictions and slate refreshes.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a resolved matchup. winner is empty and margin nil when
// the status does not define them.
func (pl *PredictionLogger) LogPrediction(home, away, status, winner string, margin *float64, arity int, latency time.Duration) {
	fields := logrus.Fields{
		"home":       home,
		"away":       away,
		"status":     status,
		"arity":      arity,
		"latency_ms": float64(latency.Microseconds()) / 1000,
	}
	if winner != "" {
		fields["winner"] = winner
	}
	if margin != nil {
		fields["margin"] = *margin
	}

	entry := pl.WithFields(fields)
	if status == "BOTH_KNOWN" {
		entry.Info("Prediction resolved")
		return
	}
	entry.Warn("Prediction resolved without full class coverage")
}

// LogUnknownTeam logs a request naming an unregistered abbreviation.
func (pl *PredictionLogger) LogUnknownTeam(home, away string, err error) {
	pl.WithFields(logrus.Fields{
		"home":  home,
		"away":  away,
		"error": err.Error(),
	}).Warn("Prediction rejected: unknown team")
}

// LogClassifierError logs a failed classifier call for a matchup.
func (pl *PredictionLogger) LogClassifierError(home, away string, err error) {
	pl.WithFields(logrus.Fields{
		"home":  home,
		"away":  away,
		"error": err.Error(),
	}).Error("Prediction failed")
}

// LogSlateRefresh logs a completed daily slate build.
func (pl *PredictionLogger) LogSlateRefresh(date string, games, fallbacks int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"date":        date,
		"games":       games,
		"fallbacks":   fallbacks,
		"duration_ms": duration.Milliseconds(),
	}).Info("Slate refreshed")
}

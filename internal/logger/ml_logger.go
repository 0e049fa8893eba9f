// Package logger provides ML-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// MLLogger provides dedicated logging for classifier operations.
type MLLogger struct {
	*logrus.Entry
}

// NewMLLogger creates a new ML logger.
func NewMLLogger(baseLogger *logrus.Logger) *MLLogger {
	return &MLLogger{
		Entry: baseLogger.WithField("component", "ml"),
	}
}

// LogModelLoaded logs a classifier becoming ready to serve.
func (ml *MLLogger) LogModelLoaded(backend, version string, classes, numFeatures int) {
	ml.WithFields(logrus.Fields{
		"backend":      backend,
		"version":      version,
		"classes":      classes,
		"num_features": numFeatures,
	}).Info("Classifier loaded")
}

// LogMLPredictionRequest logs a classifier call.
func (ml *MLLogger) LogMLPredictionRequest(backend string, featuresCount int, cacheHit bool, latencyMs float64) {
	ml.WithFields(logrus.Fields{
		"backend":        backend,
		"features_count": featuresCount,
		"cache_hit":      cacheHit,
		"latency_ms":     latencyMs,
	}).Debug("Classifier call completed")
}

// LogMLPredictionError logs classifier failures.
func (ml *MLLogger) LogMLPredictionError(backend string, errorReason string) {
	ml.WithFields(logrus.Fields{
		"backend":      backend,
		"error_reason": errorReason,
	}).Error("Classifier call failed")
}

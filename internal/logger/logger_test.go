package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = newLogger(buf, "nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestPredictionLoggerBothKnown(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	margin := 0.4
	predictionLogger.LogPrediction("NYY", "BOS", "BOTH_KNOWN", "NYY", &margin, 10, 1500*time.Microsecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "prediction", logEntry["component"])
	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "NYY", logEntry["winner"])
	assert.Equal(t, 0.4, logEntry["margin"])
	assert.Equal(t, 1.5, logEntry["latency_ms"])
}

func TestPredictionLoggerDegenerateStatus(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogPrediction("NYY", "SEA", "NEITHER_KNOWN", "", nil, 2, time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.NotContains(t, logEntry, "winner")
	assert.NotContains(t, logEntry, "margin")
}

func TestPredictionLoggerErrors(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogUnknownTeam("XXX", "BOS", errors.New("unknown team: XXX"))
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "unknown team: XXX", logEntry["error"])

	buf.Reset()
	predictionLogger.LogClassifierError("NYY", "BOS", errors.New("timeout"))
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
}

func TestPredictionLoggerSlateRefresh(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogSlateRefresh("2025-06-01", 15, 2, 3*time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2025-06-01", logEntry["date"])
	assert.Equal(t, float64(15), logEntry["games"])
	assert.Equal(t, float64(3000), logEntry["duration_ms"])
}

func TestMLLogger(t *testing.T) {
	log, buf := setupTestLogger()
	mlLogger := NewMLLogger(log)

	mlLogger.LogModelLoaded("native", "2025.1", 30, 10)
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ml", logEntry["component"])
	assert.Equal(t, "2025.1", logEntry["version"])

	buf.Reset()
	mlLogger.LogMLPredictionRequest("http", 10, true, 45)
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, true, logEntry["cache_hit"])

	buf.Reset()
	mlLogger.LogMLPredictionError("http", "ml service unavailable")
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ml service unavailable", logEntry["error_reason"])
}

func BenchmarkPredictionLogger(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	predictionLogger := NewPredictionLogger(log)
	margin := 0.1

	for i := 0; i < b.N; i++ {
		predictionLogger.LogPrediction("NYY", "BOS", "BOTH_KNOWN", "NYY", &margin, 10, time.Millisecond)
	}
}

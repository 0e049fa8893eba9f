// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance
func NewLogger(logLevel string) *logrus.Logger {
	return newLogger(os.Stdout, logLevel, environment())
}

// NewLoggerForEnvironment is NewLogger with an explicit environment name
// instead of the ENVIRONMENT variable.
func NewLoggerForEnvironment(logLevel, env string) *logrus.Logger {
	return newLogger(os.Stdout, logLevel, env)
}

func newLogger(out io.Writer, logLevel, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use JSON formatter for structured logging in production
	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}

func environment() string {
	if env := os.Getenv("MLB_PREDICTOR_APP_ENVIRONMENT"); env != "" {
		return env
	}
	return os.Getenv("ENVIRONMENT")
}

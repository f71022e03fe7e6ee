// Package logger wraps zap with the production configuration used across
// the ingestion and replay core.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality.
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new logger instance with production configuration.
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: zapLogger}, nil
}

// NewNopLogger creates a logger that discards everything, for tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// NewLoggerAtLevel creates a logger whose level can be changed later via the
// returned AtomicLevel.
func NewLoggerAtLevel(level zapcore.Level) (*Logger, *zap.AtomicLevel, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	atomicLevel := zap.NewAtomicLevelAt(level)
	config.Level = atomicLevel

	zapLogger, err := config.Build()
	if err != nil {
		return nil, nil, err
	}

	return &Logger{Logger: zapLogger}, &atomicLevel, nil
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}

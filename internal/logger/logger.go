package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	return newLogger(zapcore.InfoLevel, "")
}

// NewDebugLogger creates a new logger instance with debug level enabled
func NewDebugLogger() (*Logger, error) {
	return newLogger(zapcore.DebugLevel, "")
}

// NewFileLogger creates a logger that writes to stdout and mirrors every entry
// into a timestamped log file under logDir. The directory is created if missing.
// Returns the logger and the path of the log file.
func NewFileLogger(level zapcore.Level, logDir string) (*Logger, string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02_15-04-05")))

	log, err := newLogger(level, logPath)
	if err != nil {
		return nil, "", err
	}

	return log, logPath, nil
}

func newLogger(level zapcore.Level, logPath string) (*Logger, error) {
	config := zap.NewProductionConfig()

	// Set the output to stdout
	config.OutputPaths = []string{"stdout"}

	// Set the error output to stderr
	config.ErrorOutputPaths = []string{"stderr"}

	if logPath != "" {
		config.OutputPaths = append(config.OutputPaths, logPath)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, logPath)
	}

	// Set the log level
	config.Level = zap.NewAtomicLevelAt(level)

	// Create the logger
	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards all output. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
	}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}
	return nil
}

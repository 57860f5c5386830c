// Package logging builds the process-wide zap logger. The logger is the only
// process-wide singleton in gh-notifier: it is installed once in the start
// command and synced on exit. Level comes from config (log_level) with the
// LOG environment variable as a fallback, and an optional file sink can be
// added alongside stderr via log_file_path.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Empty falls back to
	// the LOG environment variable, then to "info".
	Level string

	// FilePath, when non-empty, adds a file sink next to stderr. The file is
	// created if missing and appended to otherwise.
	FilePath string
}

// New constructs a zap logger from cfg. Debug level uses the development
// config (console encoding, human timestamps); everything else uses the
// production config (JSON).
func New(cfg Config) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = os.Getenv("LOG")
	}

	var zcfg zap.Config
	if level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.FilePath != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.FilePath)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: failed to build logger: %w", err)
	}
	return logger, nil
}

// parseLevel maps a level string to a zapcore.Level, defaulting to Info for
// unrecognized values rather than failing startup over a typo.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

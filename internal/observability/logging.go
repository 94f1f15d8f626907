// Package observability owns logger construction for the CLI and the
// HTTP service.
//
// Diagnostics go to the logger on stderr; command results go to stdout.
// Keeping those streams separate is what makes the CLI scriptable.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging profiles.
const (
	// ProfileStructured emits machine-parseable JSON lines.
	ProfileStructured = "structured"

	// ProfileConsole emits human-oriented console output.
	ProfileConsole = "console"
)

// CLILogger is the process-wide logger. It is a no-op until Init runs so
// packages can log unconditionally during early startup.
var CLILogger = zap.NewNop()

// Init builds the process logger from the configured level and profile
// and installs it as CLILogger.
func Init(level, profile string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(profile) {
	case ProfileStructured, "":
		cfg = zap.NewProductionConfig()
	case ProfileConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("invalid logging profile %q", profile)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	CLILogger = logger
	return nil
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = CLILogger.Sync()
}

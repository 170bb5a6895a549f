// Package logging builds the zap logger shared by the commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and sink of the logger.
type Options struct {
	Level   string // debug, info, warn or error; empty means warn
	File    string // JSON output is appended here when set, console on stderr otherwise
	Verbose bool   // forces debug level
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var config zap.Config
	if opts.File == "" {
		config = zap.NewDevelopmentConfig()
		config.OutputPaths = []string{"stderr"}
		config.DisableStacktrace = true
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{opts.File}
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Package logging builds the zap loggers used by the catalogctl binary
package logging

import (
	"fmt"
	"strings"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level mapping
var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Options selects the level, encoding and destination of a logger
type Options struct {
	Level string // debug, info, warn or error; empty means warn
	JSON  bool   // JSON lines instead of the console encoder
	File  string // optional log file, written in addition to stderr
}

// ParseLevel converts a level name into a zap level
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.WarnLevel, nil
	}
	level, ok := levelMap[strings.ToLower(name)]
	if !ok {
		return zapcore.WarnLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", name)
	}
	return level, nil
}

// New builds a logger writing to stderr and, when set, opts.File.
// The returned AtomicLevel changes the level at runtime.
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	var cfg zap.Config
	if opts.JSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = level > zapcore.DebugLevel
	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, cfg.Level, nil
}

// DefaultLogFile returns the log file location under the XDG state directory,
// creating its parent directory
func DefaultLogFile() (string, error) {
	path, err := xdg.StateFile("dsg/catalogctl.log")
	if err != nil {
		return "", fmt.Errorf("failed to resolve log file: %w", err)
	}
	return path, nil
}

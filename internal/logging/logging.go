// Package logging builds the zap loggers used across lintel and carries them
// on a context.Context.
//
// Levels
//   - Warn: a rule fault was isolated, or an input file was skipped.
//   - Info: run-level progress (files analyzed, batches committed).
//   - Debug: per-unit detail.
package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Config selects the logger flavour.
type Config struct {
	Level       zapcore.Level
	Development bool
}

// New returns a logger for c.
func (c Config) New() (*zap.Logger, error) {
	return NewWith(func(cfg *zap.Config) {
		if c.Development {
			*cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level.SetLevel(c.Level)
	})
}

// NewWith returns a logger from a modified production zap.Config.
func NewWith(cfgFn func(*zap.Config)) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfgFn(&cfg)
	return cfg.Build()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// Test returns a logger writing to tb's log at Debug level.
func Test(tb testing.TB) *zap.Logger {
	tb.Helper()
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel))
}

// TestObserved returns a test logger plus the entries it recorded at lvl and above.
func TestObserved(tb testing.TB, lvl zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	tb.Helper()
	core, logs := observer.New(lvl)
	observe := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	})
	return zaptest.NewLogger(tb, zaptest.WrapOptions(observe)), logs
}

type contextKey string

const loggerKey contextKey = "logger"

// ContextWithLogger returns a copy of ctx carrying lggr.
func ContextWithLogger(ctx context.Context, lggr *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, lggr)
}

// FromContext returns the logger stored on ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if lggr, ok := ctx.Value(loggerKey).(*zap.Logger); ok && lggr != nil {
		return lggr
	}
	return Nop()
}

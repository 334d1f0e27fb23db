package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		setupCtx func(lggr *zap.Logger) context.Context
		wantSame bool
	}{
		{
			name: "retrieves logger from context",
			setupCtx: func(lggr *zap.Logger) context.Context {
				return ContextWithLogger(context.Background(), lggr)
			},
			wantSame: true,
		},
		{
			name: "returns Nop logger when no logger in context",
			setupCtx: func(*zap.Logger) context.Context {
				return context.Background()
			},
		},
		{
			name: "returns Nop logger for wrong type in context",
			setupCtx: func(*zap.Logger) context.Context {
				return context.WithValue(context.Background(), loggerKey, "not a logger")
			},
		},
		{
			name: "returns Nop logger for nil logger",
			setupCtx: func(*zap.Logger) context.Context {
				return ContextWithLogger(context.Background(), nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lggr := Test(t)
			retrieved := FromContext(tc.setupCtx(lggr))
			require.NotNil(t, retrieved)
			if tc.wantSame {
				assert.Same(t, lggr, retrieved)
			}
			assert.NotPanics(t, func() { retrieved.Info("test message") })
		})
	}
}

func TestTestObserved(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.WarnLevel)
	lggr.Debug("dropped")
	lggr.Warn("kept", zap.String("rule", "S1656"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "S1656", entry.ContextMap()["rule"])
}

func TestConfigNew(t *testing.T) {
	t.Parallel()

	lggr, err := Config{Level: zapcore.InfoLevel, Development: true}.New()
	require.NoError(t, err)
	assert.True(t, lggr.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, lggr.Core().Enabled(zapcore.DebugLevel))

	lggr, err = Config{Level: zapcore.ErrorLevel}.New()
	require.NoError(t, err)
	assert.False(t, lggr.Core().Enabled(zapcore.WarnLevel))
}

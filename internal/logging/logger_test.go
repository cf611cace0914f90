package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true, "")
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewProductionLoggerWithLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(false, "warn")
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(false, "loud")
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).With(zap.String("request_id", "abc"))
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx, nil).Info("hello")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "abc", logs.All()[0].ContextMap()["request_id"])

	require.NotNil(t, FromContext(context.Background(), nil))
	fallback := zap.NewNop()
	require.Same(t, fallback, FromContext(context.Background(), fallback))
}

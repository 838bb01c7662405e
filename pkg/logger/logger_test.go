package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap: zap.New(core)}, logs
}

func TestContextIDs(t *testing.T) {
	ctx := WithCarrierID(WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1"), "carrier-1")

	assert.Equal(t, "trace-1", GetTraceID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "carrier-1", GetCarrierID(ctx))
	assert.Empty(t, GetCarrierID(context.Background()))
}

func TestLogger_AddsContextFields(t *testing.T) {
	log, logs := newObservedLogger()
	ctx := WithCarrierID(WithTraceID(context.Background(), "trace-1"), "carrier-1")

	log.Warn(ctx, "sync failed", "created", 3, "error", errors.New("boom"), 42, "ignored")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sync failed", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "carrier-1", fields["carrier_id"])
	assert.NotContains(t, fields, "user_id")
	assert.EqualValues(t, 3, fields["created"])
	assert.Equal(t, "boom", fields["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

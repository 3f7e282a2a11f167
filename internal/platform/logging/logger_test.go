package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FieldsFromKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.InfoContext(context.Background(), "week settled", "league_id", "nfl-2025-main", "week", 7, "error", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "nfl-2025-main", fields["league_id"])
	assert.EqualValues(t, 7, fields["week"])
	assert.Equal(t, "boom", fields["error"])
	_, hasTrace := fields["trace_id"]
	assert.False(t, hasTrace, "no span in context means no trace fields")
}

func TestLogger_OddArgsAndNilReceiver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With("component", "audit")

	logger.Warn("dangling", "member_id")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "audit", fields["component"])
	assert.Contains(t, fields, "member_id")

	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Info("ignored") })
}

func TestNewConsole_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(LevelInfo, &buf).Named("survivorjob")

	logger.Debug("hidden")
	logger.Info("visible", "week", 3)

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "survivorjob")
}

package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapterForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Info("submitted", map[string]interface{}{"rows": 2})
	log.Error("backend failed", errors.New("refused"), map[string]interface{}{"status": 500})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "submitted", entries[0].Message)
	assert.Equal(t, int64(2), entries[0].ContextMap()["rows"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "refused", entries[1].ContextMap()["error"])
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("verbose", "json")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

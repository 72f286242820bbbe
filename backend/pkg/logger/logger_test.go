package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet_WithoutInitIsNop(t *testing.T) {
	Set(nil)
	l := Get()
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestInit_Development(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	require.NoError(t, Init("development"))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestInit_Production(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	require.NoError(t, Init("production"))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestSet_ObserverReceivesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Get().Info("crawl finished", zap.Int("records", 3))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["records"])
}

func TestInit_CLI(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	require.NoError(t, Init("cli"))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))
}

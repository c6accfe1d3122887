package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"mercury/backend/internal/constants"
)

func TestBuildConfig(t *testing.T) {
	prod := buildConfig("production")
	assert.Equal(t, zapcore.InfoLevel, prod.Level.Level())
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, constants.ServiceName, prod.InitialFields["service"])

	dev := buildConfig("development")
	assert.Equal(t, zapcore.DebugLevel, dev.Level.Level())
	assert.Equal(t, constants.ServiceName, dev.InitialFields["service"])
}

func TestGet_FallsBackToNop(t *testing.T) {
	saved := Logger
	t.Cleanup(func() { Logger = saved })

	Logger = nil
	require.NotNil(t, Get())

	require.NoError(t, Init("production"))
	assert.Same(t, Logger, Get())
}

package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"tutor-server/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.log")

	log, err := logger.New(logger.Config{Level: "debug", OutputPath: path, Service: "tutor-server"})
	require.NoError(t, err)

	log.Debug("hello", zap.String("roomID", "r1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
	assert.Contains(t, string(data), `"service":"tutor-server"`)
	assert.Contains(t, string(data), `"roomID":"r1"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.log")

	log, err := logger.New(logger.Config{Level: "loud", Encoding: "xml", OutputPath: path})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

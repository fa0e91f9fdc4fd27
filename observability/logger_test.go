package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ByLCY/folio/config"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := NewLogger(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "folio"}, zapcore.AddSync(&buf))
	logger.Debug("layout pass", zap.Int("boxes", 12))
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "layout pass", entry["msg"])
	assert.Equal(t, "folio", entry["logger"])
	assert.EqualValues(t, 12, entry["boxes"])
}

func TestConsoleLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := NewLogger(config.LoggerConfig{Level: "warn", Format: "console"}, zapcore.AddSync(&buf))
	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
	logger.Debug("dropped")
	logger.Info("kept")
	cleanup()

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "kept")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.log")
	var buf bytes.Buffer
	logger, cleanup := NewLogger(config.LoggerConfig{
		Level:   "info",
		Format:  "console",
		LogFile: path,
		MaxSize: 1,
	}, zapcore.AddSync(&buf))
	logger.Info("to both")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry), "文件总是 JSON")
	assert.Equal(t, "to both", entry["msg"])
	assert.Contains(t, buf.String(), "to both")
}

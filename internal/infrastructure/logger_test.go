package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logFile := filepath.Join(t.TempDir(), "nested", "sellerpulse.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: logFile})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("workbook ingested", "rows", 12)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "workbook ingested", entries[0]["msg"])
	assert.Equal(t, float64(12), entries[0]["rows"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestInitializeLoggerBadPath(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level  string
		logged []string
	}{
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warning", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(config.LoggingConfig{Level: tt.level}, &buf)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			var levels []string
			for _, entry := range decodeLines(t, buf.Bytes()) {
				levels = append(levels, entry["level"].(string))
			}
			assert.Equal(t, tt.logged, levels)
		})
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "info"}, &buf).With("component", "ingest")

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "with trace")
	logger.Info("without trace")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "trace-123", entries[0]["trace_id"])
	assert.Equal(t, "ingest", entries[0]["component"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)), "existing trace ID must be kept")
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ComponentLogger(base, "products").Info("fetched")
	WithError(base, errors.New("boom")).Info("failed")
	assert.Same(t, base, WithError(base, nil))

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "products", entries[0]["component"])
	assert.Equal(t, "boom", entries[1]["error"])

	assert.NotNil(t, ComponentLogger(nil, "fallback"))
}

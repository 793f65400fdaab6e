// internal/observability/logger_test.go
package observability

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// -- Test Cases --

func TestInitializeConsoleLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &zaptest.Buffer{}
	cfg := config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "TestService",
	}
	Initialize(cfg, buf)

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("This is a test message.")

	output := buf.String()
	assert.Contains(t, output, "INFO", "Output should contain the log level")
	assert.Contains(t, output, "This is a test message.", "Output should contain the message")
	assert.Contains(t, output, colorGreen, "Info level should be colorized green")
	assert.Contains(t, output, "TestService.", "Output should contain the logger name")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &zaptest.Buffer{}
	cfg := config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "TestService",
	}
	Initialize(cfg, buf)

	GetLogger().Info("structured message", zap.String("file", "broken.py"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.Lines()[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "broken.py", entry["file"])
}

func TestLevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &zaptest.Buffer{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, buf)

	GetLogger().Info("filtered out")
	GetLogger().Warn("kept")

	output := buf.String()
	assert.NotContains(t, output, "filtered out")
	assert.Contains(t, output, "kept")
}

func TestFileLoggingWithRotation(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logFile := filepath.Join(t.TempDir(), "remedy.log")
	cfg := config.LoggerConfig{
		Level:       "info",
		Format:      "console",
		ServiceName: "remedy",
		LogFile:     logFile,
		MaxSize:     1,
		MaxBackups:  1,
	}
	Initialize(cfg, &zaptest.Buffer{})

	GetLogger().Info("written to file")
	Sync()

	f, err := os.Open(logFile)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "log file should contain at least one line")

	// The file core always encodes JSON regardless of the console format.
	var entry map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "written to file", entry["msg"])
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger, "fallback logger should never be nil")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &zaptest.Buffer{}
	Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, buf)

	GetLogger().Debug("hidden at info")
	GetLogger().Info("visible at info")

	output := buf.String()
	assert.NotContains(t, output, "hidden at info")
	assert.Contains(t, output, "visible at info")
}

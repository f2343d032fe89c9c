// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxtree/internal/config"
)

// captureOutput redirects stdout around fn and returns everything written.
// The pipe writer is closed and the reader drained before returning, so the
// captured text is complete by the time the caller asserts on it.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = buf.ReadFrom(r)
	}()

	fn()

	require.NoError(t, w.Close())
	os.Stdout = originalStdout
	<-done
	return buf.String()
}

// resetGlobalLogger is critical for test isolation since the logger is a
// package-level singleton.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitializeLogger(t *testing.T) {

	t.Run("console format colorizes the level", func(t *testing.T) {
		resetGlobalLogger()
		out := captureOutput(t, func() {
			InitializeLogger(config.LoggerConfig{
				Level:       "debug",
				Format:      "console",
				ServiceName: "consoletest",
			})
			GetLogger().Info("This is a test message.")
			Sync()
		})

		assert.Contains(t, out, "INFO", "output should contain the log level")
		assert.Contains(t, out, "This is a test message.")
		assert.Contains(t, out, "\x1b[", "level should carry an ANSI color code")
		assert.Contains(t, out, "consoletest.", "component name should end with a dot")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		resetGlobalLogger()
		out := captureOutput(t, func() {
			InitializeLogger(config.LoggerConfig{
				Level:       "info",
				Format:      "json",
				ServiceName: "jsontest",
			})
			GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))
			Sync()
		})

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &entry), "log output should be valid JSON")

		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "jsontest", entry["logger"])
		assert.Equal(t, "This is a JSON message.", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("log file receives a JSON copy", func(t *testing.T) {
		resetGlobalLogger()
		logPath := filepath.Join(t.TempDir(), "boxtree.log")

		InitializeLogger(config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logPath,
			MaxSize: 1, // 1 MB
		})
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
	})

	t.Run("second initialization is ignored", func(t *testing.T) {
		resetGlobalLogger()
		out := captureOutput(t, func() {
			InitializeLogger(config.LoggerConfig{Level: "info", ServiceName: "first"})
			logger1 := GetLogger()

			InitializeLogger(config.LoggerConfig{Level: "debug", ServiceName: "second"})
			logger2 := GetLogger()

			assert.Equal(t, logger1, logger2)
			logger2.Info("test")
			Sync()
		})

		assert.True(t, strings.Contains(out, "first"))
		assert.False(t, strings.Contains(out, "second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("should return a fallback logger if not initialized", func(t *testing.T) {
		resetGlobalLogger()
		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("should return the global logger after initialization", func(t *testing.T) {
		resetGlobalLogger()
		InitializeLogger(config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})

		logger := GetLogger()
		assert.Equal(t, globalLogger.Load(), logger)
	})
}

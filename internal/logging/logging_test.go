package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManager_FanOut verifies that one record reaches every registered
// destination handler.
func TestManager_FanOut(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer

	manager := NewManager()
	manager.AddHandler(HandlerConsole, NewFileHandler(&console, slog.LevelInfo))
	manager.AddHandler(HandlerFile, NewFileHandler(&file, slog.LevelInfo))

	logger := slog.New(manager)
	logger.Info("Mounted share", "host", "10.0.0.5", "export", "/data")

	assert.Contains(t, console.String(), "Mounted share")
	assert.Contains(t, file.String(), "Mounted share")
	assert.Contains(t, file.String(), "host=10.0.0.5")
}

// TestManager_ErrorRouting verifies that informational records do not reach
// the error-stream handler, while error records do.
func TestManager_ErrorRouting(t *testing.T) {
	t.Parallel()

	var file, errStream bytes.Buffer

	manager := NewManager()
	manager.AddHandler(HandlerFile, NewFileHandler(&file, slog.LevelInfo))
	manager.AddHandler(HandlerErrors, NewFileHandler(&errStream, slog.LevelError))

	logger := slog.New(manager)
	logger.Info("Scanning subnet", "subnet", "10.0.0.0/28")
	logger.Error("Mount failed", "export", "/data")

	assert.Contains(t, file.String(), "Scanning subnet")
	assert.Contains(t, file.String(), "Mount failed")
	assert.NotContains(t, errStream.String(), "Scanning subnet")
	assert.Contains(t, errStream.String(), "Mount failed")
	assert.Contains(t, errStream.String(), "level=ERROR")
}

// TestManager_RemoveHandler verifies that an unregistered destination no
// longer receives records.
func TestManager_RemoveHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	manager := NewManager()
	manager.AddHandler(HandlerUI, NewFileHandler(&buf, slog.LevelInfo))

	logger := slog.New(manager)
	logger.Info("before removal")

	manager.RemoveHandler(HandlerUI)
	logger.Info("after removal")

	assert.Contains(t, buf.String(), "before removal")
	assert.NotContains(t, buf.String(), "after removal")
}

// TestManager_WithAttrs verifies that attributes applied to the manager
// propagate to later-added destination handlers as well.
func TestManager_WithAttrs(t *testing.T) {
	t.Parallel()

	var early, late bytes.Buffer

	manager := NewManager()
	manager.AddHandler(HandlerFile, NewFileHandler(&early, slog.LevelInfo))

	withAttrs, ok := manager.WithAttrs([]slog.Attr{slog.String("run", "42")}).(*Manager)
	require.True(t, ok)

	withAttrs.AddHandler(HandlerUI, NewFileHandler(&late, slog.LevelInfo))

	logger := slog.New(withAttrs)
	logger.Info("attributed")

	assert.Contains(t, early.String(), "run=42")
	assert.Contains(t, late.String(), "run=42")
}

// TestFileHandler_TimestampParsable verifies that every log file line carries
// a fixed-format, parsable timestamp.
func TestFileHandler_TimestampParsable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(NewFileHandler(&buf, slog.LevelInfo))
	logger.Info("timestamped line")

	re := regexp.MustCompile(`time=([0-9TZ:.+-]+)`)
	matches := re.FindStringSubmatch(buf.String())
	require.Len(t, matches, 2, "log line should carry a time attribute")

	_, err := time.Parse(time.RFC3339, matches[1])
	require.NoError(t, err, "timestamp should be RFC3339-parsable")
}

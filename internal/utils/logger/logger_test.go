package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "relay.log")

	l, err := New(&Config{LogFile: file, MaxSize: 1, Console: &console})
	require.NoError(t, err)

	l.WithComponent("server").Info("listening")
	l.LogError("boom", errors.New("bad"))
	_ = l.Sync()

	assert.Contains(t, console.String(), "listening")
	assert.Contains(t, console.String(), "boom")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "listening", entry["msg"])
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var console bytes.Buffer

	l, err := New(&Config{Console: &console, Level: "warn"})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNew_DevelopmentEnablesDebug(t *testing.T) {
	var console bytes.Buffer

	l, err := New(&Config{Console: &console, Development: true})
	require.NoError(t, err)

	end := l.TrackPerformance("register")
	end()

	assert.Contains(t, console.String(), "Starting operation")
	assert.Contains(t, console.String(), "Operation completed")
	assert.Contains(t, console.String(), "correlation_id")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelWarn, ParseLevel("Warning"))
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	short := formatLine(ts, LevelInfo, "Starting download", []interface{}{"url", "https://x", "attempt", 1})
	assert.Equal(t, "[2025-01-02 03:04:05] INFO  Starting download url=https://x attempt=1", short)

	long := formatLine(ts, LevelWarn, "many", []interface{}{"a", 1, "b", 2, "c", 3, "d", 4, "e", 5})
	assert.Contains(t, long, "\n        a: 1")
	assert.Contains(t, long, "\n        e: 5")
}

func TestToPropertiesStringifiesErrors(t *testing.T) {
	props := toProperties([]interface{}{"error", errors.New("boom"), "dangling"})
	assert.Equal(t, map[string]interface{}{"error": "boom"}, props)
	assert.Nil(t, toProperties(nil))
}

func TestLoggerWritesPlainAndJSON(t *testing.T) {
	base := t.TempDir()
	l, err := newLoggerWithConfig(LoggerConfig{
		BaseDir:    base,
		Component:  "appbundle",
		SessionID:  "test-session",
		Level:      LevelInfo,
		Retention:  DefaultRetentionPolicy(),
		EnableJSON: true,
	})
	require.NoError(t, err)
	defer l.logFile.Close()
	defer l.jsonFile.Close()

	l.logMessage(LevelInfo, "Resolved download", nil, "app", "vlc")
	l.logMessage(LevelDebug, "filtered out", nil)
	l.logMessage(LevelError, "Install failed", &LogEvent{EventType: "install", Status: "failed", Package: "vlc"})

	plain, err := os.ReadFile(filepath.Join(l.logDir, "install.log"))
	require.NoError(t, err)
	assert.Contains(t, string(plain), "Resolved download app=vlc")
	assert.NotContains(t, string(plain), "filtered out")

	f, err := os.Open(filepath.Join(l.logDir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "test-session", entries[0].SessionID)
	assert.Equal(t, "vlc", entries[0].Properties["app"])
	require.NotNil(t, entries[1].Event)
	assert.Equal(t, "failed", entries[1].Event.Status)
}

func TestCleanupKeepsNewestRuns(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"2024-01-01-000000", "2024-01-02-000000", "2024-01-03-000000", "not-a-run"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, name), 0755))
	}

	l, err := newLoggerWithConfig(LoggerConfig{
		BaseDir:   base,
		Level:     LevelInfo,
		Retention: RetentionPolicy{KeepRuns: 2},
	})
	require.NoError(t, err)
	defer l.logFile.Close()

	// The current run sorts newest, so one older run survives alongside it.
	assert.DirExists(t, filepath.Join(base, "2024-01-03-000000"))
	assert.NoDirExists(t, filepath.Join(base, "2024-01-02-000000"))
	assert.NoDirExists(t, filepath.Join(base, "2024-01-01-000000"))
	assert.DirExists(t, filepath.Join(base, "not-a-run"))
	assert.DirExists(t, l.logDir)
}

func TestDownloadProgressEventAndLogDir(t *testing.T) {
	assert.Empty(t, GetCurrentLogDir())

	l, err := newLoggerWithConfig(LoggerConfig{
		BaseDir:    t.TempDir(),
		SessionID:  "progress-session",
		Level:      LevelInfo,
		Retention:  DefaultRetentionPolicy(),
		EnableJSON: true,
	})
	require.NoError(t, err)
	defer l.logFile.Close()
	defer l.jsonFile.Close()

	instance = l
	defer func() { instance = nil }()

	assert.Equal(t, l.logDir, GetCurrentLogDir())
	LogDownloadProgress("vlc-3.0.21-win64.exe", 50)

	data, err := os.ReadFile(filepath.Join(l.logDir, "events.jsonl"))
	require.NoError(t, err)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	require.NotNil(t, entry.Event)
	assert.Equal(t, "download", entry.Event.EventType)
	assert.Equal(t, "vlc-3.0.21-win64.exe", entry.Event.Package)
	require.NotNil(t, entry.Event.Progress)
	assert.Equal(t, 50, *entry.Event.Progress)
}

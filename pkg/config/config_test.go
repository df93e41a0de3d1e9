package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsDefaultsForOmittedKeys(t *testing.T) {
	cfg, err := Parse([]byte("DownloadAttempts: 5\nAllowUnverified: false\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.DownloadAttempts)
	assert.False(t, cfg.AllowUnverified)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "/S", cfg.DefaultInstallArgs)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultMirrorURL, cfg.MirrorURL)
}

func TestParseRestoresEmptyStrings(t *testing.T) {
	cfg, err := Parse([]byte("UserAgent: \"\"\nDefaultInstallArgs: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, "/S", cfg.DefaultInstallArgs)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero http timeout", "HTTPTimeoutSeconds: 0\n"},
		{"too many attempts", "DownloadAttempts: 50\n"},
		{"negative ttl", "CacheTTLHours: -1\n"},
		{"zero installer timeout", "InstallerTimeoutMinutes: 0\n"},
		{"not yaml", "DownloadAttempts: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("TempPath: C:\\Temp\\bundle\nCacheTTLHours: 1\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, `C:\Temp\bundle`, cfg.TempDir())
	assert.Equal(t, time.Hour, cfg.CacheTTL())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Config.yaml")
	cfg := GetDefaultConfig()
	cfg.DownloadAttempts = 2

	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.DownloadAttempts)
}

func TestTempDirDefaultsToOSTemp(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Equal(t, os.TempDir(), cfg.TempDir())
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.Apps)

	chrome, ok := c.Lookup("CHROME")
	require.True(t, ok)
	assert.Equal(t, SourceOmaha, chrome.Source)
	assert.Equal(t, "/silent /install", chrome.Args)

	vlc, ok := c.Lookup("vlc")
	require.True(t, ok)
	assert.Equal(t, SourceVideoLAN, vlc.Source)

	for _, app := range c.Apps {
		if app.Source == SourceDirect {
			assert.NotEmpty(t, app.URL, app.ID)
		}
	}
}

func TestParseJSONIgnoresUnknownFields(t *testing.T) {
	doc := `{
  "apps": [
    {"id": "7zip", "name": "7-Zip", "source": "direct", "url": "https://example.com/7z.exe",
     "sha256": "sha256:ABC", "icon": "7zip.png", "category": "tools"},
    {"id": "notes", "source": "Direct"}
  ]
}`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, c.Apps, 2)

	assert.Equal(t, "sha256:ABC", c.Apps[0].SHA256)
	assert.Equal(t, "7-Zip", c.Apps[0].DisplayName())

	notes := c.Apps[1]
	assert.Empty(t, notes.URL)
	assert.Empty(t, notes.Args)
	assert.Nil(t, notes.BlockingApps)
	assert.Equal(t, "notes", notes.DisplayName())
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"missing id":     "apps:\n  - name: x\n    source: direct\n",
		"missing source": "apps:\n  - id: x\n",
		"duplicate id":   "apps:\n  - id: x\n    source: direct\n  - id: X\n    source: omaha\n",
		"malformed":      "apps: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"apps":[{"id":"a","source":"direct","url":"https://e/a.exe"}]}`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Lookup("a")
	assert.True(t, ok)

	_, ok = c.Lookup("b")
	assert.False(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, def.Apps)
}

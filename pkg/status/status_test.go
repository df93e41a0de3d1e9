package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/appbundle/pkg/catalog"
)

func TestOutcomeHappyPath(t *testing.T) {
	o := NewOutcome()
	s, msg := o.Snapshot()
	assert.Equal(t, NotStarted, s)
	assert.Empty(t, msg)

	require.NoError(t, o.Transition(Downloading, "Resolving download URL..."))
	require.NoError(t, o.Transition(Downloading, "Downloading..."))
	assert.Equal(t, "Downloading...", o.Message())
	require.NoError(t, o.Transition(Installing, "Installing..."))
	require.NoError(t, o.Transition(Done, "Installed successfully"))
	assert.Equal(t, Done, o.Status())
	assert.True(t, o.Status().Terminal())
}

func TestOutcomeRejectsRegression(t *testing.T) {
	tests := []struct {
		name  string
		path  []Status
		to    Status
		allow bool
	}{
		{"back to not started", []Status{Downloading}, NotStarted, false},
		{"installing to downloading", []Status{Downloading, Installing}, Downloading, false},
		{"done from downloading", []Status{Downloading}, Done, false},
		{"skip after start", []Status{Downloading}, Skipped, false},
		{"skip before start", nil, Skipped, true},
		{"fail from not started", nil, Failed, true},
		{"fail from installing", []Status{Downloading, Installing}, Failed, true},
		{"terminal is final", []Status{Failed}, Failed, false},
		{"skipped is final", []Status{Skipped}, Downloading, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOutcome()
			for _, s := range tt.path {
				require.NoError(t, o.Transition(s, ""))
			}
			err := o.Transition(tt.to, "x")
			if tt.allow {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Installing", Installing.String())
	assert.Equal(t, "Skipped", Skipped.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestSupportsArchitecture(t *testing.T) {
	assert.True(t, SupportsArchitecture(catalog.Item{}, "arm64"))
	assert.True(t, SupportsArchitecture(catalog.Item{Arch: "x64"}, "amd64"))
	assert.True(t, SupportsArchitecture(catalog.Item{Arch: "x86"}, "x64"))
	assert.True(t, SupportsArchitecture(catalog.Item{Arch: "x64,arm64"}, "arm64"))
	assert.False(t, SupportsArchitecture(catalog.Item{Arch: "x64"}, "arm64"))
	assert.False(t, SupportsArchitecture(catalog.Item{Arch: "arm64"}, "x86"))
}

func TestParseRegistryPath(t *testing.T) {
	root, path, err := ParseRegistryPath(`HKLM\SOFTWARE\VideoLAN\VLC`)
	require.NoError(t, err)
	assert.Equal(t, LocalMachine, root)
	assert.Equal(t, `SOFTWARE\VideoLAN\VLC`, path)

	root, path, err = ParseRegistryPath(`HKEY_CURRENT_USER\Software\RustDesk\`)
	require.NoError(t, err)
	assert.Equal(t, CurrentUser, root)
	assert.Equal(t, `Software\RustDesk`, path)

	root, _, err = ParseRegistryPath(`hklm:/SOFTWARE/Zoom`)
	require.NoError(t, err)
	assert.Equal(t, LocalMachine, root)

	_, _, err = ParseRegistryPath(`HKXX\SOFTWARE`)
	assert.Error(t, err)
	_, _, err = ParseRegistryPath(`HKLM`)
	assert.Error(t, err)
}

func TestHostDetectorEmptyKey(t *testing.T) {
	installed, err := NewHostDetector().IsInstalled("  ")
	require.NoError(t, err)
	assert.False(t, installed)

	_, err = NewHostDetector().IsInstalled(`BOGUS\key`)
	assert.Error(t, err)
}

package blocking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windowsadmins/appbundle/pkg/catalog"
)

func fakeLister(procs ...ProcessInfo) Lister {
	return func() ([]ProcessInfo, error) { return procs, nil }
}

func TestRunningAppsMatching(t *testing.T) {
	c := NewChecker(fakeLister(
		ProcessInfo{Name: "chrome.exe", Exe: `C:\Program Files\Google\Chrome\Application\chrome.exe`},
		ProcessInfo{Name: "Zoom.exe", Exe: `C:\Users\me\AppData\Roaming\Zoom\bin\Zoom.exe`},
	))

	assert.Equal(t, []string{"Chrome"}, c.RunningApps([]string{"Chrome"}))
	assert.Equal(t, []string{"ZOOM.EXE"}, c.RunningApps([]string{"ZOOM.EXE"}))
	assert.Equal(t, []string{`C:\Program Files\Google\Chrome\Application\chrome.exe`},
		c.RunningApps([]string{`C:\Program Files\Google\Chrome\Application\chrome.exe`}))
	assert.Empty(t, c.RunningApps([]string{"vlc", "vlc.exe", `C:\vlc\vlc.exe`}))
	assert.Nil(t, c.RunningApps(nil))
}

func TestRunningAppsListerFailure(t *testing.T) {
	c := NewChecker(func() ([]ProcessInfo, error) { return nil, errors.New("access denied") })
	assert.Nil(t, c.RunningApps([]string{"chrome"}))
}

func TestBlockingApplicationsRunning(t *testing.T) {
	c := NewChecker(fakeLister(ProcessInfo{Name: "chrome.exe"}))

	assert.Equal(t, []string{"chrome.exe"},
		c.BlockingApplicationsRunning(catalog.Item{ID: "chrome", BlockingApps: []string{"chrome.exe", "vlc.exe"}}))
	assert.Nil(t, c.BlockingApplicationsRunning(catalog.Item{ID: "7zip"}))
}

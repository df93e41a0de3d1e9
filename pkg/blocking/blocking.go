// pkg/blocking/blocking.go - detects applications that must be closed before an install

package blocking

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/logging"
)

// ProcessInfo is the subset of a running process used for matching.
type ProcessInfo struct {
	Name string
	Exe  string
}

// Lister enumerates running processes.
type Lister func() ([]ProcessInfo, error)

// SystemProcesses lists processes through gopsutil. Processes whose name
// cannot be read are skipped.
func SystemProcesses() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	infos := make([]ProcessInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		info := ProcessInfo{Name: name}
		if exe, err := proc.Exe(); err == nil {
			info.Exe = exe
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// matches applies the lookup rules: a value with a path separator is
// compared to the full executable path, a value ending in .exe to the
// process name, anything else to the name with or without .exe.
func matches(appName string, proc ProcessInfo) bool {
	want := strings.ToLower(strings.TrimSpace(appName))
	if want == "" {
		return false
	}
	name := strings.ToLower(proc.Name)

	switch {
	case strings.ContainsAny(want, `/\`):
		return proc.Exe != "" && strings.EqualFold(filepath.Clean(proc.Exe), filepath.Clean(appName))
	case strings.HasSuffix(want, ".exe"):
		return name == want
	default:
		return name == want || name == want+".exe"
	}
}

// Checker finds which of an item's blocking applications are running.
type Checker struct {
	list Lister
}

// NewChecker uses list, or SystemProcesses when nil.
func NewChecker(list Lister) *Checker {
	if list == nil {
		list = SystemProcesses
	}
	return &Checker{list: list}
}

// RunningApps returns the names from names that match a running process,
// in input order. A process listing failure is logged and reported as
// nothing running.
func (c *Checker) RunningApps(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	procs, err := c.list()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return nil
	}

	var running []string
	for _, appName := range names {
		for _, proc := range procs {
			if matches(appName, proc) {
				logging.Debug("Found running app", "app", appName, "process", proc.Name)
				running = append(running, appName)
				break
			}
		}
	}
	return running
}

// BlockingApplicationsRunning reports the item's blocking applications that
// are currently running.
func (c *Checker) BlockingApplicationsRunning(item catalog.Item) []string {
	if len(item.BlockingApps) == 0 {
		return nil
	}
	running := c.RunningApps(item.BlockingApps)
	if len(running) > 0 {
		logging.Info("Blocking applications are running", "item", item.ID, "running_apps", running)
	}
	return running
}

// RunningApps checks names against the live process table.
func RunningApps(names []string) []string {
	return NewChecker(nil).RunningApps(names)
}

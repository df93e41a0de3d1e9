// pkg/status/detect.go - host facts used to exclude applications before a run.

package status

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/windowsadmins/appbundle/pkg/catalog"
)

// Detector answers the questions asked when planning a run.
type Detector interface {
	SystemArchitecture() string
	IsInstalled(detectKey string) (bool, error)
}

// HostDetector inspects the local machine.
type HostDetector struct{}

func NewHostDetector() *HostDetector {
	return &HostDetector{}
}

// SystemArchitecture returns x64, x86, arm64 or the raw GOARCH.
func (HostDetector) SystemArchitecture() string {
	if arch := queryProcessorArchitecture(); arch != "" {
		return arch
	}
	return GetSystemArchitecture()
}

// IsInstalled reports whether the registry key named by detectKey exists.
// An empty key means "unknown" and reports false.
func (HostDetector) IsInstalled(detectKey string) (bool, error) {
	if strings.TrimSpace(detectKey) == "" {
		return false, nil
	}
	root, path, err := ParseRegistryPath(detectKey)
	if err != nil {
		return false, err
	}
	return registryKeyExists(root, path)
}

// GetSystemArchitecture returns a normalized string for the running binary's arch
func GetSystemArchitecture() string {
	return normalizeArch(runtime.GOARCH)
}

// SupportsArchitecture checks if sysArch satisfies item.Arch. Items without
// an arch run anywhere; x86 installers also run on x64.
func SupportsArchitecture(item catalog.Item, sysArch string) bool {
	if strings.TrimSpace(item.Arch) == "" {
		return true
	}
	sys := normalizeArch(sysArch)
	for _, arch := range strings.Split(item.Arch, ",") {
		want := normalizeArch(arch)
		if want == sys || (want == "x86" && sys == "x64") {
			return true
		}
	}
	return false
}

func normalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch arch {
	case "amd64", "x86_64", "x64":
		return "x64"
	case "386", "i386", "x86":
		return "x86"
	case "aarch64", "arm64":
		return "arm64"
	}
	return arch
}

// RegistryRoot identifies a predefined hive.
type RegistryRoot string

const (
	LocalMachine  RegistryRoot = "HKLM"
	CurrentUser   RegistryRoot = "HKCU"
	ClassesRoot   RegistryRoot = "HKCR"
	Users         RegistryRoot = "HKU"
	CurrentConfig RegistryRoot = "HKCC"
)

// ParseRegistryPath splits `HKLM\SOFTWARE\VideoLAN\VLC` (or the long
// HKEY_LOCAL_MACHINE form) into a root and subkey path.
func ParseRegistryPath(key string) (RegistryRoot, string, error) {
	key = strings.Trim(strings.ReplaceAll(strings.TrimSpace(key), "/", `\`), `\`)
	head, rest, _ := strings.Cut(key, `\`)

	var root RegistryRoot
	switch strings.ToUpper(strings.TrimSuffix(head, ":")) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		root = LocalMachine
	case "HKCU", "HKEY_CURRENT_USER":
		root = CurrentUser
	case "HKCR", "HKEY_CLASSES_ROOT":
		root = ClassesRoot
	case "HKU", "HKEY_USERS":
		root = Users
	case "HKCC", "HKEY_CURRENT_CONFIG":
		root = CurrentConfig
	default:
		return "", "", fmt.Errorf("unknown registry root in %q", key)
	}

	rest = strings.Trim(rest, `\`)
	if rest == "" {
		return "", "", fmt.Errorf("registry key %q has no subkey", key)
	}
	return root, rest, nil
}

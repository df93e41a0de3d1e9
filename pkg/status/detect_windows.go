//go:build windows

package status

import (
	"errors"
	"fmt"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/appbundle/pkg/logging"
)

// Win32_Processor holds the fields queried for architecture detection
type Win32_Processor struct {
	Architecture uint16 `wmi:"Architecture"`
}

// queryProcessorArchitecture asks WMI for the processor architecture so an
// x86 build running under WOW64 still reports the real machine.
func queryProcessorArchitecture() string {
	var processors []Win32_Processor
	if err := wmi.Query("SELECT Architecture FROM Win32_Processor", &processors); err != nil {
		logging.Debug("WMI processor query failed", "error", err)
		return ""
	}
	if len(processors) == 0 {
		return ""
	}
	switch processors[0].Architecture {
	case 0:
		return "x86"
	case 9:
		return "x64"
	case 12:
		return "arm64"
	default:
		return ""
	}
}

func registryKeyExists(root RegistryRoot, path string) (bool, error) {
	var hive registry.Key
	switch root {
	case LocalMachine:
		hive = registry.LOCAL_MACHINE
	case CurrentUser:
		hive = registry.CURRENT_USER
	case ClassesRoot:
		hive = registry.CLASSES_ROOT
	case Users:
		hive = registry.USERS
	case CurrentConfig:
		hive = registry.CURRENT_CONFIG
	default:
		return false, fmt.Errorf("unsupported registry root %s", root)
	}

	// Check the 64-bit view first, then the 32-bit one where 32-bit
	// installers register themselves.
	for _, view := range []uint32{registry.WOW64_64KEY, registry.WOW64_32KEY} {
		key, err := registry.OpenKey(hive, path, registry.QUERY_VALUE|view)
		if err == nil {
			key.Close()
			return true, nil
		}
		if !errors.Is(err, registry.ErrNotExist) {
			return false, fmt.Errorf("opening %s\\%s: %w", root, path, err)
		}
	}
	return false, nil
}

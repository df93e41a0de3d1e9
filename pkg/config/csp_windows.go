//go:build windows

package config

import (
	"fmt"
	"log"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

// LoadConfigFromCSP loads configuration from registry policy settings.
// This serves as a fallback when the Config.yaml file doesn't exist.
func LoadConfigFromCSP() (*Configuration, error) {
	config := GetDefaultConfig()

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, CSPRegistryPath, registry.READ)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSP registry key %s: %w", CSPRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "CatalogPath", &config.CatalogPath)
	loadStringFromRegistry(key, "TempPath", &config.TempPath)
	loadStringFromRegistry(key, "LogsPath", &config.LogsPath)
	loadStringFromRegistry(key, "LogLevel", &config.LogLevel)
	loadStringFromRegistry(key, "UserAgent", &config.UserAgent)
	loadStringFromRegistry(key, "DefaultInstallArgs", &config.DefaultInstallArgs)
	loadStringFromRegistry(key, "OmahaURL", &config.OmahaURL)
	loadStringFromRegistry(key, "MirrorURL", &config.MirrorURL)

	loadIntFromRegistry(key, "HTTPTimeoutSeconds", &config.HTTPTimeoutSeconds)
	loadIntFromRegistry(key, "DownloadTimeoutMinutes", &config.DownloadTimeoutMinutes)
	loadIntFromRegistry(key, "DownloadAttempts", &config.DownloadAttempts)
	loadIntFromRegistry(key, "CacheTTLHours", &config.CacheTTLHours)
	loadIntFromRegistry(key, "InstallerTimeoutMinutes", &config.InstallerTimeoutMinutes)

	loadBoolFromRegistry(key, "Debug", &config.Debug)
	loadBoolFromRegistry(key, "Verbose", &config.Verbose)
	loadBoolFromRegistry(key, "AllowUnverified", &config.AllowUnverified)

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CSP configuration: %w", err)
	}
	return config, nil
}

// loadStringFromRegistry loads a string value from registry if it exists.
func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
		log.Printf("CSP: Loaded %s = %s", valueName, val)
	}
}

// loadBoolFromRegistry accepts "true"/"false", "1"/"0" strings or a DWORD.
func loadBoolFromRegistry(key registry.Key, valueName string, target *bool) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.ParseBool(val); parseErr == nil {
			*target = parsed
			log.Printf("CSP: Loaded %s = %t", valueName, parsed)
			return
		}
	}

	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = val != 0
		log.Printf("CSP: Loaded %s = %t", valueName, val != 0)
	}
}

// loadIntFromRegistry loads an integer value stored as a string or DWORD.
func loadIntFromRegistry(key registry.Key, valueName string, target *int) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.Atoi(val); parseErr == nil {
			*target = parsed
			log.Printf("CSP: Loaded %s = %d", valueName, parsed)
			return
		}
	}

	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = int(val)
		log.Printf("CSP: Loaded %s = %d", valueName, int(val))
	}
}

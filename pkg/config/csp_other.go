//go:build !windows

package config

import "errors"

// LoadConfigFromCSP is only meaningful on Windows.
func LoadConfigFromCSP() (*Configuration, error) {
	return nil, errors.New("registry policy settings are only available on Windows")
}

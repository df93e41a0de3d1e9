// pkg/config/config.go - configuration settings for AppBundle.

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const ConfigPath = `C:\ProgramData\AppBundle\Config.yaml`

// Registry path for enterprise policy configuration
const CSPRegistryPath = `SOFTWARE\AppBundle\Config`

// DefaultUserAgent is sent with every outbound request. Some vendors serve
// different content (or nothing) to non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	DefaultOmahaURL  = "https://dl.google.com/chrome/install/ChromeStandaloneSetup64.exe"
	DefaultMirrorURL = "https://get.videolan.org/vlc/last/win64/"

	// DefaultInstallArgs is the NSIS/Inno silent switch.
	DefaultInstallArgs = "/S"
)

// Configuration holds the configurable options for AppBundle in YAML format
type Configuration struct {
	CatalogPath string `yaml:"CatalogPath"` // empty => embedded catalog
	TempPath    string `yaml:"TempPath"`    // empty => os.TempDir()
	LogsPath    string `yaml:"LogsPath"`
	LogLevel    string `yaml:"LogLevel"`
	Debug       bool   `yaml:"Debug"`
	Verbose     bool   `yaml:"Verbose"`
	UserAgent   string `yaml:"UserAgent"`

	// Network settings
	HTTPTimeoutSeconds     int `yaml:"HTTPTimeoutSeconds"`     // Resolution requests (HEAD, listings, digest files)
	DownloadTimeoutMinutes int `yaml:"DownloadTimeoutMinutes"` // Whole installer transfer
	DownloadAttempts       int `yaml:"DownloadAttempts"`       // Transport failures only; HTTP status errors never retry

	// Resolution cache freshness window
	CacheTTLHours int `yaml:"CacheTTLHours"`

	// AllowUnverified permits installing when no digest could be resolved.
	AllowUnverified bool `yaml:"AllowUnverified"`

	InstallerTimeoutMinutes int    `yaml:"InstallerTimeoutMinutes"`
	DefaultInstallArgs      string `yaml:"DefaultInstallArgs"`

	// Resolver endpoints
	OmahaURL  string `yaml:"OmahaURL"`
	MirrorURL string `yaml:"MirrorURL"`
}

// LoadConfig loads the configuration from a YAML file.
// If the YAML file doesn't exist, it falls back to registry policy settings,
// and finally to the built-in defaults.
func LoadConfig(path string) (*Configuration, error) {
	if path == "" {
		path = ConfigPath
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		config, cspErr := LoadConfigFromCSP()
		if cspErr == nil {
			log.Printf("Loaded configuration from registry policy settings")
			return config, nil
		}
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration file %s: %w", path, err)
	}
	return config, nil
}

// Parse decodes YAML on top of the defaults so omitted keys keep their
// default values.
func Parse(data []byte) (*Configuration, error) {
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Configuration) error {
	if path == "" {
		path = ConfigPath
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return &Configuration{
		LogsPath:                filepath.Join(programData, "AppBundle", "logs"),
		LogLevel:                "INFO",
		UserAgent:               DefaultUserAgent,
		HTTPTimeoutSeconds:      30,
		DownloadTimeoutMinutes:  30,
		DownloadAttempts:        3,
		CacheTTLHours:           6,
		AllowUnverified:         true,
		InstallerTimeoutMinutes: 60,
		DefaultInstallArgs:      DefaultInstallArgs,
		OmahaURL:                DefaultOmahaURL,
		MirrorURL:               DefaultMirrorURL,
	}
}

// applyDefaults fills values that an explicit empty/zero entry would
// otherwise disable.
func (c *Configuration) applyDefaults() {
	def := GetDefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.LogsPath == "" {
		c.LogsPath = def.LogsPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DefaultInstallArgs == "" {
		c.DefaultInstallArgs = def.DefaultInstallArgs
	}
	if c.OmahaURL == "" {
		c.OmahaURL = def.OmahaURL
	}
	if c.MirrorURL == "" {
		c.MirrorURL = def.MirrorURL
	}
}

// Validate checks numeric settings are within usable bounds.
func (c *Configuration) Validate() error {
	switch {
	case c.HTTPTimeoutSeconds <= 0:
		return fmt.Errorf("HTTPTimeoutSeconds must be positive, got %d", c.HTTPTimeoutSeconds)
	case c.DownloadTimeoutMinutes <= 0:
		return fmt.Errorf("DownloadTimeoutMinutes must be positive, got %d", c.DownloadTimeoutMinutes)
	case c.DownloadAttempts < 1 || c.DownloadAttempts > 10:
		return fmt.Errorf("DownloadAttempts must be between 1 and 10, got %d", c.DownloadAttempts)
	case c.CacheTTLHours <= 0:
		return fmt.Errorf("CacheTTLHours must be positive, got %d", c.CacheTTLHours)
	case c.InstallerTimeoutMinutes <= 0:
		return fmt.Errorf("InstallerTimeoutMinutes must be positive, got %d", c.InstallerTimeoutMinutes)
	}
	return nil
}

func (c *Configuration) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Configuration) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutMinutes) * time.Minute
}

func (c *Configuration) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

func (c *Configuration) InstallerTimeout() time.Duration {
	return time.Duration(c.InstallerTimeoutMinutes) * time.Minute
}

// TempDir returns the directory transient installer artifacts are written to.
func (c *Configuration) TempDir() string {
	if c.TempPath != "" {
		return c.TempPath
	}
	return os.TempDir()
}

// pkg/catalog/catalog.go - application descriptors offered by AppBundle.

package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed apps.yaml
var defaultCatalog []byte

// Source values understood by the resolver. Matching is case-insensitive.
const (
	SourceOmaha    = "omaha"
	SourceVideoLAN = "videolan"
	SourceDirect   = "direct"
)

// Item describes one installable application. Items are read-only once
// loaded.
type Item struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Arch         string   `yaml:"arch,omitempty"`
	URL          string   `yaml:"url,omitempty"`
	Args         string   `yaml:"args,omitempty"`
	Detect       string   `yaml:"detect,omitempty"` // registry key whose presence means installed
	SHA256       string   `yaml:"sha256,omitempty"`
	BlockingApps []string `yaml:"blocking_apps,omitempty"`
}

// DisplayName falls back to the ID for unnamed entries.
func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// Catalog is the root document.
type Catalog struct {
	Apps []Item `yaml:"apps"`
}

// Default returns the catalog packaged with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from disk, or the packaged one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML or JSON catalog and validates entry identities.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Apps))
	for idx, app := range c.Apps {
		if strings.TrimSpace(app.ID) == "" {
			return nil, fmt.Errorf("entry %d has no id", idx)
		}
		if strings.TrimSpace(app.Source) == "" {
			return nil, fmt.Errorf("entry %q has no source", app.ID)
		}
		key := strings.ToLower(app.ID)
		if seen[key] {
			return nil, fmt.Errorf("duplicate entry id %q", app.ID)
		}
		seen[key] = true
	}
	return &c, nil
}

// Lookup finds an item by ID (case-insensitive).
func (c *Catalog) Lookup(id string) (Item, bool) {
	for _, app := range c.Apps {
		if strings.EqualFold(app.ID, id) {
			return app, true
		}
	}
	return Item{}, false
}

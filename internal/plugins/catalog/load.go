package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"softcenter/internal/domain"
)

// Entry is one package described in the catalog file
type Entry struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Summary   string   `yaml:"summary"`
	Version   string   `yaml:"version"`
	Homepage  string   `yaml:"homepage"`
	Keywords  []string `yaml:"keywords"`
	Installed bool     `yaml:"installed"`
}

// Item converts the entry for display
func (e Entry) Item() domain.Item {
	return domain.Item{
		ID:        e.ID,
		Name:      e.Name,
		Summary:   e.Summary,
		Version:   e.Version,
		Homepage:  e.Homepage,
		Installed: e.Installed,
	}
}

type file struct {
	Packages []Entry `yaml:"packages"`
}

// Load reads a catalog file. Entries without an id are rejected, later
// duplicates of an id are dropped.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML
func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Packages))
	entries := make([]Entry, 0, len(f.Packages))
	for i, e := range f.Packages {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i+1)
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if e.Name == "" {
			e.Name = e.ID
		}
		entries = append(entries, e)
	}
	return entries, nil
}

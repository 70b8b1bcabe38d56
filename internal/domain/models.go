package domain

import "strings"

// Item represents a single package offered by a backend plugin
type Item struct {
	ID        string
	Name      string
	Summary   string
	Version   string
	Homepage  string
	Source    string // name of the plugin that produced the item
	Installed bool
}

// DisplayName returns the name shown in result rows, falling back to the ID
func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// PopulationFilter selects which kind of population a plugin performs
type PopulationFilter int

const (
	FilterSearch PopulationFilter = iota
	FilterInstalled
)

func (f PopulationFilter) String() string {
	switch f {
	case FilterSearch:
		return "search"
	case FilterInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// NormalizeQuery trims the raw search box text. An empty result means "no search".
func NormalizeQuery(text string) string {
	return strings.TrimSpace(text)
}

// MatchesQuery reports whether any of the item's text fields contains the query, case-insensitively
func (i Item) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range []string{i.ID, i.Name, i.Summary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

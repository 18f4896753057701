package domain

import "strings"

// MatchOverride pins a show name to a TMDB id. Entries with a zero
// TMDB id are placeholders waiting to be filled in by hand.
type MatchOverride struct {
	Name   string `yaml:"name"`
	TmdbID int    `yaml:"tmdbid"`
}

// MatchOverrides is the manual mapping file seeded from the not-found
// ledger. The resolver consults it before the cache and the network.
type MatchOverrides struct {
	Overrides []MatchOverride `yaml:"overrides"`
}

// Lookup returns the pinned TMDB id for a name, case-insensitively.
// A nil receiver and unfilled entries both report no override.
func (m *MatchOverrides) Lookup(name string) (int, bool) {
	if m == nil {
		return 0, false
	}
	for _, o := range m.Overrides {
		if o.TmdbID > 0 && strings.EqualFold(o.Name, name) {
			return o.TmdbID, true
		}
	}
	return 0, false
}

// Has reports whether a name already has an entry, filled or not.
func (m *MatchOverrides) Has(name string) bool {
	if m == nil {
		return false
	}
	for _, o := range m.Overrides {
		if strings.EqualFold(o.Name, name) {
			return true
		}
	}
	return false
}

// Add appends a placeholder entry for a name if none exists.
func (m *MatchOverrides) Add(name string, tmdbID int) {
	if m.Has(name) {
		return
	}
	m.Overrides = append(m.Overrides, MatchOverride{Name: name, TmdbID: tmdbID})
}

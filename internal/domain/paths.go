package domain

import "path/filepath"

const (
	StateFile     = "editor-state.json"
	LedgerFile    = "not-found.json"
	OverridesFile = "match-overrides.yaml"
)

// Paths holds the on-disk locations for run state under the root path.
type Paths struct {
	RootDir       string
	StatePath     string
	LedgerPath    string
	OverridesPath string
}

// NewPaths creates a Paths instance rooted at rootDir.
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:       rootDir,
		StatePath:     filepath.Join(rootDir, StateFile),
		LedgerPath:    filepath.Join(rootDir, LedgerFile),
		OverridesPath: filepath.Join(rootDir, OverridesFile),
	}
}

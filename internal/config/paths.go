package config

import (
	"path"
	"path/filepath"
)

// DefaultBranch is the branch every repository starts on.
const DefaultBranch = "main"

// StateDirName is the directory below the working root holding all state.
const StateDirName = ".cvs"

// RepositoryConfig locates every piece of persisted repository state. Paths
// other than Root are slash separated and relative to Root.
type RepositoryConfig struct {
	Root         string // absolute working tree root
	StateDir     string
	BranchesDir  string
	LogDir       string
	StagingFile  string
	IgnoreFile   string
	SettingsFile string
	IndexFile    string
}

// NewRepositoryConfig returns the standard layout for a working tree at root.
func NewRepositoryConfig(root string) RepositoryConfig {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	state := StateDirName
	return RepositoryConfig{
		Root:         root,
		StateDir:     state,
		BranchesDir:  path.Join(state, "branches"),
		LogDir:       path.Join(state, "branches_log"),
		StagingFile:  path.Join(state, "staging_area.json"),
		IgnoreFile:   path.Join(state, "ignore.toml"),
		SettingsFile: path.Join(state, "config.yaml"),
		IndexFile:    path.Join(state, "index.db"),
	}
}

// BranchDir is the commit storage directory of a branch.
func (c RepositoryConfig) BranchDir(branch string) string {
	return path.Join(c.BranchesDir, branch)
}

// CommitStoragePath is where commit id on branch keeps its copy of rel,
// relative to the state directory.
func (c RepositoryConfig) CommitStoragePath(branch, id, rel string) string {
	return path.Join("branches", branch, id, rel)
}

// BranchStagingFile is where a branch's staging area is kept while another
// branch is checked out.
func (c RepositoryConfig) BranchStagingFile(branch string) string {
	return path.Join(c.BranchDir(branch), "staging_area.json")
}

// LogFile is the serialized branch log of a branch.
func (c RepositoryConfig) LogFile(branch string) string {
	return path.Join(c.LogDir, branch+".json")
}

// StatePath resolves a path recorded relative to the state directory.
func (c RepositoryConfig) StatePath(rel string) string {
	return path.Join(c.StateDir, rel)
}

// OSPath converts a root-relative path into a host path.
func (c RepositoryConfig) OSPath(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

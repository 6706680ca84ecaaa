// Package shelf keeps each branch's staging area while another branch is
// checked out. Switching back restores the exact classification the branch
// was left with.
package shelf

import (
	"errors"
	"fmt"
	"os"

	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/fsadapter"
	"github.com/javanhut/cvs/internal/staging"
)

// ShelfManager reads and writes per-branch staging areas.
type ShelfManager struct {
	fs  *fsadapter.Adapter
	cfg config.RepositoryConfig
}

// NewShelfManager creates a new shelf manager.
func NewShelfManager(fs *fsadapter.Adapter, cfg config.RepositoryConfig) *ShelfManager {
	return &ShelfManager{fs: fs, cfg: cfg}
}

// Save shelves area under branch.
func (sm *ShelfManager) Save(branch string, area *staging.Area) error {
	shelved := area.Clone()
	shelved.CurrentBranch = branch
	if err := staging.Save(sm.fs, sm.cfg.BranchStagingFile(branch), shelved); err != nil {
		return fmt.Errorf("shelve staging area of %s: %w", branch, err)
	}
	return nil
}

// Load returns the shelved staging area of branch. The boolean is false when
// nothing has been shelved for it yet.
func (sm *ShelfManager) Load(branch string) (*staging.Area, bool, error) {
	area, err := staging.Load(sm.fs, sm.cfg.BranchStagingFile(branch))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load shelved staging area of %s: %w", branch, err)
	}
	area.CurrentBranch = branch
	return area, true, nil
}

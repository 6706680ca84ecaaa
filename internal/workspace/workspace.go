// Package workspace materializes commit snapshots into the working tree.
package workspace

import (
	"fmt"
	"path"
	"slices"

	"go.uber.org/zap"

	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/fsadapter"
	"github.com/javanhut/cvs/internal/objects"
)

// Materializer handles workspace materialization operations.
type Materializer struct {
	fs      *fsadapter.Adapter
	cfg     config.RepositoryConfig
	ignored fsadapter.IgnoreFunc
	log     *zap.Logger
}

// NewMaterializer creates a new Materializer. Paths for which ignored
// returns true are never touched.
func NewMaterializer(fs *fsadapter.Adapter, cfg config.RepositoryConfig, ignored fsadapter.IgnoreFunc, log *zap.Logger) *Materializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materializer{fs: fs, cfg: cfg, ignored: ignored, log: log}
}

// CleanWorkspace removes every non-ignored file and the directories left
// empty by that.
func (m *Materializer) CleanWorkspace() error {
	files, err := m.fs.Files(".", m.ignored)
	if err != nil {
		return fmt.Errorf("failed to scan workspace: %w", err)
	}
	for _, p := range files {
		if err := m.fs.Remove(p); err != nil {
			return err
		}
	}
	if err := m.fs.PruneEmptyDirs(".", m.ignored); err != nil {
		return err
	}
	m.log.Debug("cleaned workspace", zap.Int("removed", len(files)))
	return nil
}

// MaterializeSnapshot writes every present entry of s to its path.
func (m *Materializer) MaterializeSnapshot(s branchlog.Snapshot) error {
	paths := make([]string, 0, len(s))
	for p, e := range s {
		if e.Present() {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)

	for _, p := range paths {
		if err := m.Restore(p, s[p]); err != nil {
			return err
		}
	}
	m.log.Debug("materialized snapshot", zap.Int("files", len(paths)))
	return nil
}

// Restore writes the committed content of e to p.
func (m *Materializer) Restore(p string, e branchlog.FileEntry) error {
	if !e.Present() {
		return fmt.Errorf("cannot restore %s: entry is a deletion marker", p)
	}
	if err := objects.Restore(m.fs, m.cfg.StatePath(e.StoredPath), p, e.Compression); err != nil {
		return fmt.Errorf("failed to restore %s: %w", p, err)
	}
	return nil
}

// Remove deletes p and any parent directories it leaves empty.
func (m *Materializer) Remove(p string) error {
	if err := m.fs.Remove(p); err != nil {
		return err
	}
	m.removeEmptyDirectories(path.Dir(p))
	return nil
}

// removeEmptyDirectories removes empty directories up the tree.
func (m *Materializer) removeEmptyDirectories(dir string) {
	for dir != "." && dir != "/" && dir != "" {
		entries, err := m.fs.Filesystem().ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := m.fs.Filesystem().Remove(dir); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

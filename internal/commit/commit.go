// Package commit builds commit snapshots from the staging area and replays
// the file-level effect of one commit onto another branch.
//
// Building never touches branch logs. Callers store the content copies with
// Store and only then append the commit to a log.
package commit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/fsadapter"
	"github.com/javanhut/cvs/internal/objects"
	"github.com/javanhut/cvs/internal/staging"
)

// CommitBuilder creates commits for one repository.
type CommitBuilder struct {
	fs  *fsadapter.Adapter
	cfg config.RepositoryConfig
	log *zap.Logger

	Compression objects.Compression
	Author      string
	Now         func() time.Time
	NewID       func() (string, error)
}

// NewCommitBuilder creates a new CommitBuilder.
func NewCommitBuilder(fs *fsadapter.Adapter, cfg config.RepositoryConfig, log *zap.Logger) *CommitBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommitBuilder{
		fs:    fs,
		cfg:   cfg,
		log:   log,
		Now:   time.Now,
		NewID: NewID,
	}
}

// NewID returns a time-ordered UUIDv7 commit id.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate commit id: %w", err)
	}
	return id.String(), nil
}

func (cb *CommitBuilder) newCommit(branch, message string, parent *branchlog.Commit) (*branchlog.Commit, error) {
	id, err := cb.NewID()
	if err != nil {
		return nil, err
	}
	c := &branchlog.Commit{
		ID:      id,
		Message: message,
		Time:    cb.Now(),
		Branch:  branch,
		Author:  cb.Author,
		Files:   make(branchlog.Snapshot),
	}
	if parent != nil {
		c.ParentCommitID = parent.ID
		c.ParentCommitBranch = parent.Branch
	}
	return c, nil
}

// Build creates a commit on branch from a reconciled staging area. parent is
// the branch's last commit, or nil for the first commit of a lineage.
//
// The snapshot starts from parent's present files marked Unchanged. Modified
// and Deleted paths are dropped; New and Modified paths are hashed again and
// given a storage path inside the new commit. Deleted paths the parent
// tracked are kept as deletion markers. area is not modified.
func (cb *CommitBuilder) Build(branch, message string, area *staging.Area, parent *branchlog.Commit) (*branchlog.Commit, error) {
	c, err := cb.newCommit(branch, message, parent)
	if err != nil {
		return nil, err
	}

	var prev branchlog.Snapshot
	if parent != nil {
		prev = parent.Files.Baseline()
	}
	for p, e := range prev {
		c.Files[p] = e
	}

	for _, p := range area.Paths(staging.Deleted) {
		delete(c.Files, p)
		if e, ok := prev[p]; ok {
			c.Files[p] = branchlog.FileEntry{Hash: e.Hash, Status: staging.Deleted}
		}
	}

	for _, status := range []staging.FileStatus{staging.New, staging.Modified} {
		for _, p := range area.Paths(status) {
			h, err := cb.fs.HashFile(p)
			if err != nil {
				return nil, err
			}
			c.Files[p] = branchlog.FileEntry{
				StoredPath:  cb.cfg.CommitStoragePath(branch, c.ID, cb.Compression.StoredName(p)),
				Hash:        h,
				Status:      status,
				Compression: cb.Compression,
			}
		}
	}

	cb.log.Debug("built commit",
		zap.String("id", c.ID),
		zap.String("branch", branch),
		zap.Int("files", len(c.Files)))
	return c, nil
}

// Store copies the working-tree content of every file c introduced into
// its commit storage directory. Entries adopted from other commits are left
// where they are. On failure the partial storage directory is removed.
func (cb *CommitBuilder) Store(c *branchlog.Commit) error {
	own := cb.cfg.CommitStoragePath(c.Branch, c.ID, "")
	dir := cb.cfg.StatePath(own)

	paths := make([]string, 0, len(c.Files))
	for p, e := range c.Files {
		if e.Present() && strings.HasPrefix(e.StoredPath, own+"/") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	for _, p := range paths {
		e := c.Files[p]
		if err := objects.Store(cb.fs, p, cb.cfg.StatePath(e.StoredPath), e.Compression); err != nil {
			if rmErr := cb.fs.RemoveAll(dir); rmErr != nil {
				cb.log.Warn("failed to clean partial commit storage", zap.String("dir", dir), zap.Error(rmErr))
			}
			return fmt.Errorf("store %s: %w", p, err)
		}
		cb.log.Debug("stored file", zap.String("path", p), zap.String("stored", e.StoredPath))
	}
	return nil
}

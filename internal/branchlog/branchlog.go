// Package branchlog persists the commit history of each branch and resolves
// the last commit a branch builds on.
package branchlog

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/javanhut/cvs/internal/digest"
	"github.com/javanhut/cvs/internal/objects"
	"github.com/javanhut/cvs/internal/staging"
)

// FileEntry records one path of a commit snapshot.
type FileEntry struct {
	// StoredPath locates the committed content relative to the state
	// directory. It is empty for Deleted markers.
	StoredPath  string              `json:"stored_path"`
	Hash        digest.Hash         `json:"hash"`
	Status      staging.FileStatus  `json:"status"`
	Compression objects.Compression `json:"compression,omitempty"`
}

// Present reports whether the entry describes a file that exists at the
// commit, as opposed to a deletion marker.
func (e FileEntry) Present() bool {
	return e.Status != staging.Deleted
}

// Snapshot maps working-tree paths to their committed entries.
type Snapshot map[string]FileEntry

// Tracks reports whether path is present in the snapshot.
func (s Snapshot) Tracks(path string) bool {
	e, ok := s[path]
	return ok && e.Present()
}

// Hashes returns the content hash of every present path.
func (s Snapshot) Hashes() map[string]digest.Hash {
	out := make(map[string]digest.Hash, len(s))
	for p, e := range s {
		if e.Present() {
			out[p] = e.Hash
		}
	}
	return out
}

// Baseline returns a copy holding only present entries, each marked
// Unchanged.
func (s Snapshot) Baseline() Snapshot {
	out := make(Snapshot, len(s))
	for p, e := range s {
		if e.Present() {
			e.Status = staging.Unchanged
			out[p] = e
		}
	}
	return out
}

// Commit is an immutable snapshot plus metadata. Only Message may change
// after creation.
type Commit struct {
	ID                 string    `json:"id"`
	Message            string    `json:"message"`
	Time               time.Time `json:"time"`
	ParentCommitID     string    `json:"parent_commit_id,omitempty"`
	ParentCommitBranch string    `json:"parent_commit_branch,omitempty"`
	Branch             string    `json:"branch"`
	Author             string    `json:"author,omitempty"`
	Files              Snapshot  `json:"files"`
}

// Log is the history of a single branch.
type Log struct {
	Branch         string             `json:"branch"`
	ParentBranch   string             `json:"parent_branch,omitempty"`
	ParentCommitID string             `json:"parent_commit_id,omitempty"`
	Head           string             `json:"head,omitempty"`
	Commits        map[string]*Commit `json:"commits"`
}

// NewLog returns an empty log forked from parentBranch at parentCommit.
// Both are empty for a root branch.
func NewLog(branch, parentBranch, parentCommit string) *Log {
	return &Log{
		Branch:         branch,
		ParentBranch:   parentBranch,
		ParentCommitID: parentCommit,
		Commits:        make(map[string]*Commit),
	}
}

// Clone returns a copy of l whose commit map can be extended without
// affecting l. Commits themselves are shared.
func (l *Log) Clone() *Log {
	c := *l
	c.Commits = maps.Clone(l.Commits)
	if c.Commits == nil {
		c.Commits = make(map[string]*Commit)
	}
	return &c
}

// Append records c and makes it the head.
func (l *Log) Append(c *Commit) {
	l.Commits[c.ID] = c
	l.Head = c.ID
}

// HeadCommit returns the branch's own latest commit, or nil.
func (l *Log) HeadCommit() *Commit {
	if l.Head == "" {
		return nil
	}
	return l.Commits[l.Head]
}

// History walks back from the head while commits stay on this branch.
func (l *Log) History() []*Commit {
	var out []*Commit
	seen := make(map[string]bool)
	for c := l.HeadCommit(); c != nil && !seen[c.ID]; {
		seen[c.ID] = true
		out = append(out, c)
		if c.ParentCommitBranch != l.Branch {
			break
		}
		c = l.Commits[c.ParentCommitID]
	}
	return out
}

// ValidateName checks that name can be used as a branch and file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("branch name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid branch name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("branch name %q contains a path separator", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("branch name %q starts with a dot", name)
	}
	return nil
}

package branchlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/fsadapter"
)

// ErrCommitNotFound is returned when no branch log holds a commit id.
var ErrCommitNotFound = errors.New("commit not found")

// Store reads and writes branch logs under the repository's log directory.
type Store struct {
	fs    *fsadapter.Adapter
	cfg   config.RepositoryConfig
	cache map[string]*Log
}

// NewStore creates a store over fs using the layout in cfg.
func NewStore(fs *fsadapter.Adapter, cfg config.RepositoryConfig) *Store {
	return &Store{fs: fs, cfg: cfg, cache: make(map[string]*Log)}
}

// Exists reports whether a log for branch has been written.
func (s *Store) Exists(branch string) (bool, error) {
	if _, ok := s.cache[branch]; ok {
		return true, nil
	}
	return s.fs.Exists(s.cfg.LogFile(branch))
}

// Load returns the log of branch.
func (s *Store) Load(branch string) (*Log, error) {
	if l, ok := s.cache[branch]; ok {
		return l, nil
	}
	data, err := s.fs.ReadFile(s.cfg.LogFile(branch))
	if err != nil {
		return nil, fmt.Errorf("read branch log %s: %w", branch, err)
	}
	l := &Log{}
	if err := json.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parse branch log %s: %w", branch, err)
	}
	if l.Commits == nil {
		l.Commits = make(map[string]*Commit)
	}
	s.cache[branch] = l
	return l, nil
}

// Save persists l atomically.
func (s *Store) Save(l *Log) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode branch log %s: %w", l.Branch, err)
	}
	if err := s.fs.WriteFileAtomic(s.cfg.LogFile(l.Branch), data); err != nil {
		return err
	}
	s.cache[l.Branch] = l
	return nil
}

// List returns every branch that has a log, sorted by name.
func (s *Store) List() ([]string, error) {
	entries, err := s.fs.Filesystem().ReadDir(s.cfg.LogDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branch logs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Resolve returns the last commit branch builds on: its head, otherwise
// the fork-point commit in its parent branch. It returns nil when the
// lineage has no commit yet.
func (s *Store) Resolve(branch string) (*Commit, error) {
	l, err := s.Load(branch)
	if err != nil {
		return nil, err
	}
	if c := l.HeadCommit(); c != nil {
		return c, nil
	}
	if l.ParentBranch == "" || l.ParentCommitID == "" {
		return nil, nil
	}
	return s.FindCommit(l.ParentBranch, l.ParentCommitID)
}

// FindCommit returns commit id from branch's log, following the fork point
// into ancestor branches when branch does not hold it.
func (s *Store) FindCommit(branch, id string) (*Commit, error) {
	visited := make(map[string]bool)
	for branch != "" && !visited[branch] {
		visited[branch] = true
		l, err := s.Load(branch)
		if err != nil {
			return nil, err
		}
		if c, ok := l.Commits[id]; ok {
			return c, nil
		}
		branch = l.ParentBranch
	}
	return nil, fmt.Errorf("%s: %w", id, ErrCommitNotFound)
}

// Locate scans every branch log for commit id.
func (s *Store) Locate(id string) (*Commit, error) {
	branches, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		l, err := s.Load(b)
		if err != nil {
			return nil, err
		}
		if c, ok := l.Commits[id]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrCommitNotFound)
}

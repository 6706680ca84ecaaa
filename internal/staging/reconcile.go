package staging

import (
	"errors"
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/javanhut/cvs/internal/digest"
)

var (
	// ErrNotFound is returned by Add for a path the area does not know.
	ErrNotFound = errors.New("path not found")
	// ErrNotUntracked is returned by Add for a path that is already tracked.
	ErrNotUntracked = errors.New("path is not untracked")
)

// HashFunc computes the content hash of a working-tree path.
type HashFunc func(path string) (digest.Hash, error)

// Reconcile reclassifies every path against the working tree and the hashes
// of the last commit's snapshot (nil when the branch has no commit yet).
//
// Paths previously New, Unchanged or Modified are hashed and compared with
// last: equal is Unchanged, different is Modified, absent is New. Anything
// else found on disk is Untracked. Unchanged or Modified paths missing from
// disk become Deleted, a Deleted path stays Deleted while missing, and a New
// path that vanished is forgotten. A Deleted path that reappears is
// Untracked until it is added again.
//
// The area is left untouched when walking or hashing fails.
func (a *Area) Reconcile(paths iter.Seq2[string, error], hash HashFunc, last map[string]digest.Hash) error {
	var next [numStatuses]PathSet
	for s := range next {
		next[s] = PathSet{}
	}

	present := PathSet{}
	for p, err := range paths {
		if err != nil {
			return fmt.Errorf("walk working tree: %w", err)
		}
		present[p] = struct{}{}

		prev, ok := a.StatusOf(p)
		known := ok && (prev == New || prev == Unchanged || prev == Modified)
		if !known {
			next[Untracked][p] = struct{}{}
			continue
		}

		committed, tracked := last[p]
		if !tracked {
			next[New][p] = struct{}{}
			continue
		}
		h, err := hash(p)
		if err != nil {
			return fmt.Errorf("hash %s: %w", p, err)
		}
		if h == committed {
			next[Unchanged][p] = struct{}{}
		} else {
			next[Modified][p] = struct{}{}
		}
	}

	for _, s := range []FileStatus{Unchanged, Modified, Deleted} {
		for p := range a.files[s] {
			if _, ok := present[p]; !ok {
				next[Deleted][p] = struct{}{}
			}
		}
	}

	a.files = next
	return nil
}

// Add promotes Untracked paths to New. With all set every Untracked path is
// promoted and paths is ignored. Otherwise each path must currently be
// Untracked; the whole batch is validated before anything moves.
func (a *Area) Add(paths []string, all bool) error {
	if all {
		for p := range a.files[Untracked] {
			a.files[New][p] = struct{}{}
		}
		a.files[Untracked] = PathSet{}
		return nil
	}

	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		p = CleanPath(p)
		status, ok := a.StatusOf(p)
		switch {
		case !ok:
			return fmt.Errorf("%s: %w", p, ErrNotFound)
		case status != Untracked:
			return fmt.Errorf("%s is %s: %w", p, strings.ToLower(status.String()), ErrNotUntracked)
		}
		cleaned = append(cleaned, p)
	}

	for _, p := range cleaned {
		a.Set(p, New)
	}
	return nil
}

// CleanPath normalises a user supplied relative path to the stored form.
func CleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

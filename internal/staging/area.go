// Package staging tracks the classification of every working-tree path
// relative to the current branch's last commit.
package staging

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// PathSet is a set of slash-separated working-tree paths.
type PathSet map[string]struct{}

// Sorted returns the members of the set in lexical order.
func (s PathSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Area is the live staging record. A path belongs to at most one status.
type Area struct {
	CurrentBranch string
	files         [numStatuses]PathSet
}

// NewArea returns an empty staging area on branch.
func NewArea(branch string) *Area {
	a := &Area{CurrentBranch: branch}
	a.Reset()
	return a
}

// StatusOf returns the status recorded for path.
func (a *Area) StatusOf(path string) (FileStatus, bool) {
	for s := range a.files {
		if _, ok := a.files[s][path]; ok {
			return FileStatus(s), true
		}
	}
	return 0, false
}

// Set records path under status, removing it from any other status.
func (a *Area) Set(path string, status FileStatus) {
	a.Remove(path)
	a.files[status][path] = struct{}{}
}

// Remove forgets path entirely.
func (a *Area) Remove(path string) {
	for s := range a.files {
		delete(a.files[s], path)
	}
}

// Has reports whether path is recorded under status.
func (a *Area) Has(status FileStatus, path string) bool {
	_, ok := a.files[status][path]
	return ok
}

// Paths returns the sorted paths recorded under status.
func (a *Area) Paths(status FileStatus) []string {
	return a.files[status].Sorted()
}

// Len returns the number of paths recorded under status.
func (a *Area) Len(status FileStatus) int {
	return len(a.files[status])
}

// HasPending reports whether any New, Modified or Deleted entries exist.
func (a *Area) HasPending() bool {
	return a.Len(New)+a.Len(Modified)+a.Len(Deleted) > 0
}

// Clear empties the given status sets.
func (a *Area) Clear(statuses ...FileStatus) {
	for _, s := range statuses {
		a.files[s] = PathSet{}
	}
}

// Reset empties every status set. The next reconciliation repopulates them.
func (a *Area) Reset() {
	for s := range a.files {
		a.files[s] = PathSet{}
	}
}

// Move reassigns every path under from to to.
func (a *Area) Move(from, to FileStatus) {
	for p := range a.files[from] {
		a.files[to][p] = struct{}{}
	}
	a.files[from] = PathSet{}
}

// Clone returns a deep copy of a.
func (a *Area) Clone() *Area {
	c := &Area{CurrentBranch: a.CurrentBranch}
	for s := range a.files {
		c.files[s] = maps.Clone(a.files[s])
	}
	return c
}

// Equal reports whether a and b hold the same branch and classification.
func (a *Area) Equal(b *Area) bool {
	if a.CurrentBranch != b.CurrentBranch {
		return false
	}
	for s := range a.files {
		if !maps.Equal(a.files[s], b.files[s]) {
			return false
		}
	}
	return true
}

type areaJSON struct {
	CurrentBranch string                  `json:"current_branch"`
	StagingFiles  map[FileStatus][]string `json:"staging_files"`
}

func (a *Area) MarshalJSON() ([]byte, error) {
	out := areaJSON{
		CurrentBranch: a.CurrentBranch,
		StagingFiles:  make(map[FileStatus][]string, numStatuses),
	}
	for s := range a.files {
		out.StagingFiles[FileStatus(s)] = a.files[s].Sorted()
	}
	return json.Marshal(out)
}

func (a *Area) UnmarshalJSON(data []byte) error {
	var in areaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.CurrentBranch == "" {
		return fmt.Errorf("staging area has no current_branch")
	}
	a.CurrentBranch = in.CurrentBranch
	a.Reset()
	for s, paths := range in.StagingFiles {
		for _, p := range paths {
			if prev, ok := a.StatusOf(p); ok {
				return fmt.Errorf("path %s recorded as both %s and %s", p, prev, s)
			}
			a.files[s][p] = struct{}{}
		}
	}
	return nil
}

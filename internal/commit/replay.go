package commit

import (
	"slices"

	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/staging"
)

// Pick describes the effect of replaying a source commit onto a baseline.
type Pick struct {
	// Commit is the new commit carrying the merged snapshot.
	Commit *branchlog.Commit
	// Restore lists paths whose content now comes from the source commit.
	Restore []string
	// Remove lists paths the source commit deleted.
	Remove []string
	// Skipped lists Modified entries for paths the baseline does not track.
	Skipped []string
}

// CherryPick replays src onto the last commit of branch (base, possibly nil).
//
// The baseline is base's present files marked Unchanged. New entries of src,
// and Modified entries for paths the baseline tracks, are adopted with their
// stored content; Deleted entries for tracked paths are removed. A Modified
// entry for a path the baseline does not track is skipped. The new commit
// carries src's message and extends base. src and base are not modified.
func (cb *CommitBuilder) CherryPick(branch string, base, src *branchlog.Commit) (*Pick, error) {
	c, err := cb.newCommit(branch, src.Message, base)
	if err != nil {
		return nil, err
	}

	var baseline branchlog.Snapshot
	if base != nil {
		baseline = base.Files.Baseline()
	}
	for p, e := range baseline {
		c.Files[p] = e
	}

	pick := &Pick{Commit: c}
	paths := make([]string, 0, len(src.Files))
	for p := range src.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		e := src.Files[p]
		prev, tracked := baseline[p]
		switch {
		case e.Status == staging.New || (e.Status == staging.Modified && tracked):
			status := staging.Modified
			switch {
			case !tracked:
				status = staging.New
			case prev.Hash == e.Hash:
				status = staging.Unchanged
			}
			c.Files[p] = branchlog.FileEntry{
				StoredPath:  e.StoredPath,
				Hash:        e.Hash,
				Status:      status,
				Compression: e.Compression,
			}
			pick.Restore = append(pick.Restore, p)
		case e.Status == staging.Modified:
			pick.Skipped = append(pick.Skipped, p)
		case e.Status == staging.Deleted && tracked:
			c.Files[p] = branchlog.FileEntry{Hash: prev.Hash, Status: staging.Deleted}
			pick.Remove = append(pick.Remove, p)
		}
	}
	return pick, nil
}

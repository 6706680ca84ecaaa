package repo

import (
	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/staging"
)

// StatusOrder is the order in which status sections are reported.
var StatusOrder = []staging.FileStatus{
	staging.New,
	staging.Modified,
	staging.Deleted,
	staging.Unchanged,
	staging.Untracked,
}

// Section lists the paths of one status.
type Section struct {
	Status string   `json:"status"`
	Paths  []string `json:"paths"`
}

// StatusReport is the reconciled state of the working tree.
type StatusReport struct {
	Branch   string    `json:"branch"`
	Sections []Section `json:"sections"`
}

// Status reconciles the staging area, persists it and reports every
// non-empty status.
func (r *Repository) Status() (*StatusReport, error) {
	if err := r.reconcile(); err != nil {
		return nil, err
	}
	if err := r.saveArea(); err != nil {
		return nil, err
	}

	report := &StatusReport{Branch: r.area.CurrentBranch, Sections: []Section{}}
	for _, s := range StatusOrder {
		if paths := r.area.Paths(s); len(paths) > 0 {
			report.Sections = append(report.Sections, Section{Status: s.String(), Paths: paths})
		}
	}
	return report, nil
}

// BranchHistory is the own commit history of one branch, newest first.
type BranchHistory struct {
	Branch  string
	Commits []*branchlog.Commit
}

// Log returns the history of every branch, sorted by branch name.
func (r *Repository) Log() ([]BranchHistory, error) {
	branches, err := r.logs.List()
	if err != nil {
		return nil, err
	}
	out := make([]BranchHistory, 0, len(branches))
	for _, b := range branches {
		l, err := r.logs.Load(b)
		if err != nil {
			return nil, err
		}
		out = append(out, BranchHistory{Branch: b, Commits: l.History()})
	}
	return out, nil
}

// LastCommit returns the commit the current branch builds on, or nil.
func (r *Repository) LastCommit() (*branchlog.Commit, error) {
	return r.lastCommit()
}

// BranchLog returns the stored log of branch.
func (r *Repository) BranchLog(branch string) (*branchlog.Log, error) {
	return r.logs.Load(branch)
}

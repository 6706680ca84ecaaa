package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/ignore"
	"github.com/javanhut/cvs/internal/staging"
)

// AllPaths is the Add argument that stages every untracked path.
const AllPaths = "."

// Add stages untracked paths as New. A single AllPaths argument stages every
// untracked path. Paths are relative to the working root.
func (r *Repository) Add(paths []string) error {
	if err := r.reconcile(); err != nil {
		return err
	}

	all := len(paths) == 1 && staging.CleanPath(paths[0]) == AllPaths
	if err := r.area.Add(paths, all); err != nil {
		if errors.Is(err, staging.ErrNotFound) || errors.Is(err, staging.ErrNotUntracked) {
			return newError(AddError, err, "cannot add")
		}
		return err
	}
	r.log.Debug("staged paths", zap.Strings("paths", paths), zap.Bool("all", all))
	return r.saveArea()
}

// AddDir stages every untracked path below dir, a root-relative directory.
// AllPaths stages the whole working tree.
func (r *Repository) AddDir(dir string) error {
	dir = staging.CleanPath(dir)
	if dir == AllPaths {
		return r.Add([]string{AllPaths})
	}
	if err := r.reconcile(); err != nil {
		return err
	}
	var paths []string
	for _, p := range r.area.Paths(staging.Untracked) {
		if strings.HasPrefix(p, dir+"/") {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return r.saveArea()
	}
	return r.Add(paths)
}

// Reset clears every status set. The next reconciliation repopulates them.
func (r *Repository) Reset() error {
	r.area.Reset()
	return r.saveArea()
}

// Commit records the pending New, Modified and Deleted paths as a new commit
// on the current branch.
func (r *Repository) Commit(message string) (*branchlog.Commit, error) {
	if err := r.reconcile(); err != nil {
		return nil, err
	}
	if !r.area.HasPending() {
		return nil, newError(CommitError, nil, "nothing to commit")
	}

	branch := r.area.CurrentBranch
	parent, err := r.lastCommit()
	if err != nil {
		return nil, err
	}
	log, err := r.logs.Load(branch)
	if err != nil {
		return nil, err
	}

	c, err := r.builder.Build(branch, message, r.area, parent)
	if err != nil {
		return nil, err
	}
	if err := r.builder.Store(c); err != nil {
		return nil, err
	}

	next := log.Clone()
	next.Append(c)
	if err := r.logs.Save(next); err != nil {
		return nil, err
	}

	r.area.Move(staging.New, staging.Unchanged)
	r.area.Move(staging.Modified, staging.Unchanged)
	r.area.Clear(staging.Deleted)
	if err := r.saveArea(); err != nil {
		return nil, err
	}
	r.indexCommit(c)

	r.log.Info("committed", zap.String("id", c.ID), zap.String("branch", branch), zap.Int("files", len(c.Files)))
	return c, nil
}

// UpdateMessage replaces the message of commit id.
func (r *Repository) UpdateMessage(id, message string) error {
	c, err := r.locate(id)
	if err != nil {
		return err
	}
	l, err := r.logs.Load(c.Branch)
	if err != nil {
		return err
	}

	renamed := *c
	renamed.Message = message
	next := l.Clone()
	next.Commits[id] = &renamed
	return r.logs.Save(next)
}

// Branch creates branch name forked at the current branch's last commit and
// switches to it. The working tree is left as it is.
func (r *Repository) Branch(name string) error {
	if err := branchlog.ValidateName(name); err != nil {
		return newError(BranchError, err, "invalid branch name")
	}
	exists, err := r.branchExists(name)
	if err != nil {
		return err
	}
	if exists {
		return newError(BranchError, nil, "branch '%s' already exists", name)
	}
	if err := r.reconcile(); err != nil {
		return err
	}
	last, err := r.lastCommit()
	if err != nil {
		return err
	}
	if last == nil {
		return newError(BranchError, nil, "branch '%s' has no commits to fork from", r.area.CurrentBranch)
	}

	if err := r.logs.Save(branchlog.NewLog(name, last.Branch, last.ID)); err != nil {
		return err
	}
	if err := r.fs.MkdirAll(r.cfg.BranchDir(name)); err != nil {
		return err
	}
	if err := r.shelves.Save(r.area.CurrentBranch, r.area); err != nil {
		return err
	}

	from := r.area.CurrentBranch
	r.area.CurrentBranch = name
	if err := r.saveArea(); err != nil {
		return err
	}
	r.log.Info("created branch", zap.String("branch", name), zap.String("from", from), zap.String("at", last.ID))
	return nil
}

func (r *Repository) branchExists(name string) (bool, error) {
	if ok, err := r.logs.Exists(name); err != nil || ok {
		return ok, err
	}
	return r.fs.Exists(r.cfg.BranchDir(name))
}

// Checkout switches the working tree and staging area to branch name.
// Every non-ignored file is removed first, untracked ones included; the
// target's last commit is then written back.
func (r *Repository) Checkout(name string) error {
	if err := branchlog.ValidateName(name); err != nil {
		return newError(CheckoutError, err, "invalid branch name")
	}
	exists, err := r.logs.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return newError(CheckoutError, nil, "branch '%s' does not exist", name)
	}
	if name == r.area.CurrentBranch {
		return newError(CheckoutError, nil, "already on branch '%s'", name)
	}
	if err := r.reconcile(); err != nil {
		return err
	}
	if r.area.HasPending() {
		return newError(CheckoutError, nil, "uncommitted changes on branch '%s'", r.area.CurrentBranch)
	}

	target, err := r.logs.Resolve(name)
	if err != nil {
		return err
	}
	next, ok, err := r.shelves.Load(name)
	if err != nil {
		return err
	}
	if !ok {
		next = staging.NewArea(name)
		if target != nil {
			for p := range target.Files.Hashes() {
				next.Set(p, staging.Unchanged)
			}
		}
	}

	if err := r.shelves.Save(r.area.CurrentBranch, r.area); err != nil {
		return err
	}
	if err := r.ws.CleanWorkspace(); err != nil {
		return err
	}
	if target != nil {
		if err := r.ws.MaterializeSnapshot(target.Files); err != nil {
			return err
		}
	}

	from := r.area.CurrentBranch
	r.area = next
	if err := r.reconcile(); err != nil {
		return err
	}
	if err := r.saveArea(); err != nil {
		return err
	}
	r.log.Info("checked out", zap.String("branch", name), zap.String("from", from))
	return nil
}

// CherryPick applies the file-level changes of commit id onto the current
// branch as a new commit. The source branch is not modified. Pending New,
// Modified, Deleted and Untracked entries are cleared; files left on disk
// come back as Untracked on the next reconciliation.
func (r *Repository) CherryPick(id string) (*branchlog.Commit, error) {
	src, err := r.locate(id)
	if err != nil {
		return nil, err
	}
	if err := r.reconcile(); err != nil {
		return nil, err
	}
	base, err := r.lastCommit()
	if err != nil {
		return nil, err
	}
	if base != nil && base.ID == src.ID {
		return nil, newError(CherryPickError, nil, "cannot cherry-pick current commit %s", id)
	}
	branch := r.area.CurrentBranch
	log, err := r.logs.Load(branch)
	if err != nil {
		return nil, err
	}
	pick, err := r.builder.CherryPick(branch, base, src)
	if err != nil {
		return nil, err
	}
	if err := r.builder.Store(pick.Commit); err != nil {
		return nil, err
	}

	for _, p := range pick.Restore {
		if err := r.ws.Restore(p, pick.Commit.Files[p]); err != nil {
			return nil, err
		}
	}
	for _, p := range pick.Remove {
		if err := r.ws.Remove(p); err != nil {
			return nil, err
		}
	}

	next := log.Clone()
	next.Append(pick.Commit)
	if err := r.logs.Save(next); err != nil {
		return nil, err
	}

	for _, p := range pick.Restore {
		r.area.Set(p, staging.Unchanged)
	}
	for _, p := range pick.Remove {
		r.area.Remove(p)
	}
	r.area.Clear(staging.New, staging.Modified, staging.Deleted, staging.Untracked)
	if err := r.saveArea(); err != nil {
		return nil, err
	}
	r.indexCommit(pick.Commit)

	if len(pick.Skipped) > 0 {
		r.log.Info("skipped modified paths not tracked on this branch", zap.Strings("paths", pick.Skipped))
	}
	r.log.Info("cherry-picked", zap.String("source", src.ID), zap.String("id", pick.Commit.ID), zap.String("branch", branch))
	return pick.Commit, nil
}

// Exclude adds explicit file names to the ignore rules and returns how many
// were new.
func (r *Repository) Exclude(names ...string) (int, error) {
	rules := r.matcher.Rules()
	added := rules.AddFiles(names...)
	if added == 0 {
		return 0, nil
	}
	if err := ignore.Save(r.fs, r.cfg.IgnoreFile, rules); err != nil {
		return 0, fmt.Errorf("save ignore rules: %w", err)
	}
	r.matcher = ignore.NewMatcher(r.cfg.StateDir, rules)
	return added, nil
}

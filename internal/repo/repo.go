// Package repo ties the engine together: every top-level operation
// reconciles the staging area against the working tree, performs its
// transition and persists the result.
//
// A Repository holds an exclusive lock on the repository index while open.
// Close releases it.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/javanhut/cvs/internal/branchlog"
	"github.com/javanhut/cvs/internal/commit"
	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/digest"
	"github.com/javanhut/cvs/internal/fsadapter"
	"github.com/javanhut/cvs/internal/ignore"
	"github.com/javanhut/cvs/internal/objects"
	"github.com/javanhut/cvs/internal/shelf"
	"github.com/javanhut/cvs/internal/staging"
	"github.com/javanhut/cvs/internal/store"
	"github.com/javanhut/cvs/internal/workspace"
)

// FormatVersion is recorded in the index when a repository is created.
const FormatVersion = "1"

// Repository is an open cvs working tree.
type Repository struct {
	cfg config.RepositoryConfig
	log *zap.Logger

	fs      *fsadapter.Adapter
	matcher *ignore.Matcher
	logs    *branchlog.Store
	shelves *shelf.ShelfManager
	builder *commit.CommitBuilder
	ws      *workspace.Materializer
	index   *store.Index

	area *staging.Area
}

type options struct {
	logger   *zap.Logger
	settings *config.Settings
	now      func() time.Time
	newID    func() (string, error)
}

// Option configures Init and Open.
type Option func(*options)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSettings uses s instead of loading settings from disk.
func WithSettings(s *config.Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithClock sets the time source for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the commit id source.
func WithIDGenerator(f func() (string, error)) Option {
	return func(o *options) { o.newID = f }
}

// FindRoot returns the closest directory at or above start that contains an
// initialized repository.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		cfg := config.NewRepositoryConfig(dir)
		if _, err := os.Stat(cfg.OSPath(cfg.StagingFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", newError(RepositoryNotInitialized, nil, "no repository found at or above %s", start)
		}
		dir = parent
	}
}

// Init creates a repository in root and opens it.
func Init(root string, opts ...Option) (*Repository, error) {
	cfg := config.NewRepositoryConfig(root)
	fs := fsadapter.NewOS(cfg.Root)

	exists, err := fs.Exists(cfg.StagingFile)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newError(AlreadyInitialized, nil, "repository already initialized in %s", cfg.Root)
	}

	for _, dir := range []string{cfg.StateDir, cfg.BranchDir(config.DefaultBranch), cfg.LogDir} {
		if err := fs.MkdirAll(dir); err != nil {
			return nil, err
		}
	}

	if ok, err := fs.Exists(cfg.IgnoreFile); err != nil {
		return nil, err
	} else if !ok {
		if err := ignore.Save(fs, cfg.IgnoreFile, ignore.DefaultRules()); err != nil {
			return nil, err
		}
	}

	logs := branchlog.NewStore(fs, cfg)
	if err := logs.Save(branchlog.NewLog(config.DefaultBranch, "", "")); err != nil {
		return nil, err
	}

	index, err := store.OpenIndex(cfg.OSPath(cfg.IndexFile))
	if err != nil {
		return nil, err
	}
	if err := index.PutMeta("format", FormatVersion); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("record format: %w", err)
	}
	if err := index.Close(); err != nil {
		return nil, fmt.Errorf("close index: %w", err)
	}

	// The staging file marks the repository as initialized, so it is
	// written last.
	if err := staging.Save(fs, cfg.StagingFile, staging.NewArea(config.DefaultBranch)); err != nil {
		return nil, err
	}

	return Open(cfg.Root, opts...)
}

// Open opens the repository whose working tree is root.
func Open(root string, opts ...Option) (*Repository, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	cfg := config.NewRepositoryConfig(root)
	fs := fsadapter.NewOS(cfg.Root)

	area, err := staging.Load(fs, cfg.StagingFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, newError(RepositoryNotInitialized, nil, "no repository in %s", cfg.Root)
	}
	if err != nil {
		return nil, fmt.Errorf("load staging area: %w", err)
	}

	settings := o.settings
	if settings == nil {
		if settings, err = config.LoadSettings(cfg); err != nil {
			return nil, err
		}
	}
	compression, err := objects.ParseCompression(settings.Storage.Compression)
	if err != nil {
		return nil, err
	}

	rules, err := ignore.Load(fs, cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}

	index, err := store.OpenIndex(cfg.OSPath(cfg.IndexFile))
	if err != nil {
		return nil, err
	}

	r := &Repository{
		cfg:     cfg,
		log:     o.logger,
		fs:      fs,
		matcher: ignore.NewMatcher(cfg.StateDir, rules),
		logs:    branchlog.NewStore(fs, cfg),
		shelves: shelf.NewShelfManager(fs, cfg),
		index:   index,
		area:    area,
	}
	r.builder = commit.NewCommitBuilder(fs, cfg, o.logger)
	r.builder.Compression = compression
	r.builder.Author = settings.User.Name
	if o.now != nil {
		r.builder.Now = o.now
	}
	if o.newID != nil {
		r.builder.NewID = o.newID
	}
	r.ws = workspace.NewMaterializer(fs, cfg, r.isIgnored, o.logger)

	if format, err := index.GetMeta("format"); err != nil || format == "" {
		if err := r.Reindex(); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Close releases the repository lock.
func (r *Repository) Close() error {
	return r.index.Close()
}

// Config returns the repository layout.
func (r *Repository) Config() config.RepositoryConfig { return r.cfg }

// CurrentBranch returns the checked out branch.
func (r *Repository) CurrentBranch() string { return r.area.CurrentBranch }

// Area returns a copy of the live staging area.
func (r *Repository) Area() *staging.Area { return r.area.Clone() }

// IsIgnored reports whether a root-relative path is excluded from tracking.
func (r *Repository) IsIgnored(rel string) bool { return r.isIgnored(rel) }

func (r *Repository) isIgnored(rel string) bool {
	return r.matcher.IsIgnored(rel)
}

// Reindex rebuilds the commit index from the branch logs.
func (r *Repository) Reindex() error {
	branches, err := r.logs.List()
	if err != nil {
		return err
	}
	entries := make(map[string]string)
	for _, b := range branches {
		l, err := r.logs.Load(b)
		if err != nil {
			return err
		}
		for id := range l.Commits {
			entries[id] = b
		}
	}
	if err := r.index.Rebuild(entries); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if err := r.index.PutMeta("format", FormatVersion); err != nil {
		return fmt.Errorf("record format: %w", err)
	}
	r.log.Info("rebuilt commit index", zap.Int("commits", len(entries)))
	return nil
}

// lastCommit resolves the commit the current branch builds on.
func (r *Repository) lastCommit() (*branchlog.Commit, error) {
	return r.logs.Resolve(r.area.CurrentBranch)
}

// reconcile refreshes the live staging area from the working tree.
func (r *Repository) reconcile() error {
	last, err := r.lastCommit()
	if err != nil {
		return err
	}
	var hashes map[string]digest.Hash
	if last != nil {
		hashes = last.Files.Hashes()
	}
	return r.area.Reconcile(r.fs.Walk(".", r.isIgnored), r.fs.HashFile, hashes)
}

func (r *Repository) saveArea() error {
	return staging.Save(r.fs, r.cfg.StagingFile, r.area)
}

// locate finds a commit in any branch, using the index when it knows the id.
func (r *Repository) locate(id string) (*branchlog.Commit, error) {
	if branch, err := r.index.Lookup(id); err == nil {
		if c, err := r.logs.FindCommit(branch, id); err == nil {
			return c, nil
		}
	}
	c, err := r.logs.Locate(id)
	if errors.Is(err, branchlog.ErrCommitNotFound) {
		return nil, newError(CommitNotFound, nil, "commit %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	r.indexCommit(c)
	return c, nil
}

func (r *Repository) indexCommit(c *branchlog.Commit) {
	if err := r.index.Put(c.ID, c.Branch); err != nil {
		r.log.Warn("failed to index commit", zap.String("id", c.ID), zap.Error(err))
	}
}

package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/digest"
	"github.com/javanhut/cvs/internal/staging"
	"github.com/javanhut/cvs/internal/store"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s, err := config.DefaultSettings()
	require.NoError(t, err)
	return s
}

func newRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	root := t.TempDir()
	r, err := Init(root, WithSettings(testSettings(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func fileExists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(name)))
	return err == nil
}

func commitFiles(t *testing.T, r *Repository, root, message string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		writeFile(t, root, name, content)
	}
	require.NoError(t, r.Add([]string{AllPaths}))
	c, err := r.Commit(message)
	require.NoError(t, err)
	return c.ID
}

func TestScenarioEmptyStatus(t *testing.T) {
	r, _ := newRepo(t)

	report, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, "main", report.Branch)
	assert.Empty(t, report.Sections)
}

func TestScenarioFirstCommit(t *testing.T) {
	r, root := newRepo(t)
	writeFile(t, root, "a.txt", "hello")

	require.NoError(t, r.Add([]string{"a.txt"}))
	c, err := r.Commit("c1")
	require.NoError(t, err)

	area := r.Area()
	assert.Equal(t, []string{"a.txt"}, area.Paths(staging.Unchanged))
	assert.False(t, area.HasPending())

	l, err := r.BranchLog("main")
	require.NoError(t, err)
	assert.Len(t, l.Commits, 1)
	assert.Equal(t, c.ID, l.Head)
	assert.Equal(t, staging.New, l.Commits[c.ID].Files["a.txt"].Status)
	assert.Equal(t, "hello", readFile(t, root, ".cvs/"+c.Files["a.txt"].StoredPath))
}

func TestScenarioCheckoutRestoresBranchContent(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "v1"})

	require.NoError(t, r.Branch("b2"))
	assert.Equal(t, "b2", r.CurrentBranch())
	writeFile(t, root, "a.txt", "v2")
	_, err := r.Commit("c2")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("main"))
	assert.Equal(t, "v1", readFile(t, root, "a.txt"))
	assert.Equal(t, "main", r.CurrentBranch())

	require.NoError(t, r.Checkout("b2"))
	assert.Equal(t, "v2", readFile(t, root, "a.txt"))
	assert.False(t, r.Area().HasPending())
}

func TestScenarioCherryPickCurrentCommitFails(t *testing.T) {
	r, root := newRepo(t)
	c1 := commitFiles(t, r, root, "c1", map[string]string{"a.txt": "v1"})
	c2 := commitFiles(t, r, root, "c2", map[string]string{"a.txt": "v2"})
	require.NoError(t, r.Branch("b2"))

	_, err := r.CherryPick(c2)
	assert.ErrorIs(t, err, ErrCherryPick)

	picked, err := r.CherryPick(c1)
	require.NoError(t, err)
	assert.Equal(t, "c1", picked.Message)
	assert.Equal(t, c2, picked.ParentCommitID)
	assert.Equal(t, "main", picked.ParentCommitBranch)
	assert.Equal(t, "b2", picked.Branch)
	assert.Equal(t, "v1", readFile(t, root, "a.txt"))

	main, err := r.BranchLog("main")
	require.NoError(t, err)
	assert.Len(t, main.Commits, 2, "source branch is not modified")
}

func TestScenarioCherryPickRestoresDeletedFile(t *testing.T) {
	r, root := newRepo(t)
	c1 := commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a", "b.txt": "b"})

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))
	c2, err := r.Commit("c2")
	require.NoError(t, err)
	assert.False(t, c2.Files.Tracks("b.txt"))
	require.NoError(t, r.Branch("b2"))

	picked, err := r.CherryPick(c1)
	require.NoError(t, err)
	assert.Equal(t, "b", readFile(t, root, "b.txt"))
	assert.True(t, picked.Files.Tracks("b.txt"))
	assert.Equal(t, []string{"a.txt", "b.txt"}, r.Area().Paths(staging.Unchanged))

	report, err := r.Status()
	require.NoError(t, err)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, "UNCHANGED", report.Sections[0].Status)
}

func TestCherryPickAppliesDeletion(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a", "b.txt": "b"})
	require.NoError(t, r.Branch("dev"))
	require.NoError(t, r.Checkout("main"))

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))
	del, err := r.Commit("drop b")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("dev"))
	assert.True(t, fileExists(root, "b.txt"))

	_, err = r.CherryPick(del.ID)
	require.NoError(t, err)
	assert.False(t, fileExists(root, "b.txt"))
	assert.Equal(t, []string{"a.txt"}, r.Area().Paths(staging.Unchanged))
}

func TestCherryPickSkipsModifiedUntrackedPath(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"x.txt": "x1", "keep.txt": "k"})

	require.NoError(t, r.Branch("feat"))
	writeFile(t, root, "x.txt", "x2")
	f1, err := r.Commit("edit x")
	require.NoError(t, err)
	require.Equal(t, staging.Modified, f1.Files["x.txt"].Status)

	require.NoError(t, r.Checkout("main"))
	require.NoError(t, os.Remove(filepath.Join(root, "x.txt")))
	_, err = r.Commit("drop x")
	require.NoError(t, err)

	picked, err := r.CherryPick(f1.ID)
	require.NoError(t, err)
	assert.False(t, fileExists(root, "x.txt"), "modified entry for an untracked path is not resurrected")
	assert.False(t, picked.Files.Tracks("x.txt"))
	assert.True(t, picked.Files.Tracks("keep.txt"))
}

func TestCherryPickClearsPendingEntries(t *testing.T) {
	r, root := newRepo(t)
	c1 := commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a", "b.txt": "b"})
	commitFiles(t, r, root, "c2", map[string]string{"b.txt": "b2"})
	writeFile(t, root, "a.txt", "dirty")
	writeFile(t, root, "extra.txt", "extra")

	picked, err := r.CherryPick(c1)
	require.NoError(t, err)
	assert.Equal(t, "c1", picked.Message)
	assert.Equal(t, "a", readFile(t, root, "a.txt"))
	assert.Equal(t, "b", readFile(t, root, "b.txt"))
	assert.Equal(t, "extra", readFile(t, root, "extra.txt"))

	area := r.Area()
	assert.False(t, area.HasPending())
	assert.Zero(t, area.Len(staging.Untracked))
	assert.Equal(t, []string{"a.txt", "b.txt"}, area.Paths(staging.Unchanged))

	report, err := r.Status()
	require.NoError(t, err)
	got := map[string][]string{}
	for _, s := range report.Sections {
		got[s.Status] = s.Paths
	}
	assert.Equal(t, map[string][]string{"UNCHANGED": {"a.txt", "b.txt"}, "UNTRACKED": {"extra.txt"}}, got)
}

func TestReappearingDeletedFileIsUntracked(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a"})
	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))

	_, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, r.Area().Paths(staging.Deleted))

	writeFile(t, root, "a.txt", "a")
	_, err = r.Status()
	require.NoError(t, err)
	area := r.Area()
	assert.Equal(t, []string{"a.txt"}, area.Paths(staging.Untracked))
	assert.Zero(t, area.Len(staging.Unchanged))
	assert.Zero(t, area.Len(staging.Deleted))
}

func TestCommitDeletesAndModifies(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a", "dir/b.txt": "b"})

	writeFile(t, root, "a.txt", "a2")
	require.NoError(t, os.Remove(filepath.Join(root, "dir", "b.txt")))

	report, err := r.Status()
	require.NoError(t, err)
	got := map[string][]string{}
	for _, s := range report.Sections {
		got[s.Status] = s.Paths
	}
	assert.Equal(t, map[string][]string{"MODIFIED": {"a.txt"}, "DELETED": {"dir/b.txt"}}, got)

	c, err := r.Commit("c2")
	require.NoError(t, err)
	assert.Equal(t, staging.Modified, c.Files["a.txt"].Status)
	assert.Equal(t, staging.Deleted, c.Files["dir/b.txt"].Status)

	area := r.Area()
	assert.Equal(t, []string{"a.txt"}, area.Paths(staging.Unchanged))
	assert.Zero(t, area.Len(staging.Deleted))

	report, err = r.Status()
	require.NoError(t, err)
	assert.Len(t, report.Sections, 1)
}

func TestCommitStoreFailureLeavesStateUntouched(t *testing.T) {
	r, root := newRepo(t)
	first := commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a"})
	r = reopen(t, r, root, WithSettings(testSettings(t)), WithIDGenerator(func() (string, error) {
		return "blocked", nil
	}))

	writeFile(t, root, "b.txt", "b")
	require.NoError(t, r.Add([]string{"b.txt"}))
	// A file where the commit storage directory belongs makes the copy fail.
	writeFile(t, root, ".cvs/branches/main/blocked", "")

	logBefore := readFile(t, root, ".cvs/branches_log/main.json")
	stagingBefore := readFile(t, root, ".cvs/staging_area.json")

	_, err := r.Commit("c2")
	require.Error(t, err)

	assert.Equal(t, logBefore, readFile(t, root, ".cvs/branches_log/main.json"))
	assert.Equal(t, stagingBefore, readFile(t, root, ".cvs/staging_area.json"))
	assert.Equal(t, []string{"b.txt"}, r.Area().Paths(staging.New))

	last, err := r.LastCommit()
	require.NoError(t, err)
	assert.Equal(t, first, last.ID)
	l, err := r.BranchLog("main")
	require.NoError(t, err)
	assert.Len(t, l.Commits, 1)
}

func TestCommitRoundTripThroughCheckout(t *testing.T) {
	r, root := newRepo(t)
	files := map[string]string{
		"a.txt":          "alpha",
		"src/main.go":    "package main",
		"src/lib/x.go":   "package lib",
		"docs/readme.md": "# docs",
	}
	commitFiles(t, r, root, "c1", files)
	last, err := r.LastCommit()
	require.NoError(t, err)

	require.NoError(t, r.Branch("fresh"))
	writeFile(t, root, "scratch.txt", "untracked")
	require.NoError(t, r.Checkout("main"))
	require.NoError(t, r.Checkout("fresh"))
	require.NoError(t, r.Checkout("main"))

	for name, content := range files {
		assert.Equal(t, content, readFile(t, root, name))
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, last.Files[name].Hash, digest.Sum(data))
	}
	assert.False(t, fileExists(root, "scratch.txt"), "checkout clears untracked files")
}

func TestMonotonicHead(t *testing.T) {
	r, root := newRepo(t)
	var ids []string
	for i := range 5 {
		ids = append(ids, commitFiles(t, r, root, "c", map[string]string{"a.txt": string(rune('a' + i))}))
	}

	l, err := r.BranchLog("main")
	require.NoError(t, err)
	assert.Len(t, l.Commits, 5)
	assert.Equal(t, ids[4], l.Head)

	history := l.History()
	require.Len(t, history, 5)
	for i, c := range history {
		assert.Equal(t, ids[4-i], c.ID)
	}
}

func TestStatusIsIdempotentAndCovering(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a", "b.txt": "b"})
	writeFile(t, root, "a.txt", "changed")
	writeFile(t, root, "c.txt", "c")
	writeFile(t, root, "node_modules/dep.js", "ignored")

	first, err := r.Status()
	require.NoError(t, err)
	second, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	seen := map[string]int{}
	for _, s := range first.Sections {
		for _, p := range s.Paths {
			seen[p]++
		}
	}
	assert.Equal(t, map[string]int{"a.txt": 1, "b.txt": 1, "c.txt": 1}, seen)
}

func TestErrorTaxonomy(t *testing.T) {
	r, root := newRepo(t)

	_, err := Init(root, WithSettings(testSettings(t)))
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	_, err = Open(t.TempDir(), WithSettings(testSettings(t)))
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, r.Add([]string{"missing.txt"}), ErrAdd)

	_, err = r.Commit("empty")
	assert.ErrorIs(t, err, ErrCommit)

	assert.ErrorIs(t, r.Branch("dev"), ErrBranch, "no commits to fork from")

	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a"})
	assert.ErrorIs(t, r.Add([]string{"a.txt"}), ErrAdd, "already tracked")
	assert.ErrorIs(t, r.Branch("main"), ErrBranch)
	assert.ErrorIs(t, r.Branch("a/b"), ErrBranch)

	assert.ErrorIs(t, r.Checkout("nope"), ErrCheckout)
	assert.ErrorIs(t, r.Checkout("../x"), ErrCheckout)
	assert.ErrorIs(t, r.Checkout(""), ErrCheckout)
	assert.ErrorIs(t, r.Checkout("main"), ErrCheckout)

	require.NoError(t, r.Branch("dev"))
	writeFile(t, root, "a.txt", "pending")
	err = r.Checkout("main")
	assert.ErrorIs(t, err, ErrCheckout)
	assert.Equal(t, "dev", r.CurrentBranch())
	assert.Equal(t, "pending", readFile(t, root, "a.txt"))

	_, err = r.CherryPick("unknown")
	assert.ErrorIs(t, err, ErrCommitNotFound)
	assert.ErrorIs(t, r.UpdateMessage("unknown", "x"), ErrCommitNotFound)

	var repoErr *Error
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, CommitNotFound, repoErr.Kind)
	assert.NotErrorIs(t, err, ErrCheckout)
}

func TestAddValidatesWholeBatch(t *testing.T) {
	r, root := newRepo(t)
	writeFile(t, root, "a.txt", "a")

	err := r.Add([]string{"a.txt", "missing.txt"})
	assert.ErrorIs(t, err, ErrAdd)
	assert.True(t, r.Area().Has(staging.Untracked, "a.txt"))

	reopened := reopen(t, r, root)
	assert.Zero(t, reopened.Area().Len(staging.New))
}

func TestAddDirStagesOnlyBelowDirectory(t *testing.T) {
	r, root := newRepo(t)
	writeFile(t, root, "top.txt", "top")
	writeFile(t, root, "src/a.txt", "a")
	writeFile(t, root, "srcx/b.txt", "b")

	require.NoError(t, r.AddDir("src"))
	area := r.Area()
	assert.Equal(t, []string{"src/a.txt"}, area.Paths(staging.New))
	assert.Equal(t, []string{"srcx/b.txt", "top.txt"}, area.Paths(staging.Untracked))

	require.NoError(t, r.AddDir("empty"))
	require.NoError(t, r.AddDir("."))
	assert.Equal(t, []string{"src/a.txt", "srcx/b.txt", "top.txt"}, r.Area().Paths(staging.New))
}

func TestResetClearsArea(t *testing.T) {
	r, root := newRepo(t)
	writeFile(t, root, "a.txt", "a")
	require.NoError(t, r.Add([]string{AllPaths}))
	require.NoError(t, r.Reset())

	for _, s := range staging.Statuses() {
		assert.Zero(t, r.Area().Len(s))
	}
	report, err := r.Status()
	require.NoError(t, err)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, "UNTRACKED", report.Sections[0].Status)
}

func reopen(t *testing.T, r *Repository, root string, opts ...Option) *Repository {
	t.Helper()
	require.NoError(t, r.Close())
	if len(opts) == 0 {
		opts = []Option{WithSettings(testSettings(t))}
	}
	next, err := Open(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = next.Close() })
	return next
}

func TestUpdateMessagePersists(t *testing.T) {
	r, root := newRepo(t)
	id := commitFiles(t, r, root, "first", map[string]string{"a.txt": "a"})

	require.NoError(t, r.UpdateMessage(id, "renamed"))
	r = reopen(t, r, root)

	l, err := r.BranchLog("main")
	require.NoError(t, err)
	assert.Equal(t, "renamed", l.Commits[id].Message)
}

func TestIndexIsRebuiltWhenMissing(t *testing.T) {
	r, root := newRepo(t)
	id := commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a"})
	require.NoError(t, r.Close())
	require.NoError(t, os.Remove(filepath.Join(root, ".cvs", "index.db")))

	r, err := Open(root, WithSettings(testSettings(t)))
	require.NoError(t, err)
	defer r.Close()

	branch, err := r.index.Lookup(id)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestSecondOpenIsLocked(t *testing.T) {
	_, root := newRepo(t)
	_, err := Open(root, WithSettings(testSettings(t)))
	assert.ErrorIs(t, err, store.ErrLocked)
}

func TestZstdCompressedCommits(t *testing.T) {
	r, root := newRepo(t)
	settings := testSettings(t)
	settings.Storage.Compression = "zstd"
	r = reopen(t, r, root, WithSettings(settings))

	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "zstd content"})
	last, err := r.LastCommit()
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join("branches", "main", last.ID, "a.txt.zst")), last.Files["a.txt"].StoredPath)

	require.NoError(t, r.Branch("dev"))
	writeFile(t, root, "a.txt", "changed on dev")
	_, err = r.Commit("c2")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("main"))
	assert.Equal(t, "zstd content", readFile(t, root, "a.txt"))
}

func TestExcludeHidesFiles(t *testing.T) {
	r, root := newRepo(t)
	writeFile(t, root, "secret.env", "token")
	writeFile(t, root, "a.txt", "a")

	added, err := r.Exclude("secret.env")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	r = reopen(t, r, root)
	report, err := r.Status()
	require.NoError(t, err)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, []string{"a.txt"}, report.Sections[0].Paths)
}

func TestCheckoutSeedsAreaWithoutShelf(t *testing.T) {
	r, root := newRepo(t)
	commitFiles(t, r, root, "c1", map[string]string{"a.txt": "a"})
	require.NoError(t, r.Branch("dev"))
	commitFiles(t, r, root, "d1", map[string]string{"b.txt": "b"})
	require.NoError(t, r.Checkout("main"))
	require.NoError(t, os.Remove(filepath.Join(root, ".cvs", "branches", "dev", "staging_area.json")))

	require.NoError(t, r.Checkout("dev"))
	assert.Equal(t, []string{"a.txt", "b.txt"}, r.Area().Paths(staging.Unchanged))
	assert.Equal(t, "b", readFile(t, root, "b.txt"))
}

func TestLogWalksEachBranch(t *testing.T) {
	r, root := newRepo(t)
	m1 := commitFiles(t, r, root, "m1", map[string]string{"a.txt": "1"})
	m2 := commitFiles(t, r, root, "m2", map[string]string{"a.txt": "2"})
	require.NoError(t, r.Branch("dev"))
	d1 := commitFiles(t, r, root, "d1", map[string]string{"a.txt": "3"})

	histories, err := r.Log()
	require.NoError(t, err)
	require.Len(t, histories, 2)

	assert.Equal(t, "dev", histories[0].Branch)
	require.Len(t, histories[0].Commits, 1)
	assert.Equal(t, d1, histories[0].Commits[0].ID)

	assert.Equal(t, "main", histories[1].Branch)
	require.Len(t, histories[1].Commits, 2)
	assert.Equal(t, m2, histories[1].Commits[0].ID)
	assert.Equal(t, m1, histories[1].Commits[1].ID)
}

func TestFindRoot(t *testing.T) {
	_, root := newRepo(t)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = FindRoot(t.TempDir())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

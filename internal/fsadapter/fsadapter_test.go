package fsadapter

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/cvs/internal/digest"
)

func newTestAdapter(t *testing.T, files map[string]string) *Adapter {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
	}
	return New(fs)
}

func TestWalkSkipsIgnoredAndIsRestartable(t *testing.T) {
	a := newTestAdapter(t, map[string]string{
		"a.txt":            "a",
		"src/main.go":      "package main",
		"src/lib/util.go":  "package lib",
		".cvs/state.json":  "{}",
		"skip/me.txt":      "x",
	})
	ignored := func(p string) bool {
		return p == ".cvs" || strings.HasPrefix(p, "skip")
	}

	first, err := a.Files(".", ignored)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "src/lib/util.go", "src/main.go"}, first)

	second, err := a.Files(".", ignored)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWalkStopsEarly(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"a": "1", "b": "2", "c": "3"})

	var seen []string
	for p, err := range a.Walk(".", nil) {
		require.NoError(t, err)
		seen = append(seen, p)
		if len(seen) == 2 {
			break
		}
	}
	assert.Len(t, seen, 2)
}

func TestHashFileMatchesDigest(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"file.txt": "hello"})

	h, err := a.HashFile("file.txt")
	require.NoError(t, err)
	assert.Equal(t, digest.Sum([]byte("hello")), h)

	_, err = a.HashFile("missing.txt")
	assert.Error(t, err)
}

func TestCopyFileAndWriteAtomic(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"src.txt": "payload"})

	require.NoError(t, a.CopyFile("src.txt", "deep/nested/dst.txt"))
	data, err := a.ReadFile("deep/nested/dst.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, a.WriteFileAtomic("deep/nested/dst.txt", []byte("replaced")))
	data, err = a.ReadFile("deep/nested/dst.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	exists, err := a.Exists("deep/nested/dst.txt.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file must not survive a successful write")
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	a := newTestAdapter(t, nil)
	assert.NoError(t, a.Remove("nope.txt"))
}

func TestPruneEmptyDirs(t *testing.T) {
	a := newTestAdapter(t, map[string]string{
		"keep/file.txt":    "x",
		"gone/inner/f.txt": "y",
		".cvs/state":       "z",
	})
	require.NoError(t, a.Remove("gone/inner/f.txt"))
	require.NoError(t, a.MkdirAll(".cvs/empty"))

	require.NoError(t, a.PruneEmptyDirs(".", func(p string) bool { return p == ".cvs" }))

	exists, err := a.Exists("gone")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = a.Exists("keep/file.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = a.Exists(".cvs/empty")
	require.NoError(t, err)
	assert.True(t, exists, "ignored directories are left alone")
}

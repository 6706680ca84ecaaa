// Package fsadapter wraps a billy.Filesystem rooted at the working tree and
// provides the walk, hash, copy and delete primitives the engine builds on.
//
// All paths are slash separated and relative to the filesystem root.
package fsadapter

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/javanhut/cvs/internal/digest"
)

// IgnoreFunc reports whether a relative path is excluded from tracking.
type IgnoreFunc func(relPath string) bool

// Adapter performs filesystem operations relative to a root directory.
type Adapter struct {
	fs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(fs billy.Filesystem) *Adapter {
	return &Adapter{fs: fs}
}

// NewOS returns an Adapter rooted at dir on the host filesystem.
func NewOS(dir string) *Adapter {
	return New(osfs.New(dir))
}

// Filesystem exposes the underlying billy filesystem.
func (a *Adapter) Filesystem() billy.Filesystem {
	return a.fs
}

// Walk returns a lazy sequence of every regular file below dir that is not
// ignored. Ignored directories are not descended into. The sequence reads the
// filesystem again each time it is ranged over.
func (a *Adapter) Walk(dir string, ignored IgnoreFunc) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		a.walk(clean(dir), ignored, yield)
	}
}

func (a *Adapter) walk(dir string, ignored IgnoreFunc, yield func(string, error) bool) bool {
	entries, err := a.fs.ReadDir(dir)
	if err != nil {
		return yield("", fmt.Errorf("read dir %s: %w", dir, err))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		rel := join(dir, entry.Name())
		if ignored != nil && ignored(rel) {
			continue
		}
		if entry.IsDir() {
			if !a.walk(rel, ignored, yield) {
				return false
			}
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		if !yield(rel, nil) {
			return false
		}
	}
	return true
}

// Files collects the Walk sequence into a slice.
func (a *Adapter) Files(dir string, ignored IgnoreFunc) ([]string, error) {
	var files []string
	for p, err := range a.Walk(dir, ignored) {
		if err != nil {
			return nil, err
		}
		files = append(files, p)
	}
	return files, nil
}

// Exists reports whether name exists.
func (a *Adapter) Exists(name string) (bool, error) {
	_, err := a.fs.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// HashFile computes the content hash of name.
func (a *Adapter) HashFile(name string) (digest.Hash, error) {
	f, err := a.fs.Open(name)
	if err != nil {
		return digest.Hash{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	h, err := digest.SumReader(f)
	if err != nil {
		return digest.Hash{}, fmt.Errorf("hash %s: %w", name, err)
	}
	return h, nil
}

// Open opens name for reading.
func (a *Adapter) Open(name string) (io.ReadCloser, error) {
	f, err := a.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// ReadFile reads the whole content of name.
func (a *Adapter) ReadFile(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// MkdirAll creates dir and any missing parents.
func (a *Adapter) MkdirAll(dir string) error {
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// WriteStream writes name through fill. Content goes to a temporary sibling
// first and is renamed into place only after fill and close succeed.
func (a *Adapter) WriteStream(name string, fill func(w io.Writer) error) error {
	if err := a.MkdirAll(path.Dir(name)); err != nil {
		return err
	}

	tmpPath := name + ".tmp"
	f, err := a.fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	err = fill(f)
	closeErr := f.Close()

	if err != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if closeErr != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", name, closeErr)
	}

	if err := a.fs.Rename(tmpPath, name); err != nil {
		a.fs.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// WriteFileAtomic replaces name with data.
func (a *Adapter) WriteFileAtomic(name string, data []byte) error {
	return a.WriteStream(name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFile copies src to dst, replacing dst atomically.
func (a *Adapter) CopyFile(src, dst string) error {
	in, err := a.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return a.WriteStream(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// Remove deletes name. A missing file is not an error.
func (a *Adapter) Remove(name string) error {
	err := a.fs.Remove(name)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", name, err)
}

// RemoveAll deletes dir and everything below it.
func (a *Adapter) RemoveAll(dir string) error {
	if err := util.RemoveAll(a.fs, dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// PruneEmptyDirs removes every directory below dir that holds no entries
// once its own children have been pruned. Ignored directories and dir itself
// are kept.
func (a *Adapter) PruneEmptyDirs(dir string, ignored IgnoreFunc) error {
	_, err := a.prune(clean(dir), ignored)
	return err
}

func (a *Adapter) prune(dir string, ignored IgnoreFunc) (bool, error) {
	entries, err := a.fs.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read dir %s: %w", dir, err)
	}

	remaining := len(entries)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rel := join(dir, entry.Name())
		if ignored != nil && ignored(rel) {
			continue
		}
		empty, err := a.prune(rel, ignored)
		if err != nil {
			return false, err
		}
		if empty {
			if err := a.fs.Remove(rel); err != nil {
				return false, fmt.Errorf("remove dir %s: %w", rel, err)
			}
			remaining--
		}
	}
	return remaining == 0, nil
}

func clean(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

func join(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// Package watcher reports working-tree changes so status can be re-rendered.
// Every non-ignored directory below the root is watched; directories created
// later are added as they appear. Ignored paths, including the repository
// state directory, never trigger an event.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is sent when the working tree changed.
type Event struct{}

// IgnoreFunc reports whether a slash-separated path relative to the root is
// excluded from tracking.
type IgnoreFunc func(relPath string) bool

// Watch monitors root and sends Event values on the returned channel. Rapid
// bursts are coalesced via the debounce window.
//
// Call the returned stop function to tear down the watcher.
func Watch(root string, ignored IgnoreFunc, debounce time.Duration) (<-chan Event, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	rel := func(p string) (string, bool) {
		r, err := filepath.Rel(root, p)
		if err != nil {
			return "", false
		}
		return filepath.ToSlash(r), true
	}
	skip := func(p string) bool {
		r, ok := rel(p)
		if !ok {
			return true
		}
		return r != "." && ignored != nil && ignored(r)
	}
	addTree := func(dir string) error {
		return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if skip(p) {
				return filepath.SkipDir
			}
			return w.Add(p)
		})
	}

	if err := addTree(root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	ch := make(chan Event, 1)
	done := make(chan struct{})

	go func() {
		defer close(ch)
		var timer *time.Timer

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if skip(ev.Name) {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = addTree(ev.Name)
					}
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
			case <-timerChan(timer):
				timer = nil
				select {
				case ch <- Event{}:
				default:
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		_ = w.Close()
	}

	return ch, stop, nil
}

// timerChan returns the timer's channel, or a nil channel if timer is nil.
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

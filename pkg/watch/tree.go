// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📣 Change is one notification, relative to the tree root. The root itself
// is reported as "".
type Change struct {
	Rel string
	Op  fsnotify.Op
}

// 🌲 Tree is a recursive fsnotify watch. Directories created under the root
// are added as they appear; directories for which skip returns true are never
// added.
type Tree struct {
	root    string
	isDir   bool
	skip    func(rel string) bool
	watcher *fsnotify.Watcher
	changes chan Change
	done    chan struct{}
	once    sync.Once
	gone    atomic.Bool
	closeMu sync.Mutex
	err     error
}

// Watch attaches a tree to root, which may be a directory or a single file.
// A single file is watched through its parent directory so that a rename
// over it (an editor's atomic save) keeps the watch alive.
func Watch(ctx context.Context, root string, skip func(rel string) bool) (*Tree, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("stat watch root: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating watcher: %w", err)
	}

	t := &Tree{
		root:    root,
		isDir:   info.IsDir(),
		skip:    skip,
		watcher: w,
		changes: make(chan Change, 256),
		done:    make(chan struct{}),
	}

	if t.isDir {
		err = t.addDir(ctx, root)
	} else {
		err = w.Add(filepath.Dir(root))
	}
	if err != nil {
		_ = w.Close()
		return nil, errors.Errorf("watching %s: %w", root, err)
	}

	go t.loop(ctx)
	return t, nil
}

// Changes is closed once the tree stops, either through Close or because the
// root disappeared.
func (t *Tree) Changes() <-chan Change {
	return t.changes
}

func (t *Tree) Root() string {
	return t.root
}

// RootGone reports whether the tree stopped because its root was removed
func (t *Tree) RootGone() bool {
	return t.gone.Load()
}

// Close stops the tree. Safe to call more than once.
func (t *Tree) Close() error {
	t.once.Do(func() {
		close(t.done)
		err := t.watcher.Close()
		t.closeMu.Lock()
		t.err = err
		t.closeMu.Unlock()
	})
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.err
}

func (t *Tree) addDir(ctx context.Context, dir string) error {
	logger := zerolog.Ctx(ctx)

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			logger.Debug().Err(err).Str("path", p).Msg("skipping unreadable directory")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel := t.rel(p); rel != "" && t.skip != nil && t.skip(rel) {
			return filepath.SkipDir
		}
		if err := t.watcher.Add(p); err != nil {
			if p == dir {
				return err
			}
			logger.Debug().Err(err).Str("path", p).Msg("could not watch directory")
		}
		return nil
	})
}

func (t *Tree) loop(ctx context.Context) {
	defer close(t.changes)
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-t.done:
			return
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if !t.isDir && filepath.Clean(ev.Name) != t.root {
				continue
			}

			rel := t.rel(ev.Name)
			if t.isDir && ev.Has(fsnotify.Create) && (t.skip == nil || !t.skip(rel)) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := t.addDir(ctx, ev.Name); err != nil {
						logger.Debug().Err(err).Str("path", ev.Name).Msg("could not watch new directory")
					}
				}
			}

			if !t.send(Change{Rel: rel, Op: ev.Op}) {
				return
			}

			if (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) && t.rootMissing() {
				logger.Debug().Str("root", t.root).Msg("watch root removed")
				t.gone.Store(true)
				_ = t.Close()
				return
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Str("root", t.root).Msg("watch error")
		}
	}
}

func (t *Tree) send(c Change) bool {
	select {
	case t.changes <- c:
		return true
	case <-t.done:
		return false
	}
}

func (t *Tree) rootMissing() bool {
	_, err := os.Stat(t.root)
	return err != nil
}

// rel turns an absolute notification path into a slash separated hint
func (t *Tree) rel(p string) string {
	r, err := filepath.Rel(t.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	if r == "." {
		return ""
	}
	return filepath.ToSlash(r)
}

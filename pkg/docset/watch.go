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

package docset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/watch"
)

// DocumentPattern matches configuration documents anywhere below a root
const DocumentPattern = "**/fsconfig.{json,yaml,yml,toml,hcl}"

// skipDir reports directories discovery never descends into
func skipDir(rel string) bool {
	switch filepath.Base(rel) {
	case ".git", "node_modules":
		return true
	}
	return false
}

// 🔍 Discover returns the absolute paths of every document below root,
// sorted.
func Discover(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}
	logger := zerolog.Ctx(ctx)

	var found []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == abs {
				return err
			}
			logger.Debug().Err(err).Str("path", p).Msg("skipping unreadable path")
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := doublestar.Match(DocumentPattern, strings.ToLower(rel)); ok {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("discovering documents: %w", err)
	}

	sort.Strings(found)
	logger.Debug().Int("count", len(found)).Str("root", abs).Msg("discovered documents")
	return found, nil
}

// 👀 Watch keeps the set in step with the documents below root: a created
// or changed document is reloaded and started, a removed one is unloaded.
// It blocks until ctx is done or root disappears.
func (s *Set) Watch(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}
	logger := zerolog.Ctx(ctx)

	tree, err := watch.Watch(ctx, abs, skipDir)
	if err != nil {
		return errors.Errorf("watching documents: %w", err)
	}
	defer tree.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-tree.Changes():
			if !ok {
				if tree.RootGone() {
					return errors.Errorf("document root %s removed", abs)
				}
				return nil
			}
			if !config.IsConfigFile(change.Rel) {
				continue
			}
			path := filepath.Join(abs, filepath.FromSlash(change.Rel))
			s.react(ctx, path, change.Op)
			logger.Debug().Str("path", path).Stringer("op", change.Op).Msg("document changed")
		}
	}
}

func (s *Set) react(ctx context.Context, path string, op fsnotify.Op) {
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		if _, err := os.Stat(path); err != nil {
			if err := s.Unload(ctx, path); err != nil && !errors.Is(err, ErrNotLoaded) {
				zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("unloading document")
			}
			return
		}
	}
	// load failures are already reported to the sink
	_, _ = s.Load(ctx, path, true)
}

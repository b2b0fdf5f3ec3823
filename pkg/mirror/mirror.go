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

package mirror

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/filesync/pkg/log"
)

// 🔄 Synchronizer reconciles items of a rule's source tree onto its destination
type Synchronizer struct {
	sink  log.Sink
	retry RetryPolicy
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithRetry overrides the locked-file copy retry policy
func WithRetry(p RetryPolicy) Option {
	return func(s *Synchronizer) {
		s.retry = p
	}
}

// 🏭 New creates a synchronizer that reports every action to sink
func New(sink log.Sink, opts ...Option) *Synchronizer {
	if sink == nil {
		sink = log.Discard
	}
	s := &Synchronizer{
		sink:  sink,
		retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// 🎯 Reconcile brings the item at rel (relative to the rule roots) in line
// with the source. Directories are walked recursively; per-item failures are
// reported as events and never abort the pass.
func (s *Synchronizer) Reconcile(ctx context.Context, rel string, rule *Rule) {
	if rule.Ignored(rel) {
		return
	}

	rel = Normalize(rel)
	srcPath := filepath.Join(rule.Src, filepath.FromSlash(rel))
	destPath := filepath.Join(rule.Dest, filepath.FromSlash(rel))

	src, ok := Exists(srcPath)
	if !ok {
		s.Delete(ctx, destPath)
		return
	}
	dest, destOK := Exists(destPath)

	if src.IsDir {
		s.reconcileDir(ctx, rel, srcPath, destPath, dest, destOK, rule)
		return
	}
	s.reconcileFile(ctx, rel, srcPath, destPath, src, dest, destOK, rule)
}

// 📁 reconcileDir makes sure the destination directory exists, recurses into
// every source entry and, in bidir mode, prunes entries the source lacks.
func (s *Synchronizer) reconcileDir(ctx context.Context, rel, srcPath, destPath string, dest Metadata, destOK bool, rule *Rule) {
	if destOK && !dest.IsDir {
		s.Delete(ctx, destPath)
		destOK = false
	}
	if !destOK {
		if err := s.createFolder(ctx, destPath); err != nil {
			return
		}
	}

	entries, err := os.ReadDir(srcPath)
	if err != nil {
		s.sink.Emit(ctx, log.NewFailure(log.KindDir, log.ActionRead, log.PathData{Src: srcPath}, err))
		return
	}
	for _, entry := range entries {
		s.Reconcile(ctx, join(rel, entry.Name()), rule)
	}

	if rule.Bidir {
		s.prune(ctx, rel, srcPath, destPath, rule)
	}
}

// ✂️ prune deletes destination entries of one directory level that have no
// source counterpart. Ignored entries are left alone.
func (s *Synchronizer) prune(ctx context.Context, rel, srcPath, destPath string, rule *Rule) {
	entries, err := os.ReadDir(destPath)
	if err != nil {
		s.sink.Emit(ctx, log.NewFailure(log.KindDir, log.ActionRead, log.PathData{Src: destPath}, err))
		return
	}
	for _, entry := range entries {
		if rule.Ignored(join(rel, entry.Name())) {
			continue
		}
		if _, ok := Exists(filepath.Join(srcPath, entry.Name())); ok {
			continue
		}
		s.Delete(ctx, filepath.Join(destPath, entry.Name()))
	}
}

// 📄 reconcileFile copies a stale or missing destination file
func (s *Synchronizer) reconcileFile(ctx context.Context, rel, srcPath, destPath string, src, dest Metadata, destOK bool, rule *Rule) {
	logger := zerolog.Ctx(ctx)

	if !rule.Allowed(rel) {
		logger.Debug().Str("path", rel).Msg("not in files list")
		return
	}
	if destOK && dest.IsDir {
		s.Delete(ctx, destPath)
		destOK = false
	}
	if destOK && dest.Current(src) {
		logger.Debug().Str("path", rel).Msg("destination is current")
		return
	}

	if err := s.createFolder(ctx, filepath.Dir(destPath)); err != nil {
		return
	}

	data := log.PathData{Src: srcPath, Dest: destPath}
	if err := s.copyLocked(ctx, srcPath, destPath); err != nil {
		s.sink.Emit(ctx, log.NewFailure(log.KindFile, log.ActionCopy, data, err))
		return
	}
	s.sink.Emit(ctx, log.NewEvent(log.KindFile, log.ActionCopy, data))
}

// 🏗️ createFolder creates every missing directory on the way to path,
// reporting each one it makes.
func (s *Synchronizer) createFolder(ctx context.Context, path string) error {
	var missing []string
	for dir := path; ; dir = filepath.Dir(dir) {
		if _, ok := Exists(dir); ok {
			break
		}
		missing = append(missing, dir)
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	for i := len(missing) - 1; i >= 0; i-- {
		dir := missing[i]
		err := os.Mkdir(dir, 0o755)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			s.sink.Emit(ctx, log.NewFailure(log.KindDir, log.ActionCreate, log.PathData{Src: dir}, err))
			return err
		}
		s.sink.Emit(ctx, log.NewEvent(log.KindDir, log.ActionCreate, log.PathData{Src: dir}))
	}
	return nil
}

// join builds a child relative path
func join(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}

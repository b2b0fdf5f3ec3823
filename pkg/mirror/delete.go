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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/walteh/filesync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// deleteAttempts bounds how often a directory that refilled mid-delete is retried
const deleteAttempts = 2

var errDirNotEmpty = errors.New("directory not empty")

// 🗑️ Delete removes path and everything below it, depth first. Missing paths
// are a no-op. A directory that gains entries while being removed is retried
// once before the failure is reported.
func (s *Synchronizer) Delete(ctx context.Context, path string) {
	for attempt := 1; ; attempt++ {
		err := s.deleteTree(ctx, path)
		if err == nil {
			return
		}
		if !errors.Is(err, errDirNotEmpty) || attempt >= deleteAttempts {
			s.sink.Emit(ctx, log.NewFailure(log.KindDir, log.ActionDelete, log.PathData{Src: path}, err))
			return
		}
	}
}

func (s *Synchronizer) deleteTree(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.sink.Emit(ctx, log.NewFailure(log.KindFile, log.ActionDelete, log.PathData{Src: path}, err))
			}
			return nil
		}
		s.sink.Emit(ctx, log.NewEvent(log.KindFile, log.ActionDelete, log.PathData{Src: path}))
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.sink.Emit(ctx, log.NewFailure(log.KindDir, log.ActionRead, log.PathData{Src: path}, err))
		return nil
	}
	for _, entry := range entries {
		if err := s.deleteTree(ctx, filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}

	if err := os.Remove(path); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case dirNotEmpty(path):
			return errors.Errorf("removing %s: %w", path, errDirNotEmpty)
		}
		return errors.Errorf("removing %s: %w", path, err)
	}
	s.sink.Emit(ctx, log.NewEvent(log.KindDir, log.ActionDelete, log.PathData{Src: path}))
	return nil
}

func dirNotEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

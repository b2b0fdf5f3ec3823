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
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ⏳ RetryPolicy bounds the locked-file copy loop
type RetryPolicy struct {
	Attempts int           // total copy attempts before giving up
	Initial  time.Duration // wait after the first failure
	Max      time.Duration // ceiling for the doubling wait
}

// DefaultRetryPolicy keeps trying a locked file for a few minutes at most
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 5000,
		Initial:  time.Millisecond,
		Max:      50 * time.Millisecond,
	}
}

// delay returns the wait before the given (1-based) retry
func (p RetryPolicy) delay(retry int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	d := p.Initial
	for i := 1; i < retry; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// 🔁 copyLocked copies srcPath over destPath, retrying while the source is
// held by another writer.
func (s *Synchronizer) copyLocked(ctx context.Context, srcPath, destPath string) error {
	attempts := s.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Errorf("copy cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(s.retry.delay(attempt)):
			}
		}
		if lastErr = copyFile(srcPath, destPath); lastErr == nil {
			return nil
		}
		if attempt == 0 {
			zerolog.Ctx(ctx).Debug().Err(lastErr).Str("src", srcPath).Msg("copy failed, retrying")
		}
	}
	return errors.Errorf("copying after %d attempts: %w", attempts, lastErr)
}

// 📋 copyFile probes the source for lock contention, then copies content,
// permissions and modification time.
func copyFile(srcPath, destPath string) error {
	if err := probeLock(srcPath); err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("stat source: %w", err)
	}
	perm := info.Mode().Perm() | 0o200

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Errorf("opening destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Errorf("copying content: %w", err)
	}
	if err := out.Chmod(perm); err != nil {
		return errors.Errorf("setting permissions: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing destination: %w", err)
	}
	if err := os.Chtimes(destPath, info.ModTime(), info.ModTime()); err != nil {
		return errors.Errorf("setting timestamps: %w", err)
	}
	return nil
}

// openProbe opens path read-write, the way a writer holding it would
// conflict. Sources that can never be opened for writing (read-only files,
// running executables) fall back to a read-only open.
func openProbe(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrPermission) || busyExecutable(err) {
		return os.Open(path)
	}
	return nil, errors.Errorf("opening source for lock probe: %w", err)
}

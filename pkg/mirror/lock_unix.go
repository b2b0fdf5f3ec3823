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

//go:build !windows

package mirror

import (
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/unix"
)

// 🔒 probeLock fails while another process holds an advisory lock on path
func probeLock(path string) error {
	f, err := openProbe(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return errors.Errorf("source is locked: %w", err)
	}
	return unix.Flock(fd, unix.LOCK_UN)
}

// busyExecutable reports the error a running program gives when opened for
// writing
func busyExecutable(err error) bool {
	return errors.Is(err, unix.ETXTBSY)
}

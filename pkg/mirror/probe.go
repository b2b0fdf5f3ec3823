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
	"io/fs"
	"os"
	"time"
)

// 📄 Metadata is the part of a stat result the synchronizer cares about
type Metadata struct {
	IsDir   bool
	ModTime time.Time
	Mode    fs.FileMode
}

// 🔍 Exists stats path and reports its metadata. Any stat failure (missing,
// permission denied, broken link) reads as absent.
func Exists(path string) (Metadata, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, false
	}
	return Metadata{
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, true
}

// Current reports whether a destination with metadata dest is up to date with
// src. Only a strictly older destination is stale.
func (dest Metadata) Current(src Metadata) bool {
	return !dest.ModTime.Before(src.ModTime)
}

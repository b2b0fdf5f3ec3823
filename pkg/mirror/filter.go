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
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitMarker is skipped anywhere in a relative path
const gitMarker = ".git"

// 📋 Rule is one resolved src → dest mapping with its filters
type Rule struct {
	Src    string
	Dest   string
	Files  []string
	Ignore []string
	Bidir  bool
}

// 🧹 Normalize collapses separators and dot segments in a relative path. The
// root of a tree normalizes to "".
func Normalize(rel string) string {
	if rel == "" {
		return ""
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return strings.TrimPrefix(cleaned, "/")
}

// 🙈 Ignored reports whether rel must be left alone entirely
func (r *Rule) Ignored(rel string) bool {
	if strings.Contains(rel, gitMarker) {
		return true
	}
	return matchAny(r.Ignore, rel)
}

// ✅ Allowed reports whether a file at rel passes the files allow-list. The
// tree root is always allowed so a rule can point at a single file.
func (r *Rule) Allowed(rel string) bool {
	if rel == "" || len(r.Files) == 0 {
		return true
	}
	return matchAny(r.Files, rel)
}

// matchAny matches rel against entries exactly, or as a doublestar pattern
// when the entry carries glob meta characters.
func matchAny(entries []string, rel string) bool {
	norm := Normalize(rel)
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		if entry == rel {
			return true
		}
		e := Normalize(entry)
		if e == "" {
			continue
		}
		if e == norm {
			return true
		}
		if !hasMeta(e) {
			continue
		}
		if ok, err := doublestar.Match(e, norm); err == nil && ok {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

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

package status

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	rowIndent   = 4  // spaces to indent rule entries
	groupWidth  = 20 // width for the group name
	pathWidth   = 35 // width for src and dest
	maxDirParts = 6  // longer directory chains are elided
)

// ✂️ ShortPath elides the middle of long directory chains, keeping the first
// four and the last three directories.
func ShortPath(p string) string {
	slashed := filepath.ToSlash(p)
	dir, name := path.Split(slashed)
	dir = strings.TrimSuffix(dir, "/")

	parts := strings.Split(dir, "/")
	if len(parts) <= maxDirParts {
		return slashed
	}
	prefix := strings.Join(parts[:4], "/")
	suffix := strings.Join(parts[len(parts)-3:], "/")
	return prefix + "/.../" + suffix + "/" + name
}

// State renders a row's live state
func State(r Row) string {
	switch {
	case !r.Enabled:
		return color.YellowString("disabled")
	case r.Active:
		return color.GreenString("watching")
	default:
		return color.HiBlackString("stopped")
	}
}

// Mode renders the rule's direction
func Mode(r Row) string {
	if r.Bidir {
		return "bidir"
	}
	return "mirror"
}

// 🎯 FormatRow formats a single rule for line oriented output
func FormatRow(r Row) string {
	var prefix string
	switch {
	case !r.Enabled:
		prefix = color.YellowString("✗")
	case r.Active:
		prefix = color.GreenString("✓")
	default:
		prefix = color.HiBlackString("-")
	}

	return fmt.Sprintf("%s%s %-*s %-*s %-*s %s %s",
		strings.Repeat(" ", rowIndent),
		prefix,
		groupWidth, r.Group,
		pathWidth, ShortPath(r.Src),
		pathWidth, ShortPath(r.Dest),
		Mode(r),
		State(r),
	)
}

// 📊 Render writes rows as a table
func Render(w io.Writer, rows []Row) error {
	data := pterm.TableData{{"DOCUMENT", "GROUP", "SRC", "DEST", "MODE", "STATE"}}
	for _, r := range rows {
		data = append(data, []string{
			ShortPath(r.Document),
			r.Group,
			ShortPath(r.Src),
			ShortPath(r.Dest),
			Mode(r),
			State(r),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return errors.Errorf("rendering table: %w", err)
	}
	return nil
}

// FormatSummary renders a one line summary
func FormatSummary(s Summary) string {
	return fmt.Sprintf("%d documents, %d groups, %d rules, %s",
		s.Documents, s.Groups, s.Rules,
		color.GreenString("%d watching", s.Active),
	)
}

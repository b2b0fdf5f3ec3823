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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/filesync/pkg/docset"
)

func init() {
	color.NoColor = true
	pterm.DisableStyling()
}

func TestShortPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare_name", in: "a.txt", want: "a.txt"},
		{name: "short_relative", in: "a/b/c.txt", want: "a/b/c.txt"},
		{name: "six_dirs_kept", in: "1/2/3/4/5/6/f.txt", want: "1/2/3/4/5/6/f.txt"},
		{name: "seven_dirs_elided", in: "1/2/3/4/5/6/7/f.txt", want: "1/2/3/4/.../5/6/7/f.txt"},
		{name: "absolute_elided", in: "/1/2/3/4/5/6/7/f.txt", want: "/1/2/3/.../5/6/7/f.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortPath(tt.in))
		})
	}
}

func TestFormatRow(t *testing.T) {
	tests := []struct {
		name     string
		row      Row
		contains []string
	}{
		{
			name:     "watching",
			row:      Row{Group: "docs", Enabled: true, Active: true, Src: "src", Dest: "dest"},
			contains: []string{"✓", "docs", "src", "dest", "mirror", "watching"},
		},
		{
			name:     "stopped_bidir",
			row:      Row{Group: "docs", Enabled: true, Bidir: true, Src: "src", Dest: "dest"},
			contains: []string{"-", "bidir", "stopped"},
		},
		{
			name:     "disabled",
			row:      Row{Group: "off", Src: "src", Dest: "dest"},
			contains: []string{"✗", "disabled"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatRow(tt.row)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
		})
	}
}

func TestCollectAndRender(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "other"), 0o755))
	path := filepath.Join(dir, "fsconfig.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "configs": [
    {"name": "off", "enabled": false, "sync": [{"src": "src", "dest": "never"}]},
    {"name": "on", "enabled": true, "sync": [
      {"src": "src", "dest": "dest", "files": ["a", "b"], "bidir": true},
      {"src": "other", "dest": "dest2"}
    ]}
  ]
}`), 0o644))

	set := docset.New(docset.Options{})
	t.Cleanup(func() { _ = set.Close(ctx) })
	entry, err := set.Load(ctx, path, false)
	require.NoError(t, err)
	require.NoError(t, entry.Groups[0].Start(ctx, 0))

	rows := Collect(set)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Document: path, Group: "off", Enabled: false, Index: 0, Src: "src", Dest: "never"}, rows[0])
	assert.Equal(t, Row{Document: path, Group: "on", Enabled: true, Index: 0, Src: "src", Dest: "dest", Files: 2, Bidir: true, Active: true}, rows[1])
	assert.Equal(t, Row{Document: path, Group: "on", Enabled: true, Index: 1, Src: "other", Dest: "dest2"}, rows[2])

	sum := Summarize(rows)
	assert.Equal(t, Summary{Documents: 1, Groups: 2, Rules: 3, Active: 1}, sum)
	assert.Contains(t, FormatSummary(sum), "1 watching")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rows))
	out := buf.String()
	for _, want := range []string{"DOCUMENT", "GROUP", "off", "on", "dest2", "watching", "stopped", "disabled", "bidir"} {
		assert.Contains(t, out, want)
	}
}

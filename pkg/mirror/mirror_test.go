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
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/filesync/pkg/log"
)

var fastRetry = RetryPolicy{Attempts: 3, Initial: time.Microsecond, Max: time.Microsecond}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// writeTree creates root and every file in files (slash separated relative paths)
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// readTree returns every regular file below root keyed by slash separated relative path
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return out
}

func newRule(t *testing.T) *Rule {
	tmp := t.TempDir()
	return &Rule{
		Src:  filepath.Join(tmp, "src"),
		Dest: filepath.Join(tmp, "dest"),
	}
}

func TestReconcileScenarios(t *testing.T) {
	tests := []struct {
		name        string
		src         map[string]string
		dest        map[string]string
		files       []string
		ignore      []string
		bidir       bool
		want        map[string]string
		wantCopies  int
		wantDeletes int
	}{
		{
			name:       "copy_single_file",
			src:        map[string]string{"a.txt": "1"},
			want:       map[string]string{"a.txt": "1"},
			wantCopies: 1,
		},
		{
			name:        "bidir_removes_orphans",
			dest:        map[string]string{"b.txt": "x"},
			bidir:       true,
			want:        map[string]string{},
			wantDeletes: 1,
		},
		{
			name:       "files_allow_list",
			src:        map[string]string{"a.txt": "1", "b.txt": "2"},
			files:      []string{"a.txt"},
			want:       map[string]string{"a.txt": "1"},
			wantCopies: 1,
		},
		{
			name:       "nested_directories",
			src:        map[string]string{"x/y/z.txt": "z", "top.txt": "t"},
			want:       map[string]string{"x/y/z.txt": "z", "top.txt": "t"},
			wantCopies: 2,
		},
		{
			name:   "ignore_beats_files_and_bidir",
			src:    map[string]string{"a.txt": "1", "node_modules/m.js": "m"},
			dest:   map[string]string{"node_modules/keep.js": "k"},
			files:  []string{"a.txt", "node_modules/m.js"},
			ignore: []string{"node_modules"},
			bidir:  true,
			want: map[string]string{
				"a.txt":                "1",
				"node_modules/keep.js": "k",
			},
			wantCopies: 1,
		},
		{
			name:       "git_is_always_skipped",
			src:        map[string]string{".git/HEAD": "ref", "a.txt": "1"},
			want:       map[string]string{"a.txt": "1"},
			wantCopies: 1,
		},
		{
			name:       "glob_ignore_entry",
			src:        map[string]string{"a.txt": "1", "logs/x.log": "l"},
			ignore:     []string{"**/*.log"},
			want:       map[string]string{"a.txt": "1"},
			wantCopies: 1,
		},
		{
			name:       "without_bidir_extra_files_stay",
			src:        map[string]string{"a.txt": "1"},
			dest:       map[string]string{"extra.txt": "e"},
			want:       map[string]string{"a.txt": "1", "extra.txt": "e"},
			wantCopies: 1,
		},
		{
			name:        "bidir_prunes_nested_levels",
			src:         map[string]string{"d/keep.txt": "k"},
			dest:        map[string]string{"d/keep.txt": "old", "d/gone.txt": "g", "gone/x.txt": "x"},
			bidir:       true,
			want:        map[string]string{"d/keep.txt": "k"},
			wantCopies:  1,
			wantDeletes: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			rule := newRule(t)
			rule.Files = tt.files
			rule.Ignore = tt.ignore
			rule.Bidir = tt.bidir

			writeTree(t, rule.Src, tt.src)
			writeTree(t, rule.Dest, tt.dest)
			// make any pre-existing destination content stale
			past := time.Now().Add(-time.Hour)
			for rel := range tt.dest {
				require.NoError(t, os.Chtimes(filepath.Join(rule.Dest, rel), past, past))
			}

			rec := log.NewRecorder()
			New(rec, WithRetry(fastRetry)).Reconcile(ctx, "", rule)

			assert.Equal(t, tt.want, readTree(t, rule.Dest))
			assert.Equal(t, tt.wantCopies, rec.Count(log.KindFile, log.ActionCopy), "copy events")
			assert.Equal(t, tt.wantDeletes, rec.Count(log.KindFile, log.ActionDelete), "file delete events")
			assert.Empty(t, rec.Failures())
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := testContext(t)
	rule := newRule(t)
	writeTree(t, rule.Src, map[string]string{"a.txt": "1", "d/b.txt": "2"})

	rec := log.NewRecorder()
	syncer := New(rec)
	syncer.Reconcile(ctx, "", rule)
	require.Equal(t, 2, rec.Count(log.KindFile, log.ActionCopy))

	rec.Reset()
	syncer.Reconcile(ctx, "", rule)
	assert.Empty(t, rec.Events(), "a converged tree needs no action")
}

func TestReconcileTimestampGating(t *testing.T) {
	tests := []struct {
		name     string
		offset   time.Duration
		wantCopy bool
	}{
		{name: "dest_newer", offset: time.Hour, wantCopy: false},
		{name: "dest_equal", offset: 0, wantCopy: false},
		{name: "dest_older", offset: -time.Hour, wantCopy: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			rule := newRule(t)
			writeTree(t, rule.Src, map[string]string{"a.txt": "new"})
			writeTree(t, rule.Dest, map[string]string{"a.txt": "old"})

			srcTime := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
			require.NoError(t, os.Chtimes(filepath.Join(rule.Src, "a.txt"), srcTime, srcTime))
			destTime := srcTime.Add(tt.offset)
			require.NoError(t, os.Chtimes(filepath.Join(rule.Dest, "a.txt"), destTime, destTime))

			rec := log.NewRecorder()
			New(rec).Reconcile(ctx, "a.txt", rule)

			content, err := os.ReadFile(filepath.Join(rule.Dest, "a.txt"))
			require.NoError(t, err)
			if tt.wantCopy {
				assert.Equal(t, "new", string(content))
				assert.Equal(t, 1, rec.Count(log.KindFile, log.ActionCopy))

				info, err := os.Stat(filepath.Join(rule.Dest, "a.txt"))
				require.NoError(t, err)
				assert.True(t, info.ModTime().Equal(srcTime), "modification time is carried over")
				return
			}
			assert.Equal(t, "old", string(content))
			assert.Empty(t, rec.Events())
		})
	}
}

func TestReconcileDeletionPropagation(t *testing.T) {
	ctx := testContext(t)
	rule := newRule(t)
	writeTree(t, rule.Src, map[string]string{"a.txt": "1", "sub/b.txt": "2", "sub/deep/c.txt": "3"})

	rec := log.NewRecorder()
	syncer := New(rec)
	syncer.Reconcile(ctx, "", rule)
	require.Len(t, readTree(t, rule.Dest), 3)

	rec.Reset()
	require.NoError(t, os.Remove(filepath.Join(rule.Src, "a.txt")))
	syncer.Reconcile(ctx, "a.txt", rule)
	assert.NoFileExists(t, filepath.Join(rule.Dest, "a.txt"))
	assert.Equal(t, 1, rec.Count(log.KindFile, log.ActionDelete))

	rec.Reset()
	require.NoError(t, os.RemoveAll(filepath.Join(rule.Src, "sub")))
	syncer.Reconcile(ctx, "sub", rule)
	assert.NoDirExists(t, filepath.Join(rule.Dest, "sub"))
	assert.Equal(t, 2, rec.Count(log.KindFile, log.ActionDelete))
	assert.Equal(t, 2, rec.Count(log.KindDir, log.ActionDelete))
	assert.Empty(t, readTree(t, rule.Dest))
}

func TestReconcileCreatesDirectoryChain(t *testing.T) {
	ctx := testContext(t)
	tmp := t.TempDir()
	rule := &Rule{
		Src:  filepath.Join(tmp, "src"),
		Dest: filepath.Join(tmp, "out", "nested", "dest"),
	}
	writeTree(t, rule.Src, map[string]string{"a/b.txt": "b"})

	rec := log.NewRecorder()
	New(rec).Reconcile(ctx, "", rule)

	assert.Equal(t, map[string]string{"a/b.txt": "b"}, readTree(t, rule.Dest))
	// out, out/nested, out/nested/dest, out/nested/dest/a
	assert.Equal(t, 4, rec.Count(log.KindDir, log.ActionCreate))
}

func TestReconcileSingleFileRoot(t *testing.T) {
	ctx := testContext(t)
	tmp := t.TempDir()
	writeTree(t, tmp, map[string]string{"in/source.txt": "solo"})
	rule := &Rule{
		Src:   filepath.Join(tmp, "in", "source.txt"),
		Dest:  filepath.Join(tmp, "out", "copy.txt"),
		Files: []string{"something-else.txt"},
	}

	rec := log.NewRecorder()
	New(rec).Reconcile(ctx, "", rule)

	content, err := os.ReadFile(rule.Dest)
	require.NoError(t, err)
	assert.Equal(t, "solo", string(content))
	assert.Equal(t, 1, rec.Count(log.KindFile, log.ActionCopy))
}

func TestReconcileTypeMismatch(t *testing.T) {
	ctx := testContext(t)
	rule := newRule(t)
	writeTree(t, rule.Src, map[string]string{"a": "file now", "b/inner.txt": "i"})
	writeTree(t, rule.Dest, map[string]string{"a/old.txt": "o", "b": "was a file"})

	rec := log.NewRecorder()
	New(rec).Reconcile(ctx, "", rule)

	assert.Equal(t, map[string]string{"a": "file now", "b/inner.txt": "i"}, readTree(t, rule.Dest))
	assert.Empty(t, rec.Failures())
}

func TestReconcileCopyFailure(t *testing.T) {
	ctx := testContext(t)
	rule := newRule(t)
	writeTree(t, rule.Src, map[string]string{"a.txt": "1", "b.txt": "2"})
	require.NoError(t, os.MkdirAll(rule.Dest, 0o755))
	// a dangling link makes every attempt to create the destination fail
	require.NoError(t, os.Symlink(filepath.Join(rule.Dest, "missing", "target"), filepath.Join(rule.Dest, "a.txt")))

	rec := log.NewRecorder()
	New(rec, WithRetry(fastRetry)).Reconcile(ctx, "", rule)

	failures := rec.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, log.KindFile, failures[0].Kind)
	assert.Equal(t, log.ActionCopy, failures[0].Action)
	assert.Contains(t, failures[0].Err.Error(), "after 3 attempts")
	assert.Equal(t, 1, rec.Count(log.KindFile, log.ActionCopy), "the pass continues with the next file")
	assert.FileExists(t, filepath.Join(rule.Dest, "b.txt"))
}

func TestReconcileMissingSourceRootClearsDestination(t *testing.T) {
	ctx := testContext(t)
	rule := newRule(t)
	writeTree(t, rule.Dest, map[string]string{"a.txt": "1", "d/b.txt": "2"})

	rec := log.NewRecorder()
	New(rec).Reconcile(ctx, "", rule)

	assert.NoDirExists(t, rule.Dest)
	assert.Equal(t, 2, rec.Count(log.KindFile, log.ActionDelete))
	assert.Equal(t, 2, rec.Count(log.KindDir, log.ActionDelete))
}

func TestDelete(t *testing.T) {
	ctx := testContext(t)
	tmp := t.TempDir()
	writeTree(t, tmp, map[string]string{"tree/a.txt": "a", "tree/sub/b.txt": "b"})
	require.NoError(t, os.Symlink(filepath.Join(tmp, "elsewhere"), filepath.Join(tmp, "tree", "link")))

	rec := log.NewRecorder()
	syncer := New(rec)
	syncer.Delete(ctx, filepath.Join(tmp, "tree"))

	assert.NoDirExists(t, filepath.Join(tmp, "tree"))
	assert.Equal(t, 3, rec.Count(log.KindFile, log.ActionDelete), "two files and the dangling link")
	assert.Equal(t, 2, rec.Count(log.KindDir, log.ActionDelete))

	rec.Reset()
	syncer.Delete(ctx, filepath.Join(tmp, "never-existed"))
	assert.Empty(t, rec.Events())
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Attempts: 10, Initial: time.Millisecond, Max: 50 * time.Millisecond}
	assert.Equal(t, time.Millisecond, p.delay(1))
	assert.Equal(t, 2*time.Millisecond, p.delay(2))
	assert.Equal(t, 4*time.Millisecond, p.delay(3))
	assert.Equal(t, 50*time.Millisecond, p.delay(7))
	assert.Equal(t, 50*time.Millisecond, p.delay(4000))
	assert.Equal(t, time.Duration(0), RetryPolicy{}.delay(3))

	def := DefaultRetryPolicy()
	assert.Equal(t, 5000, def.Attempts)
}

func TestFilters(t *testing.T) {
	t.Run("normalize", func(t *testing.T) {
		cases := map[string]string{
			"":        "",
			".":       "",
			"./a//b/": "a/b",
			"a/../b":  "b",
			"/a":      "a",
			"a/b":     "a/b",
		}
		for in, want := range cases {
			assert.Equal(t, want, Normalize(in), "normalize %q", in)
		}
	})

	t.Run("ignored", func(t *testing.T) {
		rule := &Rule{Ignore: []string{"build", "docs/tmp/", "**/*.bak", ""}}
		tests := []struct {
			rel  string
			want bool
		}{
			{"", false},
			{".git", true},
			{"sub/.git/config", true},
			{".gitignore", true},
			{"build", true},
			{"build/out.js", false},
			{"docs/tmp", true},
			{"a/b/c.bak", true},
			{"a.txt", false},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, rule.Ignored(tt.rel), "ignored %q", tt.rel)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		rule := &Rule{Files: []string{"./a.txt", "lib/*.js"}}
		tests := []struct {
			rel  string
			want bool
		}{
			{"", true},
			{"a.txt", true},
			{"b.txt", false},
			{"lib/x.js", true},
			{"lib/sub/x.js", false},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, rule.Allowed(tt.rel), "allowed %q", tt.rel)
		}
		assert.True(t, (&Rule{}).Allowed("anything"), "an empty list allows everything")
	})
}

func TestExists(t *testing.T) {
	tmp := t.TempDir()
	writeTree(t, tmp, map[string]string{"f.txt": "x"})

	meta, ok := Exists(filepath.Join(tmp, "f.txt"))
	require.True(t, ok)
	assert.False(t, meta.IsDir)

	meta, ok = Exists(tmp)
	require.True(t, ok)
	assert.True(t, meta.IsDir)

	_, ok = Exists(filepath.Join(tmp, "nope"))
	assert.False(t, ok)

	require.NoError(t, os.Symlink(filepath.Join(tmp, "nope"), filepath.Join(tmp, "broken")))
	_, ok = Exists(filepath.Join(tmp, "broken"))
	assert.False(t, ok, "broken links read as absent")

	_, ok = Exists(strings.Repeat("x", 5000))
	assert.False(t, ok)
}

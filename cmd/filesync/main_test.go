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

package main

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

	"github.com/walteh/filesync/pkg/config"
)

func init() {
	color.NoColor = true
	pterm.DisableStyling()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

const enabledDocument = `{
  "configs": [
    {
      "name": "web",
      "enabled": true,
      "sync": [{"src": "./src", "dest": "./dist"}]
    },
    {
      "name": "later",
      "enabled": false,
      "sync": [{"src": "./a", "dest": "./b", "bidir": true}]
    }
  ]
}`

func writeProject(t *testing.T, document string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultName), []byte(document), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "css", "site.css"), []byte("body{}"), 0o644))
	return dir
}

func TestMkdefCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "mkdef", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "create default config")

	doc, err := config.Load(context.Background(), filepath.Join(dir, config.DefaultName))
	require.NoError(t, err)
	require.Len(t, doc.Configs, 1)
	assert.False(t, doc.Configs[0].Enabled)

	out, err = run(t, "mkdef", dir)
	require.NoError(t, err, "an existing document is skipped, not an error")
	assert.Contains(t, out, "already exists")

	_, err = run(t, "mkdef", dir, "--name", "fsconfig.yaml")
	require.NoError(t, err)
	_, err = config.Load(context.Background(), filepath.Join(dir, "fsconfig.yaml"))
	require.NoError(t, err)
}

func TestConfigNameFromEnvironment(t *testing.T) {
	t.Setenv("FILESYNC_CONFIG_NAME", "fsconfig.toml")
	dir := t.TempDir()

	_, err := run(t, "mkdef", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "fsconfig.toml"))
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultName))
}

func TestSyncCommand(t *testing.T) {
	dir := writeProject(t, enabledDocument)

	out, err := run(t, "sync", dir, "--retry-attempts", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "2 copied")

	got, err := os.ReadFile(filepath.Join(dir, "dist", "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
	assert.NoDirExists(t, filepath.Join(dir, "b"), "disabled groups never run")

	out, err = run(t, "sync", filepath.Join(dir, config.DefaultName))
	require.NoError(t, err)
	assert.Contains(t, out, "0 copied")
}

func TestSyncCommandReportsBrokenDocument(t *testing.T) {
	dir := writeProject(t, `{"configs": [`)

	out, err := run(t, "sync", dir)
	require.Error(t, err)
	assert.Contains(t, out, "mkdef")
	assert.NoDirExists(t, filepath.Join(dir, "dist"))
}

func TestListCommand(t *testing.T) {
	dir := writeProject(t, enabledDocument)

	out, err := run(t, "list", "--plain", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "later")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "1 documents, 2 groups, 2 rules, 0 watching")

	out, err = run(t, "ls", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT")
	assert.Contains(t, out, "bidir")
}

func TestResolveRejectsMissingPath(t *testing.T) {
	_, err := run(t, "list", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRetryAttemptsMustBePositive(t *testing.T) {
	_, err := run(t, "sync", t.TempDir(), "--retry-attempts", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry-attempts")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "filesync version info")

	info := &VersionInfo{Version: "v1.2.3", Revision: "abc", Modified: true}
	assert.Contains(t, FormatVersion(info), "abc (modified)")
}

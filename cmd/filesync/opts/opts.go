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

package opts

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/docset"
	"github.com/walteh/filesync/pkg/log"
	"github.com/walteh/filesync/pkg/mirror"
)

// 🎛️ RootOpts carries what every command shares. It is filled in by the
// root command before any subcommand runs.
type RootOpts struct {
	Logger     *log.Logger
	Sink       log.Sink
	ConfigName string
	Async      bool
	Retry      mirror.RetryPolicy
}

// NewSet creates a document set wired to the shared sink
func (o *RootOpts) NewSet(extra ...log.Sink) *docset.Set {
	return docset.New(docset.Options{
		Sink:  log.Tee(append([]log.Sink{o.Sink}, extra...)...),
		Retry: o.Retry,
		Async: o.Async,
	})
}

// 🔍 Resolve turns command arguments into document paths. Files are used as
// given; directories are searched and also returned as roots to watch. No
// arguments means the working directory.
func (o *RootOpts) Resolve(ctx context.Context, args []string) (docs []string, roots []string, err error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			docs = append(docs, p)
		}
	}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, nil, errors.Errorf("resolving %s: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, nil, errors.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			if !config.IsConfigFile(abs) && config.GetParser(abs) == nil {
				return nil, nil, errors.Errorf("%s is not a config file", arg)
			}
			add(abs)
			continue
		}

		roots = append(roots, abs)
		found, err := docset.Discover(ctx, abs)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(docs)
	return docs, roots, nil
}

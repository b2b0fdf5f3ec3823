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

package docset

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/group"
	"github.com/walteh/filesync/pkg/log"
	"github.com/walteh/filesync/pkg/mirror"
	"github.com/walteh/filesync/pkg/watch"
)

// MkdefHint is emitted after a document fails to load
const MkdefHint = "if no fsconfig file exists, make one with the 'mkdef' command."

var ErrNotLoaded = errors.New("document not loaded")

// Options configure a Set
type Options struct {
	Sink       log.Sink
	Dispatcher *watch.Dispatcher
	// Retry overrides the locked-file copy policy when Attempts is set
	Retry mirror.RetryPolicy
	// Async loads and starts documents concurrently
	Async bool
}

// 📄 Entry is a loaded document with its live groups. Only enabled groups
// are built.
type Entry struct {
	Path   string
	Config *config.Document
	Groups []*group.Group
}

// 📚 Set holds every loaded document, keyed by absolute path
type Set struct {
	opts  Options
	sync  *mirror.Synchronizer
	loads singleflight.Group

	mu   sync.Mutex
	docs map[string]*Entry
}

func New(opts Options) *Set {
	if opts.Sink == nil {
		opts.Sink = log.Discard
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = watch.NewDispatcher()
	}
	var mopts []mirror.Option
	if opts.Retry.Attempts > 0 {
		mopts = append(mopts, mirror.WithRetry(opts.Retry))
	}
	return &Set{
		opts: opts,
		sync: mirror.New(opts.Sink, mopts...),
		docs: map[string]*Entry{},
	}
}

// 🎯 Load parses the document at path, replacing (and first stopping) any
// entry already loaded from it. With start set, every enabled group starts
// watching. A document that fails to parse is reported and left unloaded.
func (s *Set) Load(ctx context.Context, path string, start bool) (*Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}

	v, err, _ := s.loads.Do(abs+"|"+strconv.FormatBool(start), func() (any, error) {
		return s.load(ctx, abs, start)
	})
	if v == nil {
		return nil, err
	}
	return v.(*Entry), err
}

func (s *Set) load(ctx context.Context, path string, start bool) (*Entry, error) {
	logger := zerolog.Ctx(ctx)

	if err := s.Unload(ctx, path); err != nil && !errors.Is(err, ErrNotLoaded) {
		logger.Warn().Err(err).Str("path", path).Msg("stopping previous document")
	}

	doc, err := config.Load(ctx, path)
	if err != nil {
		s.opts.Sink.Emit(ctx, log.NewFailure(log.KindInitialize, log.ActionLoadConfig, log.PathData{Src: path}, err))
		s.opts.Sink.Emit(ctx, log.NewEvent(log.KindInfo, MkdefHint, nil))
		return nil, errors.Errorf("loading %s: %w", path, err)
	}

	entry := &Entry{Path: path, Config: doc}
	gopts := group.Options{
		Reconciler: s.sync,
		Sink:       s.opts.Sink,
		Dispatcher: s.opts.Dispatcher,
	}
	for _, cfg := range doc.Configs {
		if !cfg.Enabled {
			logger.Debug().Str("group", cfg.Name).Msg("group disabled")
			continue
		}
		entry.Groups = append(entry.Groups, group.New(cfg, doc.Dir(), gopts))
	}

	s.mu.Lock()
	s.docs[path] = entry
	s.mu.Unlock()

	logger.Info().Str("path", path).Int("groups", len(entry.Groups)).Msg("loaded config")

	if start {
		if err := s.startEntry(ctx, entry); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// LoadAll loads every path, in parallel when Async is set. Failures do not
// stop other documents from loading.
func (s *Set) LoadAll(ctx context.Context, paths []string, start bool) error {
	errs := make([]error, len(paths))
	var eg errgroup.Group
	if !s.opts.Async {
		eg.SetLimit(1)
	}
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			_, errs[i] = s.Load(ctx, p, start)
			return nil
		})
	}
	_ = eg.Wait()
	return errors.Join(errs...)
}

// Unload stops every group of the document at path and forgets it
func (s *Set) Unload(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Errorf("resolving config path: %w", err)
	}

	s.mu.Lock()
	entry, ok := s.docs[abs]
	delete(s.docs, abs)
	s.mu.Unlock()

	if !ok {
		return errors.Errorf("%s: %w", abs, ErrNotLoaded)
	}
	return stopEntry(ctx, entry)
}

// ▶️ StartAll starts the given documents, or every document when none are
// named.
func (s *Set) StartAll(ctx context.Context, paths ...string) error {
	entries, err := s.lookup(paths)
	if err != nil {
		return err
	}
	errs := make([]error, len(entries))
	var eg errgroup.Group
	if !s.opts.Async {
		eg.SetLimit(1)
	}
	for i, e := range entries {
		i, e := i, e
		eg.Go(func() error {
			errs[i] = s.startEntry(ctx, e)
			return nil
		})
	}
	_ = eg.Wait()
	return errors.Join(errs...)
}

// ⏹️ StopAll stops the given documents, or every document when none are
// named. Documents stay loaded.
func (s *Set) StopAll(ctx context.Context, paths ...string) error {
	entries, err := s.lookup(paths)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		errs = append(errs, stopEntry(ctx, e))
	}
	return errors.Join(errs...)
}

// SyncOnce runs a single pass over every enabled rule of every document
func (s *Set) SyncOnce(ctx context.Context) error {
	var errs []error
	for _, e := range s.Documents() {
		for _, g := range e.Groups {
			errs = append(errs, g.SyncOnce(ctx))
		}
	}
	return errors.Join(errs...)
}

// Close unloads every document
func (s *Set) Close(ctx context.Context) error {
	var errs []error
	for _, e := range s.Documents() {
		if err := s.Unload(ctx, e.Path); err != nil && !errors.Is(err, ErrNotLoaded) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the entry loaded from path
func (s *Set) Get(path string) (*Entry, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[abs]
	return e, ok
}

// Documents returns every loaded entry sorted by path
func (s *Set) Documents() []*Entry {
	s.mu.Lock()
	out := make([]*Entry, 0, len(s.docs))
	for _, e := range s.docs {
		out = append(out, e)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (s *Set) lookup(paths []string) ([]*Entry, error) {
	if len(paths) == 0 {
		return s.Documents(), nil
	}
	out := make([]*Entry, 0, len(paths))
	for _, p := range paths {
		e, ok := s.Get(p)
		if !ok {
			return nil, errors.Errorf("%s: %w", p, ErrNotLoaded)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Set) startEntry(ctx context.Context, e *Entry) error {
	var errs []error
	for _, g := range e.Groups {
		errs = append(errs, g.StartAll(ctx))
	}
	return errors.Join(errs...)
}

func stopEntry(ctx context.Context, e *Entry) error {
	var errs []error
	for _, g := range e.Groups {
		errs = append(errs, g.StopAll(ctx))
	}
	return errors.Join(errs...)
}

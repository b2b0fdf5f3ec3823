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

package watch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/pkg/log"
	"github.com/walteh/filesync/pkg/mirror"
)

// State of a Session
type State int

const (
	Stopped State = iota
	Watching
)

func (s State) String() string {
	if s == Watching {
		return "watching"
	}
	return "stopped"
}

// 🔧 Reconciler is the engine a session drives
type Reconciler interface {
	Reconcile(ctx context.Context, rel string, rule *mirror.Rule)
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithDispatcher shares a dispatcher between sessions so their reconciles
// never overlap.
func WithDispatcher(d *Dispatcher) SessionOption {
	return func(s *Session) {
		s.dispatcher = d
	}
}

// WithStateHook registers fn to be called after every state transition.
func WithStateHook(fn func(State)) SessionOption {
	return func(s *Session) {
		s.hook = fn
	}
}

// 👀 Session keeps one rule's destination in step with its source. It holds
// at most one Tree at a time.
type Session struct {
	rule       *mirror.Rule
	baseDir    string
	reconciler Reconciler
	sink       log.Sink
	dispatcher *Dispatcher
	hook       func(State)

	mu            sync.Mutex
	resolved      bool
	starting      bool
	stopRequested bool
	tree          *Tree
}

// NewSession creates a stopped session for rule. Relative src and dest are
// resolved against baseDir on first use.
func NewSession(rule *mirror.Rule, baseDir string, reconciler Reconciler, sink log.Sink, opts ...SessionOption) *Session {
	if sink == nil {
		sink = log.Discard
	}
	s := &Session{
		rule:       rule,
		baseDir:    baseDir,
		reconciler: reconciler,
		sink:       sink,
		dispatcher: NewDispatcher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rule returns the session's rule. Its paths are absolute once the session
// has started or synced.
func (s *Session) Rule() *mirror.Rule {
	return s.rule
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree != nil {
		return Watching
	}
	return Stopped
}

func (s *Session) Active() bool {
	return s.State() == Watching
}

// ▶️ Start runs a bootstrap pass and attaches a watch on the source root. It
// is a no-op while the session is watching or already starting. Watching
// ends with Stop, cancellation of ctx or removal of the source root.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.tree != nil || s.starting {
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	s.stopRequested = false
	err := s.resolve()
	s.mu.Unlock()

	if err != nil {
		s.finishStart(nil)
		s.sink.Emit(ctx, log.NewFailure(log.KindFileSync, log.ActionNotWatching, s.paths(), err))
		return err
	}

	s.bootstrap(ctx)

	tree, err := Watch(ctx, s.rule.Src, s.rule.Ignored)
	if err != nil {
		s.finishStart(nil)
		s.sink.Emit(ctx, log.NewFailure(log.KindFileSync, log.ActionNotWatching, s.paths(), err))
		return errors.Errorf("starting watch: %w", err)
	}

	if !s.finishStart(tree) {
		// stopped while the bootstrap pass ran
		_ = tree.Close()
		return nil
	}

	s.notify(Watching)
	s.sink.Emit(ctx, log.NewEvent(log.KindFileSync, log.ActionWatching, s.paths()))
	go s.loop(ctx, tree)
	return nil
}

// ⏹️ Stop closes the watch. No files are touched. Stopping a stopped session
// is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.starting {
		s.stopRequested = true
	}
	tree := s.tree
	s.mu.Unlock()

	if tree == nil {
		return nil
	}
	return s.detach(ctx, tree)
}

// SyncOnce runs a single full pass without attaching a watch
func (s *Session) SyncOnce(ctx context.Context) error {
	s.mu.Lock()
	err := s.resolve()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bootstrap(ctx)
	return nil
}

func (s *Session) bootstrap(ctx context.Context) {
	zerolog.Ctx(ctx).Debug().Str("src", s.rule.Src).Str("dest", s.rule.Dest).Msg("bootstrap pass")
	s.dispatcher.Do(func() {
		s.reconciler.Reconcile(ctx, "", s.rule)
	})
}

func (s *Session) loop(ctx context.Context, tree *Tree) {
	for {
		select {
		case <-ctx.Done():
			_ = s.detach(context.WithoutCancel(ctx), tree)
			return
		case change, ok := <-tree.Changes():
			if !ok {
				_ = s.detach(ctx, tree)
				return
			}
			s.dispatcher.Do(func() {
				if !s.attached(tree) {
					return
				}
				zerolog.Ctx(ctx).Debug().Str("rel", change.Rel).Stringer("op", change.Op).Msg("change")
				s.reconciler.Reconcile(ctx, change.Rel, s.rule)
			})
		}
	}
}

// finishStart ends the starting phase, recording tree unless a stop arrived
// in the meantime.
func (s *Session) finishStart(tree *Tree) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if tree == nil || s.stopRequested {
		return false
	}
	s.tree = tree
	return true
}

func (s *Session) attached(tree *Tree) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree == tree
}

func (s *Session) detach(ctx context.Context, tree *Tree) error {
	s.mu.Lock()
	if s.tree != tree {
		s.mu.Unlock()
		return nil
	}
	s.tree = nil
	s.mu.Unlock()

	err := tree.Close()
	s.notify(Stopped)
	s.sink.Emit(ctx, log.NewEvent(log.KindFileSync, log.ActionClosed, s.paths()))
	if err != nil {
		return errors.Errorf("closing watch: %w", err)
	}
	return nil
}

// resolve makes src and dest absolute, exactly once. Callers hold s.mu.
func (s *Session) resolve() error {
	if s.resolved {
		return nil
	}
	src, err := absolute(s.baseDir, s.rule.Src)
	if err != nil {
		return errors.Errorf("resolving src: %w", err)
	}
	dest, err := absolute(s.baseDir, s.rule.Dest)
	if err != nil {
		return errors.Errorf("resolving dest: %w", err)
	}
	s.rule.Src, s.rule.Dest = src, dest
	s.resolved = true
	return nil
}

func (s *Session) notify(state State) {
	if s.hook != nil {
		s.hook(state)
	}
}

func (s *Session) paths() log.PathData {
	return log.PathData{Src: s.rule.Src, Dest: s.rule.Dest}
}

func absolute(base, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}

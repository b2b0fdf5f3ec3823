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

package group

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/log"
	"github.com/walteh/filesync/pkg/mirror"
	"github.com/walteh/filesync/pkg/watch"
)

var (
	ErrDisabled     = errors.New("group is disabled")
	ErrRuleNotFound = errors.New("rule not found")
)

// Options are shared by every session a group creates
type Options struct {
	Reconciler watch.Reconciler
	Sink       log.Sink
	Dispatcher *watch.Dispatcher
}

// 🔗 Rule is one configured rule plus the session that watches it. The
// session is created on first use and kept for the rule's lifetime.
type Rule struct {
	baseDir string
	opts    Options

	mu      sync.Mutex
	config  config.Rule
	session *watch.Session
}

// 📦 Group is a named set of rules started and stopped together
type Group struct {
	Name    string
	Enabled bool

	rules []*Rule
}

// New builds a group from its configuration. Relative rule paths resolve
// against baseDir.
func New(cfg config.Group, baseDir string, opts Options) *Group {
	if opts.Sink == nil {
		opts.Sink = log.Discard
	}
	if opts.Reconciler == nil {
		opts.Reconciler = mirror.New(opts.Sink)
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = watch.NewDispatcher()
	}

	g := &Group{
		Name:    cfg.Name,
		Enabled: cfg.Enabled,
		rules:   make([]*Rule, 0, len(cfg.Sync)),
	}
	for _, rc := range cfg.Sync {
		g.rules = append(g.rules, &Rule{
			baseDir: baseDir,
			opts:    opts,
			config:  rc,
		})
	}
	return g
}

// Rules returns the rules in declaration order
func (g *Group) Rules() []*Rule {
	return g.rules
}

// ▶️ StartAll starts every rule in declaration order. A failing rule does not
// keep later rules from starting; all failures are returned together.
// Disabled groups never start.
func (g *Group) StartAll(ctx context.Context) error {
	if !g.Enabled {
		return nil
	}
	var errs []error
	for i, r := range g.rules {
		if err := r.start(ctx); err != nil {
			errs = append(errs, errors.Errorf("%s rule %d: %w", g.Name, i, err))
		}
	}
	return errors.Join(errs...)
}

// ⏹️ StopAll stops every rule in declaration order
func (g *Group) StopAll(ctx context.Context) error {
	var errs []error
	for i, r := range g.rules {
		if err := r.stop(ctx); err != nil {
			errs = append(errs, errors.Errorf("%s rule %d: %w", g.Name, i, err))
		}
	}
	return errors.Join(errs...)
}

// Start starts a single rule
func (g *Group) Start(ctx context.Context, i int) error {
	r, err := g.rule(i)
	if err != nil {
		return err
	}
	if !g.Enabled {
		return errors.Errorf("%s: %w", g.Name, ErrDisabled)
	}
	return r.start(ctx)
}

// Stop stops a single rule
func (g *Group) Stop(ctx context.Context, i int) error {
	r, err := g.rule(i)
	if err != nil {
		return err
	}
	return r.stop(ctx)
}

// 🔄 SyncOnce runs one full pass for every rule without watching
func (g *Group) SyncOnce(ctx context.Context) error {
	if !g.Enabled {
		return nil
	}
	var errs []error
	for i, r := range g.rules {
		if err := r.ensureSession().SyncOnce(ctx); err != nil {
			errs = append(errs, errors.Errorf("%s rule %d: %w", g.Name, i, err))
		}
	}
	return errors.Join(errs...)
}

// ActiveCount is the number of rules currently watching
func (g *Group) ActiveCount() int {
	n := 0
	for _, r := range g.rules {
		if r.Active() {
			n++
		}
	}
	return n
}

func (g *Group) rule(i int) (*Rule, error) {
	if i < 0 || i >= len(g.rules) {
		return nil, errors.Errorf("%s rule %d: %w", g.Name, i, ErrRuleNotFound)
	}
	return g.rules[i], nil
}

// Config returns the rule's configuration. Active follows the session.
func (r *Rule) Config() config.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

// Active reports whether the rule has an attached watch
func (r *Rule) Active() bool {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	return s != nil && s.Active()
}

// Session returns the rule's session, or nil before first use
func (r *Rule) Session() *watch.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *Rule) start(ctx context.Context) error {
	return r.ensureSession().Start(ctx)
}

func (r *Rule) stop(ctx context.Context) error {
	s := r.Session()
	if s == nil {
		return nil
	}
	return s.Stop(ctx)
}

func (r *Rule) ensureSession() *watch.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return r.session
	}

	rule := &mirror.Rule{
		Src:    r.config.Src,
		Dest:   r.config.Dest,
		Files:  []string(r.config.Files),
		Ignore: []string(r.config.Ignore),
		Bidir:  r.config.Bidir,
	}
	r.session = watch.NewSession(rule, r.baseDir, r.opts.Reconciler, r.opts.Sink,
		watch.WithDispatcher(r.opts.Dispatcher),
		watch.WithStateHook(r.setActive),
	)
	return r.session
}

func (r *Rule) setActive(state watch.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Active = state == watch.Watching
}

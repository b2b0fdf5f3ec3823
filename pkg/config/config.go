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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultName is the document name the default template is written to
const DefaultName = "fsconfig.json"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the document from bytes
	Parse(ctx context.Context, data []byte) (*Document, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

// 🖨️ Encoder renders a document back into a parser's format
type Encoder interface {
	Encode(doc *Document) ([]byte, error)
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Document is one parsed configuration file
type Document struct {
	Configs []Group `json:"configs" yaml:"configs" toml:"configs"`

	// Path is the file the document was loaded from
	Path string `json:"-" yaml:"-" toml:"-"`
}

// 📦 Group is a named, switchable set of sync rules
type Group struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Sync    RuleList `json:"sync" yaml:"sync" toml:"sync"`
}

// 🔗 Rule mirrors one source tree onto one destination tree
type Rule struct {
	Src    string     `json:"src" yaml:"src" toml:"src"`
	Dest   string     `json:"dest" yaml:"dest" toml:"dest"`
	Files  StringList `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
	Ignore StringList `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	Bidir  bool       `json:"bidir" yaml:"bidir" toml:"bidir"`
	Active bool       `json:"active" yaml:"active" toml:"active"`
}

// StringList accepts either a single string or a list of strings
type StringList []string

// RuleList accepts either a single rule or a list of rules
type RuleList []Rule

// 🎯 Load reads, parses and validates the document at path
func Load(ctx context.Context, path string) (*Document, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	doc, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	doc.Path = path
	return doc, nil
}

// 🔍 Validate checks required fields of enabled groups and cleans filter
// entries
func (doc *Document) Validate() error {
	for i := range doc.Configs {
		g := &doc.Configs[i]
		g.Name = strings.TrimSpace(g.Name)
		if g.Name == "" {
			g.Name = fmt.Sprintf("group-%d", i)
		}
		for j := range g.Sync {
			r := &g.Sync[j]
			// disabled groups are never built, so half written rules are fine there
			if g.Enabled && strings.TrimSpace(r.Src) == "" {
				return errors.Errorf("configs[%d].sync[%d].src is required", i, j)
			}
			if g.Enabled && strings.TrimSpace(r.Dest) == "" {
				return errors.Errorf("configs[%d].sync[%d].dest is required", i, j)
			}
			r.Files = r.Files.clean()
			r.Ignore = r.Ignore.clean()
		}
	}
	return nil
}

// Dir is the directory relative rule paths resolve against
func (doc *Document) Dir() string {
	return filepath.Dir(doc.Path)
}

// 📝 String returns a short description of the rule
func (r Rule) String() string {
	arrow := "->"
	if r.Bidir {
		arrow = "<->"
	}
	return fmt.Sprintf("%s %s %s", r.Src, arrow, r.Dest)
}

func (l StringList) clean() StringList {
	var out StringList
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// 🔎 IsConfigFile reports whether name is a recognized document file name
func IsConfigFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	switch base {
	case "fsconfig.json", "fsconfig.yaml", "fsconfig.yml", "fsconfig.toml", "fsconfig.hcl":
		return true
	}
	return false
}

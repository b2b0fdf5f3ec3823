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
	"bytes"
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&TOMLParser{})
}

// 🔧 TOMLParser implements the Parser interface for TOML files
type TOMLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *TOMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".toml")
}

// 📝 Parse parses the document from TOML. Keys the model does not know are
// an error.
func (p *TOMLParser) Parse(ctx context.Context, data []byte) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.Errorf("parsing TOML: unknown keys %s", strings.Join(keys, ", "))
	}
	return &doc, nil
}

// Encode renders doc as TOML
func (p *TOMLParser) Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, errors.Errorf("encoding TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalTOML accepts a string as well as an array of strings
func (l *StringList) UnmarshalTOML(v any) error {
	list, err := stringsFromTOML(v)
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// UnmarshalTOML accepts a single [configs.sync] table as well as an array
// of [[configs.sync]] tables.
func (l *RuleList) UnmarshalTOML(v any) error {
	var tables []map[string]any
	switch t := v.(type) {
	case map[string]any:
		tables = []map[string]any{t}
	case []map[string]any:
		tables = t
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return errors.Errorf("expected a sync table, got %T", item)
			}
			tables = append(tables, m)
		}
	default:
		return errors.Errorf("expected a sync table or an array of sync tables, got %T", v)
	}

	rules := make(RuleList, 0, len(tables))
	for _, table := range tables {
		r, err := ruleFromTOML(table)
		if err != nil {
			return err
		}
		rules = append(rules, r)
	}
	*l = rules
	return nil
}

func ruleFromTOML(table map[string]any) (Rule, error) {
	var r Rule
	for key, value := range table {
		var err error
		switch key {
		case "src":
			r.Src, err = tomlString(key, value)
		case "dest":
			r.Dest, err = tomlString(key, value)
		case "files":
			r.Files, err = stringsFromTOML(value)
		case "ignore":
			r.Ignore, err = stringsFromTOML(value)
		case "bidir":
			r.Bidir, err = tomlBool(key, value)
		case "active":
			r.Active, err = tomlBool(key, value)
		default:
			err = errors.Errorf("unknown sync key %q", key)
		}
		if err != nil {
			return Rule{}, err
		}
	}
	return r, nil
}

func stringsFromTOML(v any) (StringList, error) {
	switch t := v.(type) {
	case string:
		return StringList{t}, nil
	case []any:
		out := make(StringList, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("expected a list of strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.Errorf("expected a string or a list of strings, got %T", v)
}

func tomlString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("%s: expected a string, got %T", key, v)
	}
	return s, nil
}

func tomlBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("%s: expected a boolean, got %T", key, v)
	}
	return b, nil
}

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

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(&YAMLParser{})
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *YAMLParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// 📝 Parse parses the document from YAML
func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &doc, nil
}

// Encode renders doc as YAML
func (p *YAMLParser) Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML accepts a scalar as well as a sequence of scalars
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return errors.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// UnmarshalYAML accepts a single rule mapping as well as a sequence of them.
// Unknown rule keys are rejected.
func (l *RuleList) UnmarshalYAML(value *yaml.Node) error {
	var nodes []*yaml.Node
	switch value.Kind {
	case yaml.MappingNode:
		nodes = []*yaml.Node{value}
	case yaml.SequenceNode:
		nodes = value.Content
	default:
		return errors.Errorf("line %d: expected a rule or a list of rules", value.Line)
	}

	rules := make(RuleList, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != yaml.MappingNode {
			return errors.Errorf("line %d: expected a rule mapping", n.Line)
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if key := n.Content[i]; !isRuleKey(key.Value) {
				return errors.Errorf("line %d: field %s not found in rule", key.Line, key.Value)
			}
		}
		var r Rule
		if err := n.Decode(&r); err != nil {
			return err
		}
		rules = append(rules, r)
	}
	*l = rules
	return nil
}

func isRuleKey(key string) bool {
	switch key {
	case "src", "dest", "files", "ignore", "bidir", "active":
		return true
	}
	return false
}

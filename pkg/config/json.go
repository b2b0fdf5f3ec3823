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
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".json")
}

// 📝 Parse parses the document from JSON bytes
func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Document, error) {
	var doc Document
	if err := strictJSON(data, &doc); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &doc, nil
}

// Encode renders doc as indented JSON
func (p *JSONParser) Encode(doc *Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding JSON: %w", err)
	}
	return append(out, '\n'), nil
}

func strictJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// UnmarshalJSON accepts "x" as well as ["x", "y"]
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return errors.Errorf("expected a string or a list of strings: %w", err)
	}
	*l = list
	return nil
}

// UnmarshalJSON accepts a single rule object as well as a list of rules
func (l *RuleList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var r Rule
		if err := strictJSON(trimmed, &r); err != nil {
			return err
		}
		*l = RuleList{r}
		return nil
	}
	var rules []Rule
	if err := strictJSON(trimmed, &rules); err != nil {
		return err
	}
	*l = rules
	return nil
}

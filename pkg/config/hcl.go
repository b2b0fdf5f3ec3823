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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
//
//	config "docs" {
//	  enabled = true
//	  sync {
//	    src    = "docs"
//	    dest   = "site/docs"
//	    ignore = ["drafts", "**/*.tmp"]
//	  }
//	}
type HCLParser struct{}

type hclDocument struct {
	Configs []hclGroup `hcl:"config,block"`
}

type hclGroup struct {
	Name    string    `hcl:"name,label"`
	Enabled bool      `hcl:"enabled,optional"`
	Sync    []hclRule `hcl:"sync,block"`
}

type hclRule struct {
	Src    string    `hcl:"src"`
	Dest   string    `hcl:"dest"`
	Files  cty.Value `hcl:"files,optional"`
	Ignore cty.Value `hcl:"ignore,optional"`
	Bidir  bool      `hcl:"bidir,optional"`
	Active bool      `hcl:"active,optional"`
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the document from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Document, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "fsconfig.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclDocument
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	doc := &Document{}
	for _, g := range raw.Configs {
		group := Group{Name: g.Name, Enabled: g.Enabled}
		for _, r := range g.Sync {
			files, err := stringsFromCty("files", r.Files)
			if err != nil {
				return nil, err
			}
			ignore, err := stringsFromCty("ignore", r.Ignore)
			if err != nil {
				return nil, err
			}
			group.Sync = append(group.Sync, Rule{
				Src:    r.Src,
				Dest:   r.Dest,
				Files:  files,
				Ignore: ignore,
				Bidir:  r.Bidir,
				Active: r.Active,
			})
		}
		doc.Configs = append(doc.Configs, group)
	}

	return doc, nil
}

// Encode renders doc as HCL
func (p *HCLParser) Encode(doc *Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for i, g := range doc.Configs {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("config", []string{g.Name}).Body()
		block.SetAttributeValue("enabled", cty.BoolVal(g.Enabled))
		for _, r := range g.Sync {
			rule := block.AppendNewBlock("sync", nil).Body()
			rule.SetAttributeValue("src", cty.StringVal(r.Src))
			rule.SetAttributeValue("dest", cty.StringVal(r.Dest))
			if len(r.Files) > 0 {
				rule.SetAttributeValue("files", ctyStrings(r.Files))
			}
			if len(r.Ignore) > 0 {
				rule.SetAttributeValue("ignore", ctyStrings(r.Ignore))
			}
			rule.SetAttributeValue("bidir", cty.BoolVal(r.Bidir))
			rule.SetAttributeValue("active", cty.BoolVal(r.Active))
		}
	}
	return f.Bytes(), nil
}

// stringsFromCty accepts a string or a tuple/list of strings
func stringsFromCty(name string, v cty.Value) (StringList, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.Errorf("%s: value is not known", name)
	}
	if v.Type().Equals(cty.String) {
		return StringList{v.AsString()}, nil
	}
	if !v.CanIterateElements() || v.Type().IsMapType() || v.Type().IsObjectType() {
		return nil, errors.Errorf("%s: expected a string or a list of strings, got %s", name, v.Type().FriendlyName())
	}

	var out StringList
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || !elem.Type().Equals(cty.String) {
			return nil, errors.Errorf("%s: expected a list of strings", name)
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

func ctyStrings(list StringList) cty.Value {
	vals := make([]cty.Value, 0, len(list))
	for _, s := range list {
		vals = append(vals, cty.StringVal(s))
	}
	return cty.ListVal(vals)
}

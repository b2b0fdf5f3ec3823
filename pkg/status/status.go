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

package status

import (
	"github.com/walteh/filesync/pkg/docset"
)

// 📋 Row is one rule as listed to the user
type Row struct {
	Document string
	Group    string
	Enabled  bool
	Index    int
	Src      string
	Dest     string
	Files    int
	Bidir    bool
	Active   bool
}

// 📊 Summary totals a set of rows
type Summary struct {
	Documents int
	Groups    int
	Rules     int
	Active    int
}

// 🎯 Collect lists every rule of every loaded document, in document order
// then declaration order.
func Collect(set *docset.Set) []Row {
	var rows []Row
	for _, entry := range set.Documents() {
		live := 0
		for _, cfg := range entry.Config.Configs {
			var rules []bool
			if cfg.Enabled && live < len(entry.Groups) {
				for _, r := range entry.Groups[live].Rules() {
					rules = append(rules, r.Active())
				}
				live++
			}
			for i, rc := range cfg.Sync {
				rows = append(rows, Row{
					Document: entry.Path,
					Group:    cfg.Name,
					Enabled:  cfg.Enabled,
					Index:    i,
					Src:      rc.Src,
					Dest:     rc.Dest,
					Files:    len(rc.Files),
					Bidir:    rc.Bidir,
					Active:   i < len(rules) && rules[i],
				})
			}
		}
	}
	return rows
}

// Summarize counts documents, groups, rules and active rules
func Summarize(rows []Row) Summary {
	var s Summary
	docs := map[string]bool{}
	groups := map[string]bool{}
	for _, r := range rows {
		if !docs[r.Document] {
			docs[r.Document] = true
			s.Documents++
		}
		if key := r.Document + "\x00" + r.Group; !groups[key] {
			groups[key] = true
			s.Groups++
		}
		s.Rules++
		if r.Active {
			s.Active++
		}
	}
	return s
}

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

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walteh/filesync/cmd/filesync/opts"
	"github.com/walteh/filesync/pkg/status"
)

// NewListCmd creates the list command
func NewListCmd(o *opts.RootOpts) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:     "list [path...]",
		Aliases: []string{"ls"},
		Short:   "Show documents, groups and rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			docs, _, err := o.Resolve(ctx, args)
			if err != nil {
				return err
			}

			set := o.NewSet()
			defer set.Close(ctx)

			// broken documents are reported through the sink and left out
			_ = set.LoadAll(ctx, docs, false)

			rows := status.Collect(set)
			out := cmd.OutOrStdout()
			if plain {
				for _, r := range rows {
					fmt.Fprintln(out, status.FormatRow(r))
				}
			} else if err := status.Render(out, rows); err != nil {
				return err
			}

			fmt.Fprintln(out, status.FormatSummary(status.Summarize(rows)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per rule instead of a table")

	return cmd
}

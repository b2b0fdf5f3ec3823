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
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/cmd/filesync/opts"
	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/log"
)

// NewMkdefCmd creates the mkdef command
func NewMkdefCmd(o *opts.RootOpts) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "mkdef [dir]",
		Short: "Write a default fsconfig document",
		Long: `Mkdef writes a disabled example document into dir (default: the
working directory). The format follows the file extension of --name.
An existing document is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if name == "" {
				name = o.ConfigName
			}

			path, err := config.CreateDefault(ctx, dir, name)
			switch {
			case errors.Is(err, config.ErrConfigExists):
				o.Logger.Warningf("skipped: %s already exists", filepath.Join(dir, name))
				return nil
			case err != nil:
				o.Sink.Emit(ctx, log.NewFailure(log.KindInitialize, log.ActionCreateDefault, log.PathData{Dest: filepath.Join(dir, name)}, err))
				return err
			}

			o.Sink.Emit(ctx, log.NewEvent(log.KindInitialize, log.ActionCreateDefault, log.PathData{Dest: path}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "document file name (default from --config-name)")

	return cmd
}

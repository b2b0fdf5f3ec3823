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
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/filesync/cmd/filesync/opts"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Mirror every enabled rule and keep following changes",
		Long: `Watch loads every fsconfig document found under the given paths,
starts all enabled sync groups and keeps them mirrored until interrupted.
Documents created, changed or removed below a watched directory are
picked up while running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "watch").Logger().WithContext(cmd.Context())

			docs, roots, err := o.Resolve(ctx, args)
			if err != nil {
				return err
			}

			set := o.NewSet()
			defer func() {
				if err := set.Close(context.WithoutCancel(ctx)); err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Msg("closing documents")
				}
			}()

			o.Logger.Headerf("watching %d documents", len(docs))
			if err := set.LoadAll(ctx, docs, true); err != nil {
				// documents that failed are reported through the sink; keep the rest running
				zerolog.Ctx(ctx).Warn().Err(err).Msg("loading documents")
			}

			eg, ectx := errgroup.WithContext(ctx)
			for _, root := range roots {
				root := root
				eg.Go(func() error {
					return set.Watch(ectx, root)
				})
			}
			eg.Go(func() error {
				<-ectx.Done()
				return nil
			})

			if err := eg.Wait(); err != nil {
				return errors.Errorf("watching: %w", err)
			}
			return nil
		},
	}

	return cmd
}

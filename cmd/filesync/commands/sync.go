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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/filesync/cmd/filesync/opts"
	"github.com/walteh/filesync/pkg/log"
)

// NewSyncCmd creates the sync command
func NewSyncCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [path...]",
		Short: "Run one mirror pass over every enabled rule",
		Long: `Sync loads every fsconfig document found under the given paths and
reconciles each enabled rule once, without watching. It fails when any
copy, create or delete failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "sync").Logger().WithContext(cmd.Context())

			docs, _, err := o.Resolve(ctx, args)
			if err != nil {
				return err
			}

			rec := log.NewRecorder()
			set := o.NewSet(rec)
			defer set.Close(ctx)

			o.Logger.Headerf("syncing %d documents", len(docs))
			loadErr := set.LoadAll(ctx, docs, false)
			if err := set.SyncOnce(ctx); err != nil {
				return errors.Errorf("syncing: %w", err)
			}

			o.Logger.Successf("%d copied, %d created, %d deleted",
				rec.Count(log.KindFile, log.ActionCopy),
				rec.Count(log.KindDir, log.ActionCreate),
				rec.Count(log.KindFile, log.ActionDelete)+rec.Count(log.KindDir, log.ActionDelete),
			)

			if loadErr != nil {
				return errors.Errorf("loading documents: %w", loadErr)
			}
			if failures := rec.Failures(); len(failures) > 0 {
				return errors.Errorf("%d sync operations failed", len(failures))
			}
			return nil
		},
	}

	return cmd
}

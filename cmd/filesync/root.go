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

package main

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/walteh/filesync/cmd/filesync/commands"
	"github.com/walteh/filesync/cmd/filesync/opts"
	"github.com/walteh/filesync/pkg/config"
	"github.com/walteh/filesync/pkg/log"
	"github.com/walteh/filesync/pkg/mirror"
)

// NewRootCmd builds the filesync command tree. Every flag can also be set
// through a FILESYNC_ prefixed environment variable.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FILESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootOpts := &opts.RootOpts{}
	var logFile *lumberjack.Logger

	cmd := &cobra.Command{
		Use:           "filesync",
		Short:         "🔄 Keep directories mirrored from fsconfig documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configure(cmd, v, rootOpts, &logFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
	}

	addRootFlags(cmd, v)

	cmd.AddCommand(
		commands.NewWatchCmd(rootOpts),
		commands.NewSyncCmd(rootOpts),
		commands.NewMkdefCmd(rootOpts),
		commands.NewListCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "enable debug logging")
	flags.String("log-file", "", "also write structured logs to this file")
	flags.String("config-name", config.DefaultName, "file name used by mkdef")
	flags.Bool("async", false, "load and start documents concurrently")
	flags.Int("retry-attempts", mirror.DefaultRetryPolicy().Attempts, "copy attempts for a locked source file")

	for _, name := range []string{"debug", "log-file", "config-name", "async", "retry-attempts"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
}

// configure sets up logging and fills the shared options
func configure(cmd *cobra.Command, v *viper.Viper, o *opts.RootOpts, logFile **lumberjack.Logger) error {
	level := zerolog.InfoLevel
	if v.GetBool("debug") {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}
	var diag io.Writer = console
	fileLogger := zerolog.Nop()

	if path := v.GetString("log-file"); path != "" {
		*logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		diag = zerolog.MultiLevelWriter(console, *logFile)
		fileLogger = zerolog.New(*logFile).Level(level).With().Timestamp().Logger()
	}

	logger := zerolog.New(diag).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	attempts := v.GetInt("retry-attempts")
	if attempts < 1 {
		return errors.Errorf("retry-attempts must be at least 1, got %d", attempts)
	}
	retry := mirror.DefaultRetryPolicy()
	retry.Attempts = attempts

	o.Logger = log.New(cmd.OutOrStdout(), fileLogger)
	o.Sink = o.Logger
	o.ConfigName = v.GetString("config-name")
	o.Async = v.GetBool("async")
	o.Retry = retry

	logger.Debug().
		Str("config_name", o.ConfigName).
		Bool("async", o.Async).
		Int("retry_attempts", attempts).
		Msg("configured")

	return nil
}

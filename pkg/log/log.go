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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎯 Logger renders sync events to a console and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 Emit prints the event line and records it as a zerolog entry
func (l *Logger) Emit(ctx context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatConsole(ev))

	var entry *zerolog.Event
	if ev.Err != nil {
		entry = l.zlog.Error().Err(ev.Err)
	} else {
		entry = l.zlog.Info()
	}
	entry.
		Str("kind", string(ev.Kind)).
		Str("action", ev.Action).
		Interface("data", ev.Data).
		Time("at", ev.Timestamp).
		Msg("sync event")
}

// 🎨 formatConsole adds a colored status symbol in front of the plain event line
func (l *Logger) formatConsole(ev Event) string {
	var symbol string
	var symbolColor color.Attribute
	switch {
	case ev.Err != nil:
		symbol, symbolColor = "✗", color.FgRed
	case ev.Action == ActionCreate:
		symbol, symbolColor = "✓", color.FgGreen
	case ev.Action == ActionCopy:
		symbol, symbolColor = "⟳", color.FgBlue
	case ev.Action == ActionDelete:
		symbol, symbolColor = "-", color.FgYellow
	case ev.Kind == KindFileSync:
		symbol, symbolColor = "◆", color.FgMagenta
	default:
		symbol, symbolColor = "•", color.FgCyan
	}
	return fmt.Sprintf("%s %s", color.New(symbolColor).Sprint(symbol), FormatEvent(ev))
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("filesync")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Headerf logs a formatted header
func (l *Logger) Headerf(format string, args ...interface{}) {
	l.Header(fmt.Sprintf(format, args...))
}

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
	"time"
)

// 🏷️ Kind groups sync events by what they touched
type Kind string

const (
	KindDir        Kind = "dir"
	KindFile       Kind = "file"
	KindFileSync   Kind = "filesync"
	KindInitialize Kind = "initialize"
	KindInfo       Kind = "INFO"
)

// 🎬 Actions carried by sync events
const (
	ActionCreate        = "create"
	ActionDelete        = "delete"
	ActionCopy          = "copy"
	ActionRead          = "read"
	ActionWatching      = "sync_watching"
	ActionClosed        = "sync_closed"
	ActionNotWatching   = "not watching"
	ActionLoadConfig    = "load config"
	ActionCreateDefault = "create default config"
)

// 📨 Event is a single structured sync event
type Event struct {
	Kind      Kind
	Action    string
	Data      any
	Err       error
	Timestamp time.Time
}

// Failed reports whether the event carries an error
func (e Event) Failed() bool {
	return e.Err != nil
}

// 🏭 NewEvent creates an event stamped with the current time
func NewEvent(kind Kind, action string, data any) Event {
	return Event{
		Kind:      kind,
		Action:    action,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// 🏭 NewFailure creates an event carrying the error that triggered it
func NewFailure(kind Kind, action string, data any, err error) Event {
	ev := NewEvent(kind, action, data)
	ev.Err = err
	return ev
}

// 📂 PathData is the payload for file and directory events
type PathData struct {
	Src  string `json:"src"`
	Dest string `json:"dest,omitempty"`
}

// 🔌 Sink receives sync events
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Emit(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Discard drops every event
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// 🔀 Tee fans every event out to each sink in order
func Tee(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return SinkFunc(func(ctx context.Context, ev Event) {
		for _, s := range filtered {
			s.Emit(ctx, ev)
		}
	})
}

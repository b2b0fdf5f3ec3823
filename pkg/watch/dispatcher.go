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

package watch

import "sync"

// 🚦 Dispatcher runs reconcile work one unit at a time. Sessions that share a
// Dispatcher never reconcile concurrently. Work passed to Do must not call
// back into Do.
type Dispatcher struct {
	mu sync.Mutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Do runs fn to completion while holding the dispatcher. A nil Dispatcher
// runs fn directly.
func (d *Dispatcher) Do(fn func()) {
	if d == nil {
		fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

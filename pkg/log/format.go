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
	"encoding/json"
	"fmt"
	"strings"
)

const timestampLayout = "2006-01-02 15:04:05"

// 📝 FormatMessage renders "kind action data" the way every event line reads
func FormatMessage(ev Event) string {
	var b strings.Builder
	b.WriteString(string(ev.Kind))
	b.WriteByte(' ')
	b.WriteString(ev.Action)
	b.WriteByte(' ')
	if ev.Data != nil {
		b.WriteString(formatData(ev.Data))
	}
	if ev.Err != nil {
		fmt.Fprintf(&b, " error=%q", ev.Err.Error())
	}
	return b.String()
}

// 📝 FormatEvent prefixes the message with the event time
func FormatEvent(ev Event) string {
	return fmt.Sprintf("[%s] %s", ev.Timestamp.Format(timestampLayout), FormatMessage(ev))
}

func formatData(data any) string {
	switch v := data.(type) {
	case string:
		b, _ := json.Marshal(v)
		return string(b)
	case error:
		b, _ := json.Marshal(v.Error())
		return string(b)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

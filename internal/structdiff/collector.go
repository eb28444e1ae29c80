// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package structdiff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
)

// diffEntry is a single document path whose values differ.
type diffEntry struct {
	path     string
	current  reflect.Value
	expected reflect.Value
}

func (e *diffEntry) String() string {
	return fmt.Sprintf("%s: current %s, expected %s\n", e.path, readable(e.current), readable(e.expected))
}

// diffCollector is a cmp.Reporter that records every mismatched path.
type diffCollector struct {
	path  cmp.Path
	diffs []*diffEntry
}

func (r *diffCollector) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *diffCollector) Report(rs cmp.Result) {
	if !rs.Equal() {
		vx, vy := r.path.Last().Values()
		r.diffs = append(r.diffs, &diffEntry{documentPath(r.path), vx, vy})
	}
}

func (r *diffCollector) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func (r *diffCollector) String() string {
	var b strings.Builder
	for _, df := range r.diffs {
		b.WriteString(df.String())
	}
	return b.String()
}

// documentPath renders a cmp.Path as a slash separated document path, e.g.
// /229.1.1.1/10.0.20.2/joinState or /routes/0/nexthop.
func documentPath(p cmp.Path) string {
	var b strings.Builder
	for _, step := range p {
		switch s := step.(type) {
		case cmp.MapIndex:
			fmt.Fprintf(&b, "/%v", s.Key())
		case cmp.SliceIndex:
			k := s.Key()
			if k < 0 {
				ix, iy := s.SplitKeys()
				k = ix
				if k < 0 {
					k = iy
				}
			}
			fmt.Fprintf(&b, "/%d", k)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// readable formats one side of a mismatch.
func readable(v reflect.Value) string {
	if !v.IsValid() {
		return "<missing>"
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "null"
		}
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case number:
		return string(x)
	case string:
		return strconv.Quote(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return pretty.Sprint(x)
		}
		return string(b)
	default:
		return pretty.Sprint(x)
	}
}

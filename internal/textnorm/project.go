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

package textnorm

import (
	"encoding/json"
	"strings"
)

type project struct {
	path []string
	keys []string
}

func (p project) Apply(text string) string {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return text
	}
	for _, step := range p.path {
		m, ok := doc.(map[string]any)
		if !ok {
			return "null"
		}
		if doc, ok = m[step]; !ok {
			return "null"
		}
	}
	if m, ok := doc.(map[string]any); ok && len(p.keys) > 0 {
		kept := map[string]any{}
		for _, k := range p.keys {
			if v, ok := m[k]; ok {
				kept[k] = v
			}
		}
		doc = kept
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return text
	}
	return string(b)
}

// Project narrows a JSON document to the object found by following path,
// keeping only keys when any are given.  A missing path yields "null" so
// the comparison reports it; output that is not JSON is left unchanged.
//
//	Project([]string{"229.1.1.1", "10.0.20.2"}, "joinState", "regState")
func Project(path []string, keys ...string) Filter {
	return project{path: path, keys: keys}
}

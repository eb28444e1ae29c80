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

package fixture

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func newTestLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fsys, "/fixtures/"+name, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%q) failed: %v", name, err)
		}
	}
	return NewLoaderFS(fsys, "/fixtures")
}

func TestLoad(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"r1/ospf_srdb.json":      `{"srNodes": []}`,
		"r1/upstream.yaml":       "229.1.1.1:\n  joinState: Joined\n",
		"r1/show_mpls_table.ref": "Inbound Outbound\n",
		"r2/broken.json":         `{"srNodes": [`,
		"r2/broken.yml":          "a: [\n",
		"r2/empty.json":          "",
		"r3/show_ipv4_route.ref": "",
	})

	tests := []struct {
		name    string
		want    *Fixture
		wantErr bool
	}{
		{name: "r1/ospf_srdb.json", want: &Fixture{Name: "r1/ospf_srdb.json", Text: `{"srNodes": []}`, Structured: true}},
		{name: "r1/upstream.yaml", want: &Fixture{Name: "r1/upstream.yaml", Text: "{\n  \"229.1.1.1\": {\n    \"joinState\": \"Joined\"\n  }\n}\n", Structured: true}},
		{name: "r1/show_mpls_table.ref", want: &Fixture{Name: "r1/show_mpls_table.ref", Text: "Inbound Outbound\n"}},
		{name: "r3/show_ipv4_route.ref", want: &Fixture{Name: "r3/show_ipv4_route.ref"}},
		{name: "/r1/../r1/ospf_srdb.json", want: &Fixture{Name: "/r1/../r1/ospf_srdb.json", Text: `{"srNodes": []}`, Structured: true}},
		{name: "r2/broken.json", wantErr: true},
		{name: "r2/broken.yml", wantErr: true},
		{name: "r2/empty.json", wantErr: true},
		{name: "r4/missing.json", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Load(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load(%q) got error %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				var fe *Error
				if !errors.As(err, &fe) {
					t.Errorf("Load(%q) got error type %T, want *Error", tt.name, err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load(%q) (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestExists(t *testing.T) {
	l := newTestLoader(t, map[string]string{"r1/show_mpls_ldp_neighbor.ref": "x"})
	for name, want := range map[string]bool{
		"r1/show_mpls_ldp_neighbor.ref": true,
		"r2/show_mpls_ldp_neighbor.ref": false,
		"r1":                            false,
		"":                              false,
	} {
		if got := l.Exists(name); got != want {
			t.Errorf("Exists(%q) got %v, want %v", name, got, want)
		}
	}
}

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

package rundata

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	gitv5 "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"
	"github.com/openconfig/topoverify/internal/frr"
	"github.com/openconfig/topoverify/internal/harness"
)

type fakeNode struct {
	name    string
	version string
	err     error
}

func (n *fakeNode) Name() string { return n.name }

func (n *fakeNode) RunCommand(_ context.Context, cmd string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	if cmd != frr.Vtysh("show version") {
		return "", nil
	}
	return n.version, nil
}

func newNetwork(t *testing.T, nodes ...harness.Node) *harness.Network {
	t.Helper()
	net, err := harness.NewNetwork(nodes...)
	if err != nil {
		t.Fatalf("NewNetwork() got error: %v", err)
	}
	return net
}

func TestTopology(t *testing.T) {
	tests := []struct {
		desc  string
		nodes []harness.Node
		want  string
	}{{
		desc:  "single",
		nodes: []harness.Node{&fakeNode{name: "r1"}},
		want:  "r1",
	}, {
		desc:  "in order",
		nodes: []harness.Node{&fakeNode{name: "r3"}, &fakeNode{name: "r1"}, &fakeNode{name: "r2"}},
		want:  "r3,r1,r2",
	}}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			if got := topology(newNetwork(t, test.nodes...)); got != test.want {
				t.Errorf("topology() got %q, want %q", got, test.want)
			}
		})
	}
}

func TestProperties(t *testing.T) {
	const (
		planID   = "TV-1.1"
		issueURL = "https://github.com/openconfig/topoverify/issues/1"
	)
	TestPlanID = planID
	*knownIssueURL = issueURL
	defer func() {
		TestPlanID = ""
		*knownIssueURL = ""
	}()

	net := newNetwork(t,
		&fakeNode{name: "r1", version: "FRRouting 8.4.1 (r1) on Linux(5.15.0).\nCopyright 1996-2005 Kunihiro Ishiguro, et al.\n"},
		&fakeNode{name: "r2", err: errors.New("connection refused")},
		&fakeNode{name: "r3", version: "Hello, this is not a router.\n"},
	)
	got := Properties(context.Background(), net)

	want := map[string]string{
		"test.plan_id":        planID,
		"known_issue_url":     issueURL,
		"topology":            "r1,r2,r3",
		"node.r1.frr_version": "8.4.1",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Properties() has %s=%q, want %q", k, got[k], v)
		}
	}
	for _, k := range []string{"time.begin", "time.end", "build.go_version", "test.path"} {
		if _, ok := got[k]; !ok {
			t.Errorf("Properties() is missing %s", k)
		}
	}
	for _, k := range []string{"node.r2.frr_version", "node.r3.frr_version"} {
		if v, ok := got[k]; ok {
			t.Errorf("Properties() has %s=%q, want none", k, v)
		}
	}
}

func TestPropertiesWithoutNetwork(t *testing.T) {
	got := Properties(context.Background(), nil)
	if v, ok := got["topology"]; ok {
		t.Errorf("Properties(nil) has topology=%q, want none", v)
	}
	if _, ok := got["time.end"]; !ok {
		t.Error("Properties(nil) is missing time.end")
	}
}

func TestTiming(t *testing.T) {
	m := make(map[string]string)
	local(m, flag.NewFlagSet("empty", flag.ContinueOnError))
	begin, end := m["time.begin"], m["time.end"]
	if begin == "" || end == "" {
		t.Fatalf("local() got time.begin=%q time.end=%q, want both", begin, end)
	}
	if begin > end {
		t.Errorf("local() got time.begin %s after time.end %s", begin, end)
	}
}

func TestArgInfo(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("arg_topology", "", "")
	fs.Int("arg_convergence_attempts", 25, "")
	fs.Duration("arg_convergence_interval", 3*time.Second, "")
	fs.String("known_issue_url", "", "")
	if err := fs.Parse([]string{
		"-arg_topology=/etc/topo.yaml",
		"-arg_convergence_attempts=25",
		"-arg_convergence_interval=5s",
		"-known_issue_url=https://example.com/1",
	}); err != nil {
		t.Fatalf("Parse() got error: %v", err)
	}

	got := make(map[string]string)
	argInfo(got, fs)
	want := map[string]string{
		"arg.topology":             "/etc/topo.yaml",
		"arg.convergence_interval": "5s",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("argInfo() differs (-want +got):\n%s", diff)
	}
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		pkg  string
		want string
	}{
		{"github.com/openconfig/topoverify/feature/pim/tests/pim_basic_test", "feature/pim/tests/pim_basic_test"},
		{"example.com/fork/topoverify/internal/rundata", "internal/rundata"},
		{"github.com/openconfig/featureprofiles/internal/rundata", ""},
	}
	for _, test := range tests {
		if got := modulePath(test.pkg); got != test.want {
			t.Errorf("modulePath(%q) got %q, want %q", test.pkg, got, test.want)
		}
	}
}

func TestTestPath(t *testing.T) {
	if got, want := testPath(""), "internal/rundata"; got != want {
		t.Errorf("testPath(\"\") got %q, want %q", got, want)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() got error: %v", err)
	}
	if got, want := testPath(filepath.Dir(filepath.Dir(wd))), filepath.Join("internal", "rundata"); got != want {
		t.Errorf("testPath() got %q, want %q", got, want)
	}
}

func TestGitInfo(t *testing.T) {
	dir := t.TempDir()
	repo, err := gitv5.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() got error: %v", err)
	}
	const origin = "https://github.com/openconfig/topoverify.git"
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{origin}}); err != nil {
		t.Fatalf("CreateRemote() got error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "topology.yaml"), []byte("nodes: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() got error: %v", err)
	}
	if _, err := wt.Add("topology.yaml"); err != nil {
		t.Fatalf("Add() got error: %v", err)
	}
	when := time.Unix(1700000000, 0)
	hash, err := wt.Commit("Add topology", &gitv5.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: when},
	})
	if err != nil {
		t.Fatalf("Commit() got error: %v", err)
	}
	sub := filepath.Join(dir, "feature")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got := make(map[string]string)
	root := gitInfo(got, sub)
	if root != dir {
		t.Errorf("gitInfo() got root %q, want %q", root, dir)
	}
	want := map[string]string{
		"git.origin":           origin,
		"git.commit":           hash.String(),
		"git.commit_timestamp": "1700000000",
		"git.clean":            "true",
		"git.status":           "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gitInfo() differs (-want +got):\n%s", diff)
	}
}

func TestGitInfoNoRepo(t *testing.T) {
	got := make(map[string]string)
	if root := gitInfo(got, t.TempDir()); root != "" {
		t.Errorf("gitInfo() got root %q outside a repository", root)
	}
	if len(got) != 0 {
		t.Errorf("gitInfo() got %v outside a repository, want nothing", got)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]string{
		"topology":   "r1,r2",
		"git.clean":  "true",
		"time.begin": "1700000000",
	}); err != nil {
		t.Fatalf("Write() got error: %v", err)
	}
	want := "git.clean=true\ntime.begin=1700000000\ntopology=r1,r2\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Write() differs (-want +got):\n%s", diff)
	}
}

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

// Package rundata collects the properties of a verification run, so that
// a result can be traced back to the code and the network it ran against.
//
// The properties are:
//
//   - build.go_version, build.path, build.main.version and a few
//     build.settings.* (platform, race, vcs) from the build info of the
//     test binary.
//   - git.origin, git.commit, git.commit_timestamp, git.clean and git.status
//     of the working tree the test runs from, when it is a git repository.
//   - test.path - the package path of the test, relative to the working tree.
//   - test.plan_id - test plan ID that is optionally reported by the test.
//   - arg.<name> - every -arg_ flag set to a non-default value.
//   - topology - the comma separated node names of the network, in order.
//   - node.<name>.frr_version - the FRR release of each node, when it
//     could be queried.
//   - time.begin and time.end in Unix epoch seconds.
package rundata

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/golang/glog"
	"github.com/openconfig/topoverify/internal/frr"
	"github.com/openconfig/topoverify/internal/harness"
)

// TestPlanID can be set by a test to optionally self-report the test
// plan ID.
var TestPlanID string

var knownIssueURL = flag.String("known_issue_url", "", "Report a known issue that explains why the test fails.  This should be a URL to the issue tracker.")

func topology(net *harness.Network) string {
	return strings.Join(net.Names(), ",")
}

// nodeVersions records the FRR release of every node in net.  Nodes that
// cannot be queried are left out.
func nodeVersions(ctx context.Context, m map[string]string, net *harness.Network) {
	for _, n := range net.Nodes() {
		v, err := frr.Version(ctx, n)
		if err != nil {
			log.Warningf("Could not get the FRR version of %s: %v", n.Name(), err)
			continue
		}
		m[fmt.Sprintf("node.%s.frr_version", n.Name())] = v.String()
	}
}

// Properties builds the properties of the run.  net may be nil when the
// tests never reached the network.
func Properties(ctx context.Context, net *harness.Network) map[string]string {
	m := make(map[string]string)
	local(m, flag.CommandLine)

	if TestPlanID != "" {
		m["test.plan_id"] = TestPlanID
	}
	if *knownIssueURL != "" {
		m["known_issue_url"] = *knownIssueURL
	}
	if net == nil {
		return m
	}
	m["topology"] = topology(net)
	nodeVersions(ctx, m, net)
	return m
}

// Write writes m to w as sorted key=value lines.
func Write(w io.Writer, m map[string]string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

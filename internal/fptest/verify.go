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

package fptest

import (
	"context"
	"testing"
	"time"

	"github.com/openconfig/topoverify/internal/args"
	"github.com/openconfig/topoverify/internal/fixture"
	"github.com/openconfig/topoverify/internal/frr"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/poll"
	"github.com/openconfig/topoverify/internal/scenario"
	"github.com/spf13/afero"
)

// ReportName is the file in -arg_outputs_dir receiving one CSV row per
// verified check.
const ReportName = "convergence.csv"

// Policy returns the retry policy set by the convergence flags.
func Policy(t testing.TB) poll.RetryPolicy {
	t.Helper()
	return PolicyOf(t, *args.ConvergenceAttempts, *args.ConvergenceInterval)
}

// PolicyOf returns a retry policy of attempts spaced interval apart, scaled
// by -arg_convergence_multiplier.
func PolicyOf(t testing.TB, attempts int, interval time.Duration) poll.RetryPolicy {
	t.Helper()
	if m := *args.ConvergenceMultiplier; m > 1 {
		attempts *= m
	}
	p, err := poll.NewRetryPolicy(attempts, interval)
	if err != nil {
		t.Fatalf("Invalid convergence flags: %v", err)
	}
	return p
}

// Verifier returns a verifier reading fixtures from dir, or from
// -arg_fixture_dir when it is set.  Results are recorded in
// -arg_outputs_dir when it is set.
func Verifier(t testing.TB, dir string) *scenario.Verifier {
	t.Helper()
	if *args.FixtureDir != "" {
		dir = *args.FixtureDir
	}
	v := &scenario.Verifier{
		Fixtures: fixture.NewLoader(dir),
		Poller:   &poll.Poller{},
	}
	if *args.OutputsDir != "" {
		r, err := scenario.NewRecorder(*args.OutputsDir, ReportName)
		if err != nil {
			t.Fatalf("Unable to create the convergence report: %v", err)
		}
		v.Recorder = r
	}
	return v
}

// Require returns the precondition computed by a frr.Require* helper,
// failing the test when the node could not be queried.
func Require(t testing.TB, pre scenario.Precondition, err error) scenario.Precondition {
	t.Helper()
	if err != nil {
		t.Fatalf("Unable to evaluate precondition: %v", err)
	}
	return pre
}

// CheckMemoryLeaks appends the memory leaks reported by the daemons of
// every node in net to -arg_memleak_report, failing the test when any
// daemon leaked.  The test is skipped when the flag is not set.
func CheckMemoryLeaks(t testing.TB, net *harness.Network, daemons ...string) {
	t.Helper()
	if *args.MemleakReport == "" {
		t.Skip("Memory leak report is disabled, set -arg_memleak_report to enable it")
	}
	var reports []*frr.LeakReport
	for _, n := range net.Nodes() {
		r, err := frr.MemoryLeaks(context.Background(), n, daemons, *args.DaemonLogDir)
		if err != nil {
			t.Errorf("Unable to read the daemon logs of %s: %v", n.Name(), err)
			continue
		}
		if r.Found() {
			t.Errorf("%s: memory leaks found in %d daemons, see %s", n.Name(), len(r.Leaks), *args.MemleakReport)
		}
		reports = append(reports, r)
	}
	if err := frr.AppendLeakReport(afero.NewOsFs(), *args.MemleakReport, t.Name(), reports...); err != nil {
		t.Errorf("Unable to write %s: %v", *args.MemleakReport, err)
	}
}

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

// Package args defines the arguments shared by every verification suite.
// Having them at the project level lets the whole suite run against one
// emulated network without defining them per test.
package args

import (
	"flag"
	"time"
)

// Global test flags.
var (
	Topology              = flag.String("arg_topology", "", "Path to the YAML file describing how to reach the nodes of the running network. Tests that need the network are skipped when empty.")
	FixtureDir            = flag.String("arg_fixture_dir", "", "Directory holding the expected outputs. Defaults to the testdata directory of each test package.")
	ConvergenceAttempts   = flag.Int("arg_convergence_attempts", 25, "Maximum number of times a check queries a node before it is declared not converged.")
	ConvergenceInterval   = flag.Duration("arg_convergence_interval", 3*time.Second, "Time between two queries of the same check.")
	OutputsDir            = flag.String("arg_outputs_dir", "", "Directory receiving the convergence report, the run properties and the last diff of every check that did not converge. Nothing is written when empty.")
	MemleakReport         = flag.String("arg_memleak_report", "", "Markdown file to append daemon memory leak reports to. Leaks are not checked when empty.")
	DaemonLogDir          = flag.String("arg_daemon_log_dir", "/tmp", "Directory on the nodes holding the <node>-<daemon>.err logs.")
	ConvergenceMultiplier = flag.Int("arg_convergence_multiplier", 1, "Scales the attempts of every check, for slow emulation hosts.")
)
